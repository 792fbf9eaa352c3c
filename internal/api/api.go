// Package api exposes the coupon engine over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fanstack/coupon-engine/internal/domain/auth"
	"github.com/fanstack/coupon-engine/internal/domain/coupon"
)

// Handler holds the domain services behind the HTTP surface.
type Handler struct {
	store       *coupon.Store
	ledger      *coupon.Ledger
	coordinator *coupon.Coordinator
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(store *coupon.Store, ledger *coupon.Ledger, coordinator *coupon.Coordinator) *Handler {
	return &Handler{
		store:       store,
		ledger:      ledger,
		coordinator: coordinator,
	}
}

// NewRouter builds the API router. Template administration requires an API
// key; claim, listing, redemption, and reversal are called by trusted
// internal collaborators (checkout and refund flows) that resolve user
// identity upstream.
func NewRouter(h *Handler, apikeys auth.Repository, pepper []byte) http.Handler {
	r := chi.NewRouter()

	r.Route("/templates", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireAPIKey(apikeys, pepper, "templates:write"))
			r.Post("/", h.CreateTemplate)
			r.Delete("/{templateID}", h.RetireTemplate)
		})
		r.Get("/{templateID}", h.GetTemplate)
		r.Post("/{templateID}/claims", h.ClaimTemplate)
	})

	r.Get("/users/{userID}/coupons", h.ListUserCoupons)
	r.Post("/coupons/claimable", h.ListClaimable)
	r.Post("/coupons/{issuanceID}/redeem", h.Redeem)
	r.Post("/redemptions/reverse", h.Reverse)

	return r
}
