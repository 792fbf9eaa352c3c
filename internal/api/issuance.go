package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fanstack/coupon-engine/internal/domain/coupon"
)

// ClaimTemplate handles POST /templates/{templateID}/claims.
func (h *Handler) ClaimTemplate(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "userId is required")
		return
	}

	i, err := h.ledger.Claim(r.Context(), chi.URLParam(r, "templateID"), req.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, issuanceResponse{
		IssuanceID: i.ID,
		TemplateID: i.TemplateID,
		Status:     string(i.Status),
		IssuedAt:   i.IssuedAt,
		ExpiresAt:  i.ExpiresAt,
	})
}

// ListUserCoupons handles GET /users/{userID}/coupons. Issuances carry their
// computed status and are annotated with the owning template's discount rule
// and scope.
func (h *Handler) ListUserCoupons(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	filter := coupon.Status(r.URL.Query().Get("status"))

	issuances, err := h.ledger.ListForUser(r.Context(), userID, filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// Issuances of one user typically share few templates; cache lookups.
	templates := make(map[string]*coupon.Template)
	out := make([]issuanceResponse, 0, len(issuances))
	for _, i := range issuances {
		resp := issuanceResponse{
			IssuanceID: i.ID,
			TemplateID: i.TemplateID,
			Status:     string(i.Status),
			IssuedAt:   i.IssuedAt,
			ExpiresAt:  i.ExpiresAt,
			UsedAt:     i.UsedAt,
		}

		t, ok := templates[i.TemplateID]
		if !ok {
			t, err = h.store.Get(r.Context(), i.TemplateID)
			if err != nil {
				writeDomainError(w, r, err)
				return
			}
			templates[i.TemplateID] = t
		}
		resp.DiscountType = string(t.DiscountType)
		resp.DiscountValue = &t.DiscountValue
		resp.Scope = &scopeResponse{
			ChannelID:  t.Scope.ChannelID,
			TargetType: t.Scope.TargetType,
			TargetID:   t.Scope.TargetID,
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, out)
}

// ListClaimable handles POST /coupons/claimable: templates the user could
// still claim that would match the given order.
func (h *Handler) ListClaimable(w http.ResponseWriter, r *http.Request) {
	var req orderContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order context")
		return
	}

	templates, err := h.ledger.ListClaimable(r.Context(), req.toOrderContext())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	ids := make([]string, len(templates))
	for i, t := range templates {
		ids[i] = t.ID
	}
	writeJSON(w, http.StatusOK, claimableResponse{TemplateIDs: ids})
}
