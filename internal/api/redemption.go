package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Redeem handles POST /coupons/{issuanceID}/redeem. Exactly one issuance is
// redeemed per order; the checkout flow passes the chosen issuance id and the
// order context, and losers of a concurrent race get a 409 they must resolve
// by re-fetching state rather than resubmitting.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req orderContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.OrderRef == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "userId and orderRef are required")
		return
	}

	result, err := h.coordinator.Redeem(r.Context(), chi.URLParam(r, "issuanceID"), req.toOrderContext())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, redeemResponse{
		IssuanceID:     result.IssuanceID,
		DiscountAmount: result.DiscountAmount,
		FinalAmount:    result.FinalAmount,
	})
}

// Reverse handles POST /redemptions/reverse, called by the refund flow with
// the redemption reference of the reversed payment.
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req reverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RedemptionRef == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "redemptionRef is required")
		return
	}

	if err := h.coordinator.Reverse(r.Context(), req.RedemptionRef); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
