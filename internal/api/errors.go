package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/fanstack/coupon-engine/internal/domain/coupon"
)

// errorResponse is the JSON body for all error responses.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorStatus maps domain sentinels to HTTP status codes and stable error
// codes. Not-found and ownership errors indicate malformed or tampered
// requests; state conflicts are retryable only after re-fetching state;
// business-rule violations are surfaced to checkout as rejection reasons.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{coupon.ErrTemplateNotFound, http.StatusNotFound, "TEMPLATE_NOT_FOUND"},
	{coupon.ErrIssuanceNotFound, http.StatusNotFound, "ISSUANCE_NOT_FOUND"},
	{coupon.ErrRedemptionNotFound, http.StatusNotFound, "REDEMPTION_NOT_FOUND"},
	{coupon.ErrNotOwner, http.StatusForbidden, "NOT_OWNER"},
	{coupon.ErrAlreadyClaimed, http.StatusConflict, "ALREADY_CLAIMED"},
	{coupon.ErrAlreadyUsed, http.StatusConflict, "ALREADY_USED"},
	{coupon.ErrNotRedeemed, http.StatusConflict, "NOT_REDEEMED"},
	{coupon.ErrRedemptionConflict, http.StatusConflict, "CONCURRENT_REDEMPTION_CONFLICT"},
	{coupon.ErrCodeTaken, http.StatusConflict, "CODE_TAKEN"},
	{coupon.ErrTemplateExpired, http.StatusUnprocessableEntity, "TEMPLATE_EXPIRED"},
	{coupon.ErrIssuanceExpired, http.StatusUnprocessableEntity, "EXPIRED"},
	{coupon.ErrScopeMismatch, http.StatusUnprocessableEntity, "SCOPE_MISMATCH"},
	{coupon.ErrBelowMinimumPurchase, http.StatusUnprocessableEntity, "BELOW_MINIMUM_PURCHASE"},
	{coupon.ErrInvalidDiscountConfig, http.StatusUnprocessableEntity, "INVALID_DISCOUNT_CONFIG"},
	{coupon.ErrCodeGenerationExhausted, http.StatusServiceUnavailable, "CODE_GENERATION_EXHAUSTED"},
}

// writeDomainError maps a domain error to its HTTP representation. Unmapped
// errors are logged and reported as 500 without leaking internals.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}

	zctx.From(r.Context()).Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
