package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the stored lifecycle state of an issuance. StatusExpired is
// derived at read time and never written to storage.
type Status string

const (
	StatusAvailable Status = "available"
	StatusRedeemed  Status = "redeemed"
	StatusVoid      Status = "void"
	// StatusExpired is reported for available issuances past their expiry.
	StatusExpired Status = "expired"
)

var (
	// ErrIssuanceNotFound is returned when an issuance id resolves to nothing.
	ErrIssuanceNotFound = errors.New("coupon issuance not found")
	// ErrRedemptionNotFound is returned when no issuance carries the given
	// redemption reference.
	ErrRedemptionNotFound = errors.New("redemption not found")
	// ErrAlreadyClaimed is returned when a user already holds an issuance
	// for the template.
	ErrAlreadyClaimed = errors.New("coupon already claimed")
	// ErrAlreadyUsed is returned when redeeming a redeemed or void issuance.
	ErrAlreadyUsed = errors.New("coupon already used")
	// ErrNotRedeemed is returned when reversing an issuance that is not in
	// the redeemed state.
	ErrNotRedeemed = errors.New("issuance not redeemed")
	// ErrRedemptionConflict is returned when a concurrent redemption won the
	// race for the same issuance.
	ErrRedemptionConflict = errors.New("concurrent redemption conflict")
	// ErrIssuanceExpired is returned when redeeming an issuance past its expiry.
	ErrIssuanceExpired = errors.New("coupon expired")
	// ErrNotOwner is returned when the caller does not own the issuance.
	ErrNotOwner = errors.New("coupon not owned by user")
	// ErrScopeMismatch is returned when the template scope rejects the order.
	ErrScopeMismatch = errors.New("coupon scope does not match order")
	// ErrBelowMinimumPurchase is returned when the order's base amount is
	// under the template's minimum purchase amount.
	ErrBelowMinimumPurchase = errors.New("order below minimum purchase amount")
)

// Issuance is a single user's claimed instance of a template. ExpiresAt is a
// snapshot of the template expiry at claim time and never changes afterward.
type Issuance struct {
	ID            string
	TemplateID    string
	OwnerUserID   string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	Status        Status
	UsedAt        *time.Time
	RedemptionRef *string
}

// EffectiveStatus derives the status every read path must agree on: an
// available issuance past its expiry is expired without a stored transition.
func (i *Issuance) EffectiveStatus(now time.Time) Status {
	if i.Status == StatusAvailable && now.After(i.ExpiresAt) {
		return StatusExpired
	}
	return i.Status
}

// OrderContext is the checkout-supplied input against which an issuance is
// matched and redeemed. OrderRef identifies the order/payment and becomes the
// issuance's redemption reference on success.
type OrderContext struct {
	UserID     string
	OrderType  TargetType
	TargetID   string
	ChannelID  string
	BaseAmount decimal.Decimal
	OrderRef   string
}

// IssuanceRepository provides persistence for issuances. The conditional
// updates are the single coordination point of the engine: they must only
// apply when the stored status equals the expected one, reporting zero
// affected rows as the corresponding conflict error.
type IssuanceRepository interface {
	// Insert persists a new issuance. Returns ErrAlreadyClaimed when the
	// (template, owner) uniqueness constraint is violated.
	Insert(ctx context.Context, i *Issuance) error
	// GetByID returns the issuance or ErrIssuanceNotFound.
	GetByID(ctx context.Context, id string) (*Issuance, error)
	// GetByRedemptionRef returns the issuance holding the given reference,
	// or ErrRedemptionNotFound.
	GetByRedemptionRef(ctx context.Context, ref string) (*Issuance, error)
	// ListByUser returns all issuances owned by the user, newest first.
	ListByUser(ctx context.Context, userID string) ([]Issuance, error)
	// ClaimedTemplateIDs returns the ids of templates the user has claimed.
	ClaimedTemplateIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	// MarkRedeemed transitions available → redeemed, recording usedAt and
	// the redemption reference. Returns ErrRedemptionConflict when the
	// issuance was not available at commit time.
	MarkRedeemed(ctx context.Context, id string, usedAt time.Time, ref string) error
	// Restore transitions redeemed → available, clearing usedAt and the
	// redemption reference. Returns ErrNotRedeemed when the issuance was
	// not redeemed at commit time.
	Restore(ctx context.Context, id string) error
	// Void transitions redeemed → void, retaining usedAt and the redemption
	// reference for audit. Returns ErrNotRedeemed when the issuance was not
	// redeemed at commit time.
	Void(ctx context.Context, id string) error
}
