package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported template discount strategies.
type DiscountType string

const (
	// DiscountRate applies a percentage of the order's base amount.
	DiscountRate DiscountType = "rate"
	// DiscountAmount subtracts a fixed amount, capped at the base amount.
	DiscountAmount DiscountType = "amount"
)

// RefundPolicy controls what happens to a redeemed issuance when the
// payment it was spent on is refunded.
type RefundPolicy string

const (
	// RefundRestore returns the issuance to the available state.
	RefundRestore RefundPolicy = "restore_on_refund"
	// RefundExpire permanently voids the issuance.
	RefundExpire RefundPolicy = "expire_on_refund"
)

// TargetType enumerates the purchasable kinds a template may be scoped to.
type TargetType string

const (
	TargetSubscription TargetType = "subscription"
	TargetContent      TargetType = "content"
)

var (
	// ErrTemplateNotFound is returned when a template id resolves to nothing,
	// including soft-retired templates on claim paths.
	ErrTemplateNotFound = errors.New("coupon template not found")
	// ErrTemplateExpired is returned when claiming from a template whose
	// expiry has passed.
	ErrTemplateExpired = errors.New("coupon template expired")
	// ErrInvalidDiscountConfig is returned when a template's discount value
	// is outside the allowed range for its discount type.
	ErrInvalidDiscountConfig = errors.New("invalid discount configuration")
	// ErrCodeTaken is returned by the repository when the coupon code
	// collides with an existing template.
	ErrCodeTaken = errors.New("coupon code already taken")
	// ErrCodeGenerationExhausted is returned when code generation keeps
	// colliding past the bounded attempt count.
	ErrCodeGenerationExhausted = errors.New("coupon code generation exhausted")
)

// Scope restricts which orders a template may discount. A nil field is a
// wildcard and never causes a mismatch.
type Scope struct {
	ChannelID  *string
	TargetType *TargetType
	TargetID   *string
}

// Template is a coupon definition from which per-user issuances are claimed.
// Templates are read-mostly after creation and soft-retired rather than
// deleted while issuances still reference them.
type Template struct {
	ID            string
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MaxDiscount   *decimal.Decimal
	MinPurchase   decimal.Decimal
	RefundPolicy  RefundPolicy
	ExpiresAt     time.Time
	Scope         Scope
	Retired       bool
	CreatedAt     time.Time
}

// Validate checks the discount configuration invariant: rate values must be
// integer percentages in [1, 100], amount values must be positive.
func (t *Template) Validate() error {
	switch t.DiscountType {
	case DiscountRate:
		v := t.DiscountValue
		if !v.Equal(v.Floor()) || v.LessThan(decimal.NewFromInt(1)) || v.GreaterThan(decimal.NewFromInt(100)) {
			return errors.Wrapf(ErrInvalidDiscountConfig, "rate %s out of range [1, 100]", v)
		}
	case DiscountAmount:
		if !t.DiscountValue.IsPositive() {
			return errors.Wrapf(ErrInvalidDiscountConfig, "amount %s must be positive", t.DiscountValue)
		}
	default:
		return errors.Wrapf(ErrInvalidDiscountConfig, "unsupported discount type %q", t.DiscountType)
	}

	switch t.RefundPolicy {
	case RefundRestore, RefundExpire:
	default:
		return errors.Wrapf(ErrInvalidDiscountConfig, "unsupported refund policy %q", t.RefundPolicy)
	}
	return nil
}

// TemplateRepository provides persistence for coupon templates.
type TemplateRepository interface {
	// Insert persists a new template. Returns ErrCodeTaken when the code
	// collides with an existing template.
	Insert(ctx context.Context, t *Template) error
	// GetByID returns the template or ErrTemplateNotFound.
	GetByID(ctx context.Context, id string) (*Template, error)
	// ListActive returns non-retired templates whose expiry is after now.
	ListActive(ctx context.Context, now time.Time) ([]Template, error)
	// Retire soft-retires a template, excluding it from claim paths.
	Retire(ctx context.Context, id string) error
}
