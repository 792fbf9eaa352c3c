package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Redemption is the result of applying an issuance to an order.
type Redemption struct {
	IssuanceID     string
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
}

// Coordinator is the checkout entry point. Redeem performs pure reads and
// computation up to a single conditional write, so an abandoned request
// before the state transition leaves no residue.
type Coordinator struct {
	templates TemplateRepository
	issuances IssuanceRepository
	now       func() time.Time
}

// NewCoordinator creates a Coordinator backed by the given repositories.
func NewCoordinator(templates TemplateRepository, issuances IssuanceRepository) *Coordinator {
	return &Coordinator{templates: templates, issuances: issuances, now: time.Now}
}

// Redeem validates the issuance against the order, computes the discount,
// and atomically transitions available → redeemed. Of two concurrent calls
// on the same issuance exactly one succeeds; the loser gets
// ErrRedemptionConflict and must not blindly retry the same precondition.
func (c *Coordinator) Redeem(ctx context.Context, issuanceID string, ord OrderContext) (*Redemption, error) {
	i, err := c.issuances.GetByID(ctx, issuanceID)
	if err != nil {
		return nil, err
	}
	if i.OwnerUserID != ord.UserID {
		return nil, ErrNotOwner
	}

	now := c.now()
	switch i.EffectiveStatus(now) {
	case StatusAvailable:
	case StatusExpired:
		return nil, ErrIssuanceExpired
	default:
		return nil, ErrAlreadyUsed
	}

	t, err := c.templates.GetByID(ctx, i.TemplateID)
	if err != nil {
		return nil, errors.Wrapf(err, "load template %s", i.TemplateID)
	}
	if !t.Scope.Matches(ord) {
		return nil, ErrScopeMismatch
	}
	if ord.BaseAmount.LessThan(t.MinPurchase) {
		return nil, ErrBelowMinimumPurchase
	}

	discount, err := Compute(t, ord.BaseAmount)
	if err != nil {
		return nil, errors.Wrap(err, "compute discount")
	}

	if err := c.issuances.MarkRedeemed(ctx, i.ID, now, ord.OrderRef); err != nil {
		return nil, err
	}

	return &Redemption{
		IssuanceID:     i.ID,
		DiscountAmount: discount,
		FinalAmount:    ord.BaseAmount.Sub(discount),
	}, nil
}

// Reverse undoes the redemption recorded under the given reference, per the
// template's refund policy. Restoration does not extend life: an issuance
// restored past its expiry is available by status but fails future redeems
// on the expiry check. A second reversal for a ref that still resolves fails
// ErrNotRedeemed so duplicate refund notifications are detectable.
func (c *Coordinator) Reverse(ctx context.Context, redemptionRef string) error {
	i, err := c.issuances.GetByRedemptionRef(ctx, redemptionRef)
	if err != nil {
		return err
	}
	if i.Status != StatusRedeemed {
		return ErrNotRedeemed
	}

	t, err := c.templates.GetByID(ctx, i.TemplateID)
	if err != nil {
		return errors.Wrapf(err, "load template %s", i.TemplateID)
	}

	switch t.RefundPolicy {
	case RefundRestore:
		return c.issuances.Restore(ctx, i.ID)
	case RefundExpire:
		return c.issuances.Void(ctx, i.ID)
	default:
		return errors.Errorf("unsupported refund policy: %q", t.RefundPolicy)
	}
}
