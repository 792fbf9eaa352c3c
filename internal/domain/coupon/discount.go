package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Compute calculates the discount a template grants on the given base amount.
// The result is always within [0, base]. Rate discounts floor the raw value
// (never round up in the customer's favor) and honor the optional cap;
// amount discounts never exceed the base amount.
func Compute(t *Template, base decimal.Decimal) (decimal.Decimal, error) {
	if base.IsNegative() {
		return decimal.Zero, errors.Errorf("negative base amount: %s", base)
	}

	switch t.DiscountType {
	case DiscountRate:
		// base * rate / 100 computed exactly: Mul and Shift are lossless,
		// Floor discards the fraction deterministically.
		raw := base.Mul(t.DiscountValue).Shift(-2).Floor()
		if t.MaxDiscount != nil {
			raw = decimal.Min(raw, *t.MaxDiscount)
		}
		return clampToBase(raw, base), nil
	case DiscountAmount:
		return clampToBase(t.DiscountValue, base), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", t.DiscountType)
	}
}

// clampToBase bounds a discount to [0, base].
func clampToBase(d, base decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(d, base)
}
