package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		template Template
		base     decimal.Decimal
		want     decimal.Decimal
	}{
		{
			name:     "10 percent, no cap",
			template: Template{DiscountType: DiscountRate, DiscountValue: dec(10)},
			base:     dec(50000),
			want:     dec(5000),
		},
		{
			name:     "50 percent capped at 5000",
			template: Template{DiscountType: DiscountRate, DiscountValue: dec(50), MaxDiscount: decPtr(5000)},
			base:     dec(50000),
			want:     dec(5000),
		},
		{
			name:     "cap above raw value is inert",
			template: Template{DiscountType: DiscountRate, DiscountValue: dec(10), MaxDiscount: decPtr(99999)},
			base:     dec(50000),
			want:     dec(5000),
		},
		{
			name:     "rate floors the raw value",
			template: Template{DiscountType: DiscountRate, DiscountValue: dec(33)},
			base:     dec(100),
			want:     dec(33),
		},
		{
			name:     "rate on odd base floors, never rounds up",
			template: Template{DiscountType: DiscountRate, DiscountValue: dec(15)},
			base:     dec(333),
			want:     dec(49), // 333*15/100 = 49.95
		},
		{
			name:     "100 percent takes the whole base",
			template: Template{DiscountType: DiscountRate, DiscountValue: dec(100)},
			base:     dec(12345),
			want:     dec(12345),
		},
		{
			name:     "fixed amount under base",
			template: Template{DiscountType: DiscountAmount, DiscountValue: dec(3000)},
			base:     dec(50000),
			want:     dec(3000),
		},
		{
			name:     "fixed amount above base is clamped",
			template: Template{DiscountType: DiscountAmount, DiscountValue: dec(3000)},
			base:     dec(2000),
			want:     dec(2000),
		},
		{
			name:     "zero base yields zero discount",
			template: Template{DiscountType: DiscountAmount, DiscountValue: dec(3000)},
			base:     dec(0),
			want:     dec(0),
		},
		{
			name:     "rate on zero base yields zero discount",
			template: Template{DiscountType: DiscountRate, DiscountValue: dec(50)},
			base:     dec(0),
			want:     dec(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(&tt.template, tt.base)

			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)

			// The output invariant holds for every case: 0 <= discount <= base.
			assert.False(t, got.IsNegative())
			assert.True(t, got.LessThanOrEqual(tt.base))
		})
	}
}

func TestCompute_UnsupportedType(t *testing.T) {
	_, err := Compute(&Template{DiscountType: "bogus"}, dec(100))
	require.Error(t, err)
}

func TestCompute_NegativeBase(t *testing.T) {
	_, err := Compute(&Template{DiscountType: DiscountRate, DiscountValue: dec(10)}, dec(-1))
	require.Error(t, err)
}
