package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() TemplateConfig {
	return TemplateConfig{
		DiscountType:  DiscountRate,
		DiscountValue: decimal.NewFromInt(10),
		RefundPolicy:  RefundRestore,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}
}

func TestStore_Create_ValidatesDiscountConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TemplateConfig)
	}{
		{"rate of zero", func(c *TemplateConfig) { c.DiscountValue = decimal.Zero }},
		{"rate above 100", func(c *TemplateConfig) { c.DiscountValue = decimal.NewFromInt(101) }},
		{"fractional rate", func(c *TemplateConfig) { c.DiscountValue = decimal.NewFromFloat(10.5) }},
		{"negative rate", func(c *TemplateConfig) { c.DiscountValue = decimal.NewFromInt(-5) }},
		{"zero amount", func(c *TemplateConfig) {
			c.DiscountType = DiscountAmount
			c.DiscountValue = decimal.Zero
		}},
		{"negative amount", func(c *TemplateConfig) {
			c.DiscountType = DiscountAmount
			c.DiscountValue = decimal.NewFromInt(-1000)
		}},
		{"unknown discount type", func(c *TemplateConfig) { c.DiscountType = "bogus" }},
		{"unknown refund policy", func(c *TemplateConfig) { c.RefundPolicy = "bogus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			_, err := NewStore(newMemTemplateRepo()).Create(context.Background(), cfg)
			require.ErrorIs(t, err, ErrInvalidDiscountConfig)
		})
	}
}

func TestStore_Create_GeneratesCode(t *testing.T) {
	store := NewStore(newMemTemplateRepo())

	tmpl, err := store.Create(context.Background(), validConfig())
	require.NoError(t, err)

	assert.Len(t, tmpl.Code, codeLength)
	for _, c := range tmpl.Code {
		assert.Contains(t, codeAlphabet, string(c))
	}

	got, err := store.Get(context.Background(), tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tmpl.Code, got.Code)
}

func TestStore_Create_KeepsProvidedCode(t *testing.T) {
	cfg := validConfig()
	cfg.Code = "WELCOME10"

	tmpl, err := NewStore(newMemTemplateRepo()).Create(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", tmpl.Code)
}

func TestStore_Create_ProvidedCodeCollision(t *testing.T) {
	repo := newMemTemplateRepo()
	store := NewStore(repo)
	cfg := validConfig()
	cfg.Code = "DUPLICATE"

	_, err := store.Create(context.Background(), cfg)
	require.NoError(t, err)

	_, err = store.Create(context.Background(), cfg)
	require.ErrorIs(t, err, ErrCodeTaken)
}

func TestStore_Create_RetriesGeneratedCodeCollisions(t *testing.T) {
	repo := newMemTemplateRepo()
	// Two collisions, then the normal path succeeds.
	repo.insertErrs = []error{ErrCodeTaken, ErrCodeTaken, nil}

	tmpl, err := NewStore(repo).Create(context.Background(), validConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, tmpl.Code)
}

func TestStore_Create_CodeGenerationExhausted(t *testing.T) {
	repo := newMemTemplateRepo()
	for range maxCodeAttempts {
		repo.insertErrs = append(repo.insertErrs, ErrCodeTaken)
	}

	_, err := NewStore(repo).Create(context.Background(), validConfig())
	require.ErrorIs(t, err, ErrCodeGenerationExhausted)
}

func TestStore_Create_RepoErrorPropagates(t *testing.T) {
	repo := newMemTemplateRepo()
	repo.insertErrs = []error{errors.New("connection lost")}

	_, err := NewStore(repo).Create(context.Background(), validConfig())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCodeGenerationExhausted)
}

func TestStore_Get_NotFound(t *testing.T) {
	_, err := NewStore(newMemTemplateRepo()).Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestStore_Retire(t *testing.T) {
	repo := newMemTemplateRepo()
	store := NewStore(repo)

	tmpl, err := store.Create(context.Background(), validConfig())
	require.NoError(t, err)

	require.NoError(t, store.Retire(context.Background(), tmpl.ID))

	got, err := store.Get(context.Background(), tmpl.ID)
	require.NoError(t, err)
	assert.True(t, got.Retired)
}
