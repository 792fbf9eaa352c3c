package coupon

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	codeLength      = 8
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts = 5
)

// TemplateConfig is the administrative input for creating a template.
// Code may be empty, in which case a unique one is generated.
type TemplateConfig struct {
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MaxDiscount   *decimal.Decimal
	MinPurchase   decimal.Decimal
	RefundPolicy  RefundPolicy
	ExpiresAt     time.Time
	Scope         Scope
}

// Store owns coupon template definitions.
type Store struct {
	templates TemplateRepository
	now       func() time.Time
}

// NewStore creates a Store backed by the given repository.
func NewStore(templates TemplateRepository) *Store {
	return &Store{templates: templates, now: time.Now}
}

// Create validates the discount configuration and persists a new template.
// When no code is supplied it generates one, retrying on collision under the
// repository's uniqueness constraint up to a bounded attempt count. There is
// no shared counter state: each attempt regenerates and re-inserts.
func (s *Store) Create(ctx context.Context, cfg TemplateConfig) (*Template, error) {
	t := &Template{
		ID:            uuid.New().String(),
		Code:          cfg.Code,
		DiscountType:  cfg.DiscountType,
		DiscountValue: cfg.DiscountValue,
		MaxDiscount:   cfg.MaxDiscount,
		MinPurchase:   cfg.MinPurchase,
		RefundPolicy:  cfg.RefundPolicy,
		ExpiresAt:     cfg.ExpiresAt,
		Scope:         cfg.Scope,
		CreatedAt:     s.now(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if t.Code != "" {
		if err := s.templates.Insert(ctx, t); err != nil {
			return nil, err
		}
		return t, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, errors.Wrap(err, "generate code")
		}
		t.Code = code

		err = s.templates.Insert(ctx, t)
		if err == nil {
			return t, nil
		}
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		return nil, err
	}
	return nil, ErrCodeGenerationExhausted
}

// Get returns the template or ErrTemplateNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Template, error) {
	return s.templates.GetByID(ctx, id)
}

// Retire soft-retires a template. Existing issuances keep redeeming and
// reversing against it; only claim paths stop seeing it.
func (s *Store) Retire(ctx context.Context, id string) error {
	return s.templates.Retire(ctx, id)
}

// generateCode returns a fixed-length uppercase alphanumeric code drawn from
// crypto/rand.
func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
