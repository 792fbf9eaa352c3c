package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Ledger owns per-user issuances claimed from templates. One-claim-per-
// template-per-user is enforced by the repository's uniqueness constraint,
// not by a prior read, so concurrent claims cannot both succeed.
type Ledger struct {
	templates TemplateRepository
	issuances IssuanceRepository
	now       func() time.Time
}

// NewLedger creates a Ledger backed by the given repositories.
func NewLedger(templates TemplateRepository, issuances IssuanceRepository) *Ledger {
	return &Ledger{templates: templates, issuances: issuances, now: time.Now}
}

// Claim creates an available issuance for the user from the template,
// snapshotting the template expiry. Retired templates are not claimable.
func (l *Ledger) Claim(ctx context.Context, templateID, userID string) (*Issuance, error) {
	t, err := l.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if t.Retired {
		return nil, ErrTemplateNotFound
	}

	now := l.now()
	if now.After(t.ExpiresAt) {
		return nil, ErrTemplateExpired
	}

	i := &Issuance{
		ID:          uuid.New().String(),
		TemplateID:  t.ID,
		OwnerUserID: userID,
		IssuedAt:    now,
		ExpiresAt:   t.ExpiresAt,
		Status:      StatusAvailable,
	}
	if err := l.issuances.Insert(ctx, i); err != nil {
		return nil, errors.Wrapf(err, "claim template %s for user %s", templateID, userID)
	}
	return i, nil
}

// ListForUser returns the user's issuances annotated with their effective
// status. Storage is never mutated: expiry is derived, not written. An empty
// filter returns everything; otherwise only issuances whose effective status
// equals the filter are returned.
func (l *Ledger) ListForUser(ctx context.Context, userID string, filter Status) ([]Issuance, error) {
	items, err := l.issuances.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "list issuances for user %s", userID)
	}

	now := l.now()
	out := make([]Issuance, 0, len(items))
	for _, i := range items {
		i.Status = i.EffectiveStatus(now)
		if filter != "" && i.Status != filter {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

// ListClaimable returns active templates whose scope matches the order and
// that the user has not yet claimed. Read-only.
func (l *Ledger) ListClaimable(ctx context.Context, ord OrderContext) ([]Template, error) {
	active, err := l.templates.ListActive(ctx, l.now())
	if err != nil {
		return nil, errors.Wrap(err, "list active templates")
	}

	claimed, err := l.issuances.ClaimedTemplateIDs(ctx, ord.UserID)
	if err != nil {
		return nil, errors.Wrapf(err, "list claimed templates for user %s", ord.UserID)
	}

	out := make([]Template, 0, len(active))
	for _, t := range active {
		if _, ok := claimed[t.ID]; ok {
			continue
		}
		if !t.Scope.Matches(ord) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
