package coupon

import (
	"context"
	"sync"
	"time"
)

// memTemplateRepo is an in-memory TemplateRepository with the same
// uniqueness semantics as the database-backed one.
type memTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]Template
	codes     map[string]struct{}

	// insertErrs, when non-empty, is popped on each Insert call before the
	// normal path runs. Used to force collision sequences.
	insertErrs []error
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{
		templates: make(map[string]Template),
		codes:     make(map[string]struct{}),
	}
}

func (r *memTemplateRepo) Insert(_ context.Context, t *Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.insertErrs) > 0 {
		err := r.insertErrs[0]
		r.insertErrs = r.insertErrs[1:]
		if err != nil {
			return err
		}
	}

	if _, ok := r.codes[t.Code]; ok {
		return ErrCodeTaken
	}
	r.codes[t.Code] = struct{}{}
	r.templates[t.ID] = *t
	return nil
}

func (r *memTemplateRepo) GetByID(_ context.Context, id string) (*Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return &t, nil
}

func (r *memTemplateRepo) ListActive(_ context.Context, now time.Time) ([]Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Template
	for _, t := range r.templates {
		if !t.Retired && t.ExpiresAt.After(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTemplateRepo) Retire(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.templates[id]
	if !ok {
		return ErrTemplateNotFound
	}
	t.Retired = true
	r.templates[id] = t
	return nil
}

// memIssuanceRepo is an in-memory IssuanceRepository whose conditional
// updates are atomic under a mutex, mirroring the database's
// compare-and-swap semantics so concurrency properties hold in tests.
type memIssuanceRepo struct {
	mu        sync.Mutex
	issuances map[string]Issuance
}

func newMemIssuanceRepo() *memIssuanceRepo {
	return &memIssuanceRepo{issuances: make(map[string]Issuance)}
}

func (r *memIssuanceRepo) Insert(_ context.Context, i *Issuance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.issuances {
		if existing.TemplateID == i.TemplateID && existing.OwnerUserID == i.OwnerUserID {
			return ErrAlreadyClaimed
		}
	}
	r.issuances[i.ID] = *i
	return nil
}

func (r *memIssuanceRepo) GetByID(_ context.Context, id string) (*Issuance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.issuances[id]
	if !ok {
		return nil, ErrIssuanceNotFound
	}
	return &i, nil
}

func (r *memIssuanceRepo) GetByRedemptionRef(_ context.Context, ref string) (*Issuance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, i := range r.issuances {
		if i.RedemptionRef != nil && *i.RedemptionRef == ref {
			return &i, nil
		}
	}
	return nil, ErrRedemptionNotFound
}

func (r *memIssuanceRepo) ListByUser(_ context.Context, userID string) ([]Issuance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Issuance
	for _, i := range r.issuances {
		if i.OwnerUserID == userID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *memIssuanceRepo) ClaimedTemplateIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]struct{})
	for _, i := range r.issuances {
		if i.OwnerUserID == userID {
			out[i.TemplateID] = struct{}{}
		}
	}
	return out, nil
}

func (r *memIssuanceRepo) MarkRedeemed(_ context.Context, id string, usedAt time.Time, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.issuances[id]
	if !ok || i.Status != StatusAvailable {
		return ErrRedemptionConflict
	}
	i.Status = StatusRedeemed
	i.UsedAt = &usedAt
	i.RedemptionRef = &ref
	r.issuances[id] = i
	return nil
}

func (r *memIssuanceRepo) Restore(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.issuances[id]
	if !ok || i.Status != StatusRedeemed {
		return ErrNotRedeemed
	}
	i.Status = StatusAvailable
	i.UsedAt = nil
	i.RedemptionRef = nil
	r.issuances[id] = i
	return nil
}

func (r *memIssuanceRepo) Void(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.issuances[id]
	if !ok || i.Status != StatusRedeemed {
		return ErrNotRedeemed
	}
	i.Status = StatusVoid
	r.issuances[id] = i
	return nil
}
