package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanstack/coupon-engine/internal/domain/coupon"
)

const (
	insertIssuanceSQL = `INSERT INTO coupon_issuances
		(id, template_id, owner_user_id, issued_at, expires_at, status, used_at, redemption_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	issuanceColumns = `id, template_id, owner_user_id, issued_at, expires_at,
		status, used_at, redemption_ref`

	getIssuanceSQL = `SELECT ` + issuanceColumns + `
		FROM coupon_issuances WHERE id = $1`

	getIssuanceByRefSQL = `SELECT ` + issuanceColumns + `
		FROM coupon_issuances WHERE redemption_ref = $1`

	listIssuancesByUserSQL = `SELECT ` + issuanceColumns + `
		FROM coupon_issuances WHERE owner_user_id = $1
		ORDER BY issued_at DESC`

	claimedTemplateIDsSQL = `SELECT template_id
		FROM coupon_issuances WHERE owner_user_id = $1`

	// The status predicates below are the engine's only coordination point:
	// each UPDATE applies exactly when the stored status matches, so of any
	// two racing transitions one observes zero affected rows.
	markRedeemedSQL = `UPDATE coupon_issuances
		SET status = 'redeemed', used_at = $2, redemption_ref = $3
		WHERE id = $1 AND status = 'available'`

	restoreIssuanceSQL = `UPDATE coupon_issuances
		SET status = 'available', used_at = NULL, redemption_ref = NULL
		WHERE id = $1 AND status = 'redeemed'`

	voidIssuanceSQL = `UPDATE coupon_issuances
		SET status = 'void'
		WHERE id = $1 AND status = 'redeemed'`
)

var _ coupon.IssuanceRepository = (*IssuanceRepository)(nil)

// IssuanceRepository implements coupon.IssuanceRepository backed by PostgreSQL.
type IssuanceRepository struct {
	pool *pgxpool.Pool
}

// NewIssuanceRepository returns an IssuanceRepository that uses the given pool.
func NewIssuanceRepository(pool *pgxpool.Pool) *IssuanceRepository {
	return &IssuanceRepository{pool: pool}
}

// Insert persists a new issuance. The UNIQUE(template_id, owner_user_id)
// constraint enforces one claim per template per user; violations surface as
// coupon.ErrAlreadyClaimed regardless of how the race interleaved.
func (r *IssuanceRepository) Insert(ctx context.Context, i *coupon.Issuance) error {
	_, err := r.pool.Exec(ctx, insertIssuanceSQL,
		i.ID, i.TemplateID, i.OwnerUserID, i.IssuedAt, i.ExpiresAt,
		string(i.Status), i.UsedAt, i.RedemptionRef,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrAlreadyClaimed
		}
		return fmt.Errorf("inserting issuance %q: %w", i.ID, err)
	}
	return nil
}

// GetByID returns the issuance or coupon.ErrIssuanceNotFound.
func (r *IssuanceRepository) GetByID(ctx context.Context, id string) (*coupon.Issuance, error) {
	rows, err := r.pool.Query(ctx, getIssuanceSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding issuance %q: %w", id, err)
	}

	i, err := pgx.CollectExactlyOneRow(rows, scanIssuance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrIssuanceNotFound
		}
		return nil, fmt.Errorf("finding issuance %q: %w", id, err)
	}
	return &i, nil
}

// GetByRedemptionRef returns the issuance holding the given redemption
// reference, or coupon.ErrRedemptionNotFound.
func (r *IssuanceRepository) GetByRedemptionRef(ctx context.Context, ref string) (*coupon.Issuance, error) {
	rows, err := r.pool.Query(ctx, getIssuanceByRefSQL, ref)
	if err != nil {
		return nil, fmt.Errorf("finding issuance by ref %q: %w", ref, err)
	}

	i, err := pgx.CollectExactlyOneRow(rows, scanIssuance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrRedemptionNotFound
		}
		return nil, fmt.Errorf("finding issuance by ref %q: %w", ref, err)
	}
	return &i, nil
}

// ListByUser returns all issuances owned by the user, newest first.
func (r *IssuanceRepository) ListByUser(ctx context.Context, userID string) ([]coupon.Issuance, error) {
	rows, err := r.pool.Query(ctx, listIssuancesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing issuances for user %q: %w", userID, err)
	}

	issuances, err := pgx.CollectRows(rows, scanIssuance)
	if err != nil {
		return nil, fmt.Errorf("listing issuances for user %q: %w", userID, err)
	}
	return issuances, nil
}

// ClaimedTemplateIDs returns the set of template ids the user has claimed.
func (r *IssuanceRepository) ClaimedTemplateIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, claimedTemplateIDsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing claimed templates for user %q: %w", userID, err)
	}

	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var id string
		err := row.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing claimed templates for user %q: %w", userID, err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// MarkRedeemed performs the available → redeemed compare-and-swap.
func (r *IssuanceRepository) MarkRedeemed(ctx context.Context, id string, usedAt time.Time, ref string) error {
	tag, err := r.pool.Exec(ctx, markRedeemedSQL, id, usedAt, ref)
	if err != nil {
		return fmt.Errorf("marking issuance %q redeemed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrRedemptionConflict
	}
	return nil
}

// Restore performs the redeemed → available compare-and-swap, clearing the
// usage timestamp and redemption reference.
func (r *IssuanceRepository) Restore(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, restoreIssuanceSQL, id)
	if err != nil {
		return fmt.Errorf("restoring issuance %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotRedeemed
	}
	return nil
}

// Void performs the redeemed → void compare-and-swap, retaining the usage
// timestamp and redemption reference for audit.
func (r *IssuanceRepository) Void(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, voidIssuanceSQL, id)
	if err != nil {
		return fmt.Errorf("voiding issuance %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotRedeemed
	}
	return nil
}

func scanIssuance(row pgx.CollectableRow) (coupon.Issuance, error) {
	var (
		i      coupon.Issuance
		status string
	)
	err := row.Scan(
		&i.ID, &i.TemplateID, &i.OwnerUserID, &i.IssuedAt, &i.ExpiresAt,
		&status, &i.UsedAt, &i.RedemptionRef,
	)
	if err != nil {
		return coupon.Issuance{}, err
	}
	i.Status = coupon.Status(status)
	return i, nil
}
