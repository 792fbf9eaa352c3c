package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fanstack/coupon-engine/internal/domain/coupon"
)

const (
	insertTemplateSQL = `INSERT INTO coupon_templates
		(id, code, discount_type, discount_value, max_discount, min_purchase,
		 refund_policy, expires_at, scope_channel_id, scope_target_type,
		 scope_target_id, retired, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	templateColumns = `id, code, discount_type, discount_value, max_discount,
		min_purchase, refund_policy, expires_at, scope_channel_id,
		scope_target_type, scope_target_id, retired, created_at`

	getTemplateSQL = `SELECT ` + templateColumns + `
		FROM coupon_templates WHERE id = $1`

	listActiveTemplatesSQL = `SELECT ` + templateColumns + `
		FROM coupon_templates
		WHERE retired = FALSE AND expires_at > $1
		ORDER BY created_at DESC`

	retireTemplateSQL = `UPDATE coupon_templates SET retired = TRUE WHERE id = $1`
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

var _ coupon.TemplateRepository = (*TemplateRepository)(nil)

// TemplateRepository implements coupon.TemplateRepository backed by PostgreSQL.
type TemplateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository returns a TemplateRepository that uses the given pool.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// Insert persists a new template. Code uniqueness is enforced by the UNIQUE
// constraint; violations surface as coupon.ErrCodeTaken.
func (r *TemplateRepository) Insert(ctx context.Context, t *coupon.Template) error {
	var maxDiscount decimal.NullDecimal
	if t.MaxDiscount != nil {
		maxDiscount = decimal.NullDecimal{Decimal: *t.MaxDiscount, Valid: true}
	}

	_, err := r.pool.Exec(ctx, insertTemplateSQL,
		t.ID, t.Code, string(t.DiscountType), t.DiscountValue, maxDiscount,
		t.MinPurchase, string(t.RefundPolicy), t.ExpiresAt,
		t.Scope.ChannelID, targetTypeToText(t.Scope.TargetType), t.Scope.TargetID,
		t.Retired, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("inserting template %q: %w", t.ID, err)
	}
	return nil
}

// GetByID returns the template or coupon.ErrTemplateNotFound.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*coupon.Template, error) {
	rows, err := r.pool.Query(ctx, getTemplateSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding template %q: %w", id, err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTemplate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("finding template %q: %w", id, err)
	}
	return &t, nil
}

// ListActive returns non-retired templates expiring after now.
func (r *TemplateRepository) ListActive(ctx context.Context, now time.Time) ([]coupon.Template, error) {
	rows, err := r.pool.Query(ctx, listActiveTemplatesSQL, now)
	if err != nil {
		return nil, fmt.Errorf("listing active templates: %w", err)
	}

	templates, err := pgx.CollectRows(rows, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("listing active templates: %w", err)
	}
	return templates, nil
}

// Retire soft-retires a template.
func (r *TemplateRepository) Retire(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, retireTemplateSQL, id)
	if err != nil {
		return fmt.Errorf("retiring template %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrTemplateNotFound
	}
	return nil
}

func scanTemplate(row pgx.CollectableRow) (coupon.Template, error) {
	var (
		t            coupon.Template
		discountType string
		refundPolicy string
		maxDiscount  decimal.NullDecimal
		targetType   *string
	)
	err := row.Scan(
		&t.ID, &t.Code, &discountType, &t.DiscountValue, &maxDiscount,
		&t.MinPurchase, &refundPolicy, &t.ExpiresAt, &t.Scope.ChannelID,
		&targetType, &t.Scope.TargetID, &t.Retired, &t.CreatedAt,
	)
	if err != nil {
		return coupon.Template{}, err
	}

	t.DiscountType = coupon.DiscountType(discountType)
	t.RefundPolicy = coupon.RefundPolicy(refundPolicy)
	if maxDiscount.Valid {
		t.MaxDiscount = &maxDiscount.Decimal
	}
	if targetType != nil {
		tt := coupon.TargetType(*targetType)
		t.Scope.TargetType = &tt
	}
	return t, nil
}

func targetTypeToText(tt *coupon.TargetType) *string {
	if tt == nil {
		return nil
	}
	s := string(*tt)
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
