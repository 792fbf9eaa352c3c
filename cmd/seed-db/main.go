package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fanstack/coupon-engine/db"
	"github.com/fanstack/coupon-engine/internal/domain/coupon"
	"github.com/fanstack/coupon-engine/internal/storage/postgres"
)

type templateJSON struct {
	Code            string             `json:"code"`
	DiscountType    string             `json:"discountType"`
	DiscountValue   decimal.Decimal    `json:"discountValue"`
	MaxDiscount     *decimal.Decimal   `json:"maxDiscount,omitempty"`
	MinPurchase     decimal.Decimal    `json:"minPurchase"`
	RefundPolicy    string             `json:"refundPolicy"`
	ExpiresAt       time.Time          `json:"expiresAt"`
	ScopeChannelID  *string            `json:"scopeChannelId,omitempty"`
	ScopeTargetType *coupon.TargetType `json:"scopeTargetType,omitempty"`
	ScopeTargetID   *string            `json:"scopeTargetId,omitempty"`
}

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or COUPON_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or COUPON_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("COUPON_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("COUPON_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seeding completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, apiKeyPepper string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if apiKey != "" {
		if err := seedAPIKey(ctx, pool, apiKey, apiKeyPepper); err != nil {
			return errors.Wrap(err, "seed api key")
		}
	}

	return seedTemplates(ctx, postgres.NewTemplateRepository(pool))
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, key, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	hash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx,
		`INSERT INTO api_keys (id, key_hash, name, scopes)
		 VALUES ($1, $2, 'admin', '{templates:write}')
		 ON CONFLICT (key_hash) DO NOTHING`,
		uuid.New().String(), hash,
	)
	return err
}

func seedTemplates(ctx context.Context, repo coupon.TemplateRepository) error {
	var templates []templateJSON
	if err := json.Unmarshal(db.SeedTemplates, &templates); err != nil {
		return errors.Wrap(err, "parse seed templates")
	}

	store := coupon.NewStore(repo)
	for _, t := range templates {
		_, err := store.Create(ctx, coupon.TemplateConfig{
			Code:          t.Code,
			DiscountType:  coupon.DiscountType(t.DiscountType),
			DiscountValue: t.DiscountValue,
			MaxDiscount:   t.MaxDiscount,
			MinPurchase:   t.MinPurchase,
			RefundPolicy:  coupon.RefundPolicy(t.RefundPolicy),
			ExpiresAt:     t.ExpiresAt,
			Scope: coupon.Scope{
				ChannelID:  t.ScopeChannelID,
				TargetType: t.ScopeTargetType,
				TargetID:   t.ScopeTargetID,
			},
		})
		switch {
		case err == nil:
			slog.Info("seeded template", slog.String("code", t.Code))
		case errors.Is(err, coupon.ErrCodeTaken):
			slog.Info("template already seeded", slog.String("code", t.Code))
		default:
			return errors.Wrapf(err, "seed template %s", t.Code)
		}
	}
	return nil
}
