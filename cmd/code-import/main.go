// Command code-import bulk-creates coupon templates from gzip-compressed
// code lists (one code per line), e.g. codes pre-allocated by a partner
// campaign. Files are streamed concurrently; a bloom filter keeps already
// seen codes from being re-attempted across files before the database's
// uniqueness constraint has the final word.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fanstack/coupon-engine/internal/domain/coupon"
	"github.com/fanstack/coupon-engine/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
	minCodeLen    = 8
	maxCodeLen    = 10
)

func main() {
	var (
		databaseURL  string
		discountRate int64
		validDays    int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Int64Var(&discountRate, "rate", 10, "discount rate percent applied to imported codes")
	flag.IntVar(&validDays, "valid-days", 90, "days until imported templates expire")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("at least one .gz code file is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args(), discountRate, validDays); err != nil {
		slog.Error("code import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("code import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, rate int64, validDays int) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	store := coupon.NewStore(postgres.NewTemplateRepository(pool))
	cfg := coupon.TemplateConfig{
		DiscountType:  coupon.DiscountRate,
		DiscountValue: decimal.NewFromInt(rate),
		RefundPolicy:  coupon.RefundRestore,
		ExpiresAt:     time.Now().AddDate(0, 0, validDays),
	}

	imp := &importer{
		store:  store,
		cfg:    cfg,
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(imp.importFile(ctx, f))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("import summary",
		slog.Uint64("created", imp.created),
		slog.Uint64("skipped", imp.skipped),
	)
	return nil
}

// importer creates one template per unseen, well-formed code. The bloom
// filter is a cheap cross-file dedup; a false positive only skips a code,
// and true duplicates that slip past it are caught by the code UNIQUE
// constraint and counted as skipped.
type importer struct {
	store *coupon.Store
	cfg   coupon.TemplateConfig

	mu      sync.Mutex
	filter  *bloom.BloomFilter
	created uint64
	skipped uint64
}

func (imp *importer) importFile(ctx context.Context, path string) func() error {
	return func() error {
		var count uint64
		err := streamGzFile(ctx, path, func(code string) error {
			count++
			if count%progressEvery == 0 {
				slog.Info("progress", slog.String("file", path), slog.Uint64("codes", count))
			}
			return imp.importCode(ctx, code)
		})
		if err != nil {
			return errors.Wrapf(err, "import %s", path)
		}

		slog.Info("file complete", slog.String("file", path), slog.Uint64("codes", count))
		return nil
	}
}

func (imp *importer) importCode(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return nil
	}

	imp.mu.Lock()
	seen := imp.filter.TestOrAddString(code)
	imp.mu.Unlock()
	if seen {
		imp.addSkipped()
		return nil
	}

	cfg := imp.cfg
	cfg.Code = code
	_, err := imp.store.Create(ctx, cfg)
	switch {
	case err == nil:
		imp.addCreated()
		return nil
	case errors.Is(err, coupon.ErrCodeTaken):
		imp.addSkipped()
		return nil
	default:
		return errors.Wrapf(err, "create template for code %s", code)
	}
}

func (imp *importer) addCreated() {
	imp.mu.Lock()
	imp.created++
	imp.mu.Unlock()
}

func (imp *importer) addSkipped() {
	imp.mu.Lock()
	imp.skipped++
	imp.mu.Unlock()
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
