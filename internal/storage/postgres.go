package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS events (
	content_hash        TEXT PRIMARY KEY,
	title               TEXT NOT NULL,
	event_date          TIMESTAMPTZ,
	venue               TEXT,
	address             TEXT,
	city                TEXT,
	state               TEXT,
	image_url           TEXT,
	image_alt           TEXT,
	price_min           NUMERIC,
	price_max           NUMERIC,
	currency            TEXT,
	is_free             BOOLEAN NOT NULL DEFAULT FALSE,
	description         TEXT,
	organizer           TEXT,
	url                 TEXT,
	category            TEXT NOT NULL,
	category_confidence DOUBLE PRECISION NOT NULL,
	tags                TEXT[] NOT NULL DEFAULT '{}',
	quality_score       DOUBLE PRECISION NOT NULL,
	source              TEXT NOT NULL,
	scraped_at          TIMESTAMPTZ NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS events_source_date_idx ON events (source, event_date);
`

const insertSQL = `
INSERT INTO events (
	content_hash, title, event_date, venue, address, city, state,
	image_url, image_alt, price_min, price_max, currency, is_free,
	description, organizer, url, category, category_confidence, tags,
	quality_score, source, scraped_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
	$14, $15, $16, $17, $18, $19, $20, $21, $22
)
ON CONFLICT (content_hash) DO NOTHING`

// Execer is the slice of pgx the sink needs. *pgxpool.Pool, *pgx.Conn and
// pgx.Tx all satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink only reports outcomes; the caller records them.
type PostgresSink struct {
	db      Execer
	closeFn func()
}

func NewPostgresSink(db Execer) *PostgresSink {
	return &PostgresSink{db: db, closeFn: func() {}}
}

// OpenPostgres connects a pool to dsn and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSink, failure.ClassifiedError) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &StorageError{Message: err.Error(), Cause: ErrCauseInvalidDSN, Err: err}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &StorageError{Message: err.Error(), Retryable: true, Cause: ErrCauseConnectFailed, Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &StorageError{Message: err.Error(), Retryable: true, Cause: ErrCauseConnectFailed, Err: err}
	}
	return &PostgresSink{db: pool, closeFn: pool.Close}, nil
}

func (s *PostgresSink) EnsureSchema(ctx context.Context) failure.ClassifiedError {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return &StorageError{Message: err.Error(), Retryable: retryablePgError(err), Cause: ErrCauseSchemaFailed, Err: err}
	}
	return nil
}

func (s *PostgresSink) Upsert(ctx context.Context, event processor.Event) (Outcome, failure.ClassifiedError) {
	tag, err := s.db.Exec(ctx, insertSQL, insertArgs(event)...)
	if err != nil {
		return "", &StorageError{
			Message:   err.Error(),
			Retryable: retryablePgError(err),
			Cause:     ErrCauseWriteFailure,
			Err:       err,
		}
	}

	if tag.RowsAffected() == 0 {
		return OutcomeDuplicate, nil
	}
	return OutcomeInserted, nil
}

func (s *PostgresSink) Close() error {
	s.closeFn()
	return nil
}

func insertArgs(e processor.Event) []any {
	var imageURL, imageAlt *string
	if e.Image != nil {
		imageURL, imageAlt = &e.Image.URL, &e.Image.Alt
	}
	var priceMin, priceMax *float64
	var currency *string
	isFree := false
	if e.Price != nil {
		priceMin, priceMax, currency = &e.Price.Min, &e.Price.Max, &e.Price.Currency
		isFree = e.Price.IsFree
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		e.ContentHash, e.Title, e.Date, e.Location.Venue, e.Location.Address, e.Location.City, e.Location.State,
		imageURL, imageAlt, priceMin, priceMax, currency, isFree,
		e.Description, e.Organizer, e.URL, e.Category, e.CategoryConfidence, tags,
		e.QualityScore, e.Source, e.ScrapedAt,
	}
}

var _ Execer = (*pgxpool.Pool)(nil)
var _ Execer = (pgx.Tx)(nil)
