// Package storage exports search results to PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// DefaultTable is the table listings are written to.
const DefaultTable = "staylens_listings"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Postgres writes listings to a single table, one row per listing id.
type Postgres struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// Option configures a Postgres sink.
type Option func(*Postgres)

// WithTable overrides DefaultTable.
func WithTable(name string) Option {
	return func(p *Postgres) {
		p.table = name
	}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	p := &Postgres{table: DefaultTable, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if !tableName.MatchString(p.table) {
		return nil, stay.Validationf("invalid table name %q", p.table)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	p.db = db
	logger.Debug("connected to postgres", "table", p.table)
	return p, nil
}

func (p *Postgres) schema() string {
	t := pq.QuoteIdentifier(p.table)
	return `
	CREATE TABLE IF NOT EXISTS ` + t + ` (
		listing_id      TEXT PRIMARY KEY,
		search_location TEXT NOT NULL,
		name            TEXT NOT NULL,
		location        TEXT,
		url             TEXT NOT NULL,
		price_per_night NUMERIC(12,2),
		currency        TEXT,
		total_price     NUMERIC(12,2),
		rating          NUMERIC(3,2),
		review_count    INTEGER NOT NULL DEFAULT 0,
		is_superhost    BOOLEAN,
		property_type   TEXT,
		latitude        DOUBLE PRECISION,
		longitude       DOUBLE PRECISION,
		photos          TEXT[] NOT NULL DEFAULT '{}',
		scraped_at      TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS ` + pq.QuoteIdentifier(p.table+"_location_idx") + ` ON ` + t + ` (search_location);
	CREATE INDEX IF NOT EXISTS ` + pq.QuoteIdentifier(p.table+"_price_idx") + ` ON ` + t + ` (price_per_night);
	`
}

func (p *Postgres) upsert() string {
	return `
	INSERT INTO ` + pq.QuoteIdentifier(p.table) + ` (listing_id, search_location, name, location, url,
		price_per_night, currency, total_price, rating, review_count, is_superhost,
		property_type, latitude, longitude, photos, scraped_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (listing_id) DO UPDATE SET
		search_location = EXCLUDED.search_location,
		name = EXCLUDED.name,
		location = EXCLUDED.location,
		url = EXCLUDED.url,
		price_per_night = EXCLUDED.price_per_night,
		currency = EXCLUDED.currency,
		total_price = EXCLUDED.total_price,
		rating = EXCLUDED.rating,
		review_count = EXCLUDED.review_count,
		is_superhost = EXCLUDED.is_superhost,
		property_type = EXCLUDED.property_type,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		photos = EXCLUDED.photos,
		scraped_at = EXCLUDED.scraped_at
	`
}

// EnsureSchema creates the table and its indexes if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, p.schema()); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// SaveListings upserts listings found for location in one transaction
// and returns how many rows were written. A listing without a price is
// stored with a NULL price.
func (p *Postgres) SaveListings(ctx context.Context, location string, listings []stay.Listing) (n int, err error) {
	if len(listings) == 0 {
		return 0, nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, p.upsert())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	at := p.now().UTC()
	for _, l := range listings {
		if _, err = stmt.ExecContext(ctx, listingRow(location, l, at)...); err != nil {
			return 0, fmt.Errorf("failed to store listing %s: %w", l.ID, err)
		}
		n++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	logger.Info("stored listings", "table", p.table, "count", n, "location", location)
	return n, nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// listingRow orders l's columns to match the upsert statement.
func listingRow(location string, l stay.Listing, at time.Time) []any {
	var price sql.NullFloat64
	if l.HasPrice() {
		price = sql.NullFloat64{Float64: l.PricePerNight, Valid: true}
	}
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	return []any{
		l.ID,
		location,
		l.Name,
		nullString(l.Location),
		l.URL,
		price,
		nullString(l.Currency),
		l.TotalPrice,
		stay.NormalizeRating(l.Rating),
		l.ReviewCount,
		l.IsSuperhost,
		l.PropertyType,
		l.Latitude,
		l.Longitude,
		pq.Array(photos),
		at,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
