package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ttokjang/backend/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS product_norm (
  product_norm_key TEXT PRIMARY KEY,
  normalized_name  TEXT NOT NULL,
  brand            TEXT,
  size_value       REAL,
  size_unit        TEXT,
  size_display     TEXT,
  category         TEXT,
  aliases_json     TEXT,
  updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_product_norm_name ON product_norm(normalized_name);
`

const selectColumns = `SELECT product_norm_key, normalized_name, brand, size_value, size_unit, size_display, category, aliases_json, updated_at FROM product_norm`

// Store is the SQLite-backed product catalog
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
// ":memory:" gives a private in-memory catalog.
func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = "file::memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Search returns products whose name or aliases contain pattern
func (s *Store) Search(ctx context.Context, pattern string, limit int) ([]domain.Product, error) {
	like := "%" + pattern + "%"
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE normalized_name LIKE ? OR aliases_json LIKE ? ORDER BY normalized_name, product_norm_key LIMIT ?`,
		like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return scanProducts(rows)
}

// All returns up to limit products ordered by name
func (s *Store) All(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY normalized_name, product_norm_key LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return scanProducts(rows)
}

// Count returns the number of catalog products
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM product_norm`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return n, nil
}

// Upsert inserts products or replaces existing rows with the same key, in one transaction
func (s *Store) Upsert(ctx context.Context, products []domain.Product) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO product_norm(product_norm_key, normalized_name, brand, size_value, size_unit, size_display, category, aliases_json, updated_at)
VALUES(?,?,?,?,?,?,?,?,?)
ON CONFLICT(product_norm_key) DO UPDATE SET
  normalized_name = excluded.normalized_name,
  brand           = excluded.brand,
  size_value      = excluded.size_value,
  size_unit       = excluded.size_unit,
  size_display    = excluded.size_display,
  category        = excluded.category,
  aliases_json    = excluded.aliases_json,
  updated_at      = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range products {
		if p.ProductNormKey == "" || p.NormalizedName == "" {
			err = fmt.Errorf("%w: product needs key and name (%q)", domain.ErrInvalidRequest, p.ProductNormKey)
			return err
		}

		var aliases sql.NullString
		if len(p.Aliases) > 0 {
			var raw []byte
			raw, err = json.Marshal(p.Aliases)
			if err != nil {
				return err
			}
			aliases = sql.NullString{String: string(raw), Valid: true}
		}

		updated := p.UpdatedAt
		if updated.IsZero() {
			updated = now
		}

		var sizeValue sql.NullFloat64
		if p.SizeValue > 0 {
			sizeValue = sql.NullFloat64{Float64: p.SizeValue, Valid: true}
		}

		if _, err = stmt.ExecContext(ctx,
			p.ProductNormKey, p.NormalizedName, nullIfEmpty(p.Brand), sizeValue,
			nullIfEmpty(p.SizeUnit), nullIfEmpty(p.SizeDisplay), nullIfEmpty(p.Category),
			aliases, updated.UTC().Format(time.RFC3339),
		); err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var (
			p                                       domain.Product
			brand, unit, display, category, aliases sql.NullString
			sizeValue                               sql.NullFloat64
			updated                                 sql.NullString
		)
		if err := rows.Scan(&p.ProductNormKey, &p.NormalizedName, &brand, &sizeValue, &unit, &display, &category, &aliases, &updated); err != nil {
			return nil, err
		}
		p.Brand = brand.String
		p.SizeValue = sizeValue.Float64
		p.SizeUnit = unit.String
		p.SizeDisplay = display.String
		p.Category = category.String
		p.Aliases = parseAliases(aliases.String)
		p.UpdatedAt = parseTime(updated.String)
		out = append(out, p)
	}
	return out, rows.Err()
}

// parseAliases decodes aliases_json, ignoring malformed values and non-string entries
func parseAliases(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []interface{}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	var out []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func parseTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
