package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote"
)

// Store is the PostgreSQL variant of the quote log. It mirrors the SQLite
// schema so the two are interchangeable.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quotes (
			id BIGSERIAL PRIMARY KEY,
			quote_number TEXT,
			date TEXT,
			customer_name TEXT,
			phone TEXT,
			address TEXT,
			subtotal DOUBLE PRECISION,
			tax DOUBLE PRECISION,
			total DOUBLE PRECISION,
			pdf_path TEXT
		)`)
	if err != nil {
		return fmt.Errorf("creating quotes table: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, q quote.Quote) error {
	created := q.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	t := q.Totals.Rounded()
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO quotes (quote_number, date, customer_name, phone, address, subtotal, tax, total, pdf_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.Number,
		created.Format(quote.DateLayout),
		q.Customer.Name,
		q.Customer.Phone,
		q.Customer.Address,
		t.Subtotal.InexactFloat64(),
		t.Tax.InexactFloat64(),
		t.Total.InexactFloat64(),
		q.PDFPath,
	)
	if err != nil {
		return fmt.Errorf("inserting quote: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]quote.Summary, error) {
	if limit <= 0 {
		limit = quote.DefaultListLimit
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT quote_number, date, customer_name, total, pdf_path
		FROM quotes ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	var out []quote.Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Store) Exists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM quotes WHERE quote_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking quote number: %w", err)
	}
	return exists, nil
}

func (s *Store) Find(ctx context.Context, number string) (quote.Summary, error) {
	row := s.db.Pool.QueryRow(ctx, `
		SELECT quote_number, date, customer_name, total, pdf_path
		FROM quotes WHERE quote_number = $1 ORDER BY id DESC LIMIT 1`, number)
	sum, err := scanSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return quote.Summary{}, quote.ErrNotFound
	}
	return sum, err
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func scanSummary(r pgx.Row) (quote.Summary, error) {
	var (
		number, date, name, path *string
		total                    *float64
	)
	if err := r.Scan(&number, &date, &name, &total, &path); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return quote.Summary{}, err
		}
		return quote.Summary{}, fmt.Errorf("scanning quote: %w", err)
	}
	sum := quote.Summary{
		Number:       deref(number),
		Date:         deref(date),
		CustomerName: deref(name),
		PDFPath:      deref(path),
	}
	if total != nil {
		sum.Total = decimal.NewFromFloat(*total).Round(2)
	}
	return sum, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
