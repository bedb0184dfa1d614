// Package sqlite keeps quotes and cached embeddings in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote"
)

const DefaultPath = "quotes/quotes.db"

type Store struct {
	db   *sql.DB
	path string
}

// New opens the database file, creating its directory if needed. Call Init
// before use.
func New(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer, one file
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path}, nil
}

// Init creates the quotes table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS quotes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			quote_number TEXT,
			date TEXT,
			customer_name TEXT,
			phone TEXT,
			address TEXT,
			subtotal REAL,
			tax REAL,
			total REAL,
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (quote_number, date, customer_name, phone, address, subtotal, tax, total, pdf_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT quote_number, date, customer_name, total, pdf_path
		FROM quotes ORDER BY id DESC LIMIT ?`, limit)
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
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM quotes WHERE quote_number = ?)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking quote number: %w", err)
	}
	return exists, nil
}

func (s *Store) Find(ctx context.Context, number string) (quote.Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT quote_number, date, customer_name, total, pdf_path
		FROM quotes WHERE quote_number = ? ORDER BY id DESC LIMIT 1`, number)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return quote.Summary{}, quote.ErrNotFound
	}
	return sum, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(r scanner) (quote.Summary, error) {
	var (
		number, date, name, path sql.NullString
		total                    sql.NullFloat64
	)
	if err := r.Scan(&number, &date, &name, &total, &path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quote.Summary{}, err
		}
		return quote.Summary{}, fmt.Errorf("scanning quote: %w", err)
	}
	return quote.Summary{
		Number:       number.String,
		Date:         date.String,
		CustomerName: name.String,
		Total:        decimal.NewFromFloat(total.Float64).Round(2),
		PDFPath:      path.String,
	}, nil
}
