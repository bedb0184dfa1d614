package quote

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the format quotes are stored with.
const DateLayout = "2006-01-02 15:04"

type Quote struct {
	Number    string
	CreatedAt time.Time
	Customer  Customer
	Totals    Totals
	PDFPath   string
}

type Customer struct {
	Name    string
	Phone   string
	Address string
}

type Company struct {
	Name  string
	Email string
	Phone string
}

func DefaultCompany() Company {
	return Company{
		Name:  "STAR CAR WASH (MELBOURNE) PTY LTD",
		Email: "info@starcarwash.com.au",
		Phone: "0474456050",
	}
}

// ServiceLine is one priced entry of a quote. Quantity is always one.
type ServiceLine struct {
	Name            string
	Description     string
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Rounded returns the totals at currency precision.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Tax:      t.Tax.Round(2),
		Total:    t.Total.Round(2),
	}
}

// Summary is the listing projection of a stored quote.
type Summary struct {
	Number       string
	Date         string
	CustomerName string
	Total        decimal.Decimal
	PDFPath      string
}

// Store is an append-only log of generated quotes.
type Store interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, q Quote) error
	ListRecent(ctx context.Context, limit int) ([]Summary, error)
	Exists(ctx context.Context, number string) (bool, error)
	// Find returns the most recent quote with the given number.
	Find(ctx context.Context, number string) (Summary, error)
	Close() error
}

var ErrNotFound = errors.New("quote not found")

// DefaultListLimit is used by stores when ListRecent gets a non-positive limit.
const DefaultListLimit = 50
