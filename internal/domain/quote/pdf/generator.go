package pdf

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote"
)

type Generator interface {
	Generate(ctx context.Context, doc Document) (Result, error)
}

type Template string

const (
	TemplateClassic Template = "classic"
	TemplateModern  Template = "modern"
)

// ParseTemplate maps a user supplied name to a template, defaulting to classic.
func ParseTemplate(s string) Template {
	if Template(strings.ToLower(strings.TrimSpace(s))) == TemplateModern {
		return TemplateModern
	}
	return TemplateClassic
}

// Section names an optional part of the document that may be left out.
type Section string

const (
	SectionLogo          Section = "logo"
	SectionAmountInWords Section = "amount_in_words"
	SectionQRCode        Section = "qr_code"
	SectionQRCleanup     Section = "qr_cleanup"
)

type Document struct {
	Number     string
	Date       time.Time
	Customer   quote.Customer
	Company    quote.Company
	Lines      []quote.ServiceLine
	TaxRate    decimal.Decimal
	Template   Template
	LogoPath   string
	PaymentURL string
	OutputDir  string
}

// Result describes a written quote. Omitted lists optional sections that
// failed and were skipped; the file is still complete without them.
type Result struct {
	Path    string
	Number  string
	Totals  quote.Totals
	Omitted []Section
}

func (r Result) Partial() bool { return len(r.Omitted) > 0 }

func FileName(number string) string {
	return "quote_" + number + ".pdf"
}

func FilePath(dir, number string) string {
	return filepath.Join(dir, FileName(number))
}
