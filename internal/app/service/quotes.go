// Package service runs the price, render and persist pipeline shared by the
// manual and the lookup-driven quote flows.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote/pdf"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/mail"
)

var (
	ErrNoLines         = errors.New("please add at least one service")
	ErrNoMatch         = errors.New("no matching service found")
	ErrArtifactMissing = errors.New("quote pdf is missing")
	ErrLogoType        = errors.New("logo must be png, jpg or jpeg")
)

// maxNumberAttempts bounds re-rolls when a freshly issued number is already stored.
const maxNumberAttempts = 5

type Lookup interface {
	FindBestService(ctx context.Context, query string) (quote.ServiceLine, bool)
}

type Mailer interface {
	SendWithAttachment(ctx context.Context, p mail.Params, m mail.Message) error
}

// Defaults are applied to requests that leave the matching field empty.
type Defaults struct {
	Company    quote.Company
	TaxRate    decimal.Decimal
	Template   pdf.Template
	PaymentURL string
	LogoPath   string
	OutputDir  string
}

type Service struct {
	mu       sync.Mutex
	store    quote.Store
	gen      pdf.Generator
	numbers  *quote.NumberGenerator
	lookup   Lookup
	mailer   Mailer
	defaults Defaults
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithNumbers(g *quote.NumberGenerator) Option { return func(s *Service) { s.numbers = g } }

func New(store quote.Store, gen pdf.Generator, lookup Lookup, mailer Mailer, defaults Defaults, log zerolog.Logger, opts ...Option) *Service {
	if defaults.Company == (quote.Company{}) {
		defaults.Company = quote.DefaultCompany()
	}
	if defaults.Template == "" {
		defaults.Template = pdf.TemplateClassic
	}
	if defaults.OutputDir == "" {
		defaults.OutputDir = "quotes"
	}
	s := &Service{
		store:    store,
		gen:      gen,
		numbers:  quote.NewNumberGenerator(),
		lookup:   lookup,
		mailer:   mailer,
		defaults: defaults,
		now:      time.Now,
		log:      log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Request carries one quote. Zero values in the optional fields fall back to Defaults.
type Request struct {
	Customer   quote.Customer
	Company    quote.Company
	Lines      []quote.ServiceLine
	TaxRate    *decimal.Decimal
	Template   pdf.Template
	PaymentURL string
}

type Outcome struct {
	Quote   quote.Quote
	Lines   []quote.ServiceLine
	Omitted []pdf.Section
}

// Create prices, renders and records a quote built from explicit lines.
func (s *Service) Create(ctx context.Context, req Request) (Outcome, error) {
	if len(req.Lines) == 0 {
		return Outcome{}, ErrNoLines
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(ctx, req)
}

// CreateFromQuery resolves the query against the catalog and quotes the
// single best match.
func (s *Service) CreateFromQuery(ctx context.Context, req Request, query string) (Outcome, error) {
	if s.lookup == nil {
		return Outcome{}, ErrNoMatch
	}
	line, ok := s.lookup.FindBestService(ctx, query)
	if !ok {
		return Outcome{}, ErrNoMatch
	}
	req.Lines = []quote.ServiceLine{line}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(ctx, req)
}

func (s *Service) create(ctx context.Context, req Request) (Outcome, error) {
	number, err := s.nextNumber(ctx)
	if err != nil {
		return Outcome{}, err
	}

	doc := s.document(req, number)
	res, err := s.gen.Generate(ctx, doc)
	if err != nil {
		return Outcome{}, fmt.Errorf("generate pdf: %w", err)
	}

	q := quote.Quote{
		Number:    number,
		CreatedAt: doc.Date,
		Customer:  req.Customer,
		Totals:    res.Totals,
		PDFPath:   res.Path,
	}
	if err := s.store.Append(ctx, q); err != nil {
		return Outcome{}, fmt.Errorf("save quote: %w", err)
	}

	ev := s.log.Info().Str("quote_number", number).Str("total", res.Totals.Total.StringFixed(2))
	if res.Partial() {
		ev = ev.Interface("omitted", res.Omitted)
	}
	ev.Msg("quote generated")

	return Outcome{Quote: q, Lines: doc.Lines, Omitted: res.Omitted}, nil
}

func (s *Service) document(req Request, number string) pdf.Document {
	d := s.defaults
	doc := pdf.Document{
		Number:     number,
		Date:       s.now(),
		Customer:   req.Customer,
		Company:    d.Company,
		Lines:      req.Lines,
		TaxRate:    d.TaxRate,
		Template:   d.Template,
		LogoPath:   d.LogoPath,
		PaymentURL: d.PaymentURL,
		OutputDir:  d.OutputDir,
	}
	if req.Company.Name != "" {
		doc.Company.Name = req.Company.Name
	}
	if req.Company.Email != "" {
		doc.Company.Email = req.Company.Email
	}
	if req.Company.Phone != "" {
		doc.Company.Phone = req.Company.Phone
	}
	if req.TaxRate != nil {
		doc.TaxRate = *req.TaxRate
	}
	if req.Template != "" {
		doc.Template = req.Template
	}
	if req.PaymentURL != "" {
		doc.PaymentURL = req.PaymentURL
	}
	return doc
}

// nextNumber re-rolls a few times on collision and then accepts the last
// candidate, matching the store's tolerance of duplicate numbers.
func (s *Service) nextNumber(ctx context.Context) (string, error) {
	var number string
	for i := 0; i < maxNumberAttempts; i++ {
		number = s.numbers.Next()
		exists, err := s.store.Exists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("check quote number: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	s.log.Warn().Str("quote_number", number).Msg("quote number collides with an existing quote")
	return number, nil
}

// FindService exposes the catalog lookup without creating a quote.
func (s *Service) FindService(ctx context.Context, query string) (quote.ServiceLine, bool) {
	if s.lookup == nil {
		return quote.ServiceLine{}, false
	}
	return s.lookup.FindBestService(ctx, query)
}

// Preview is the subtotal before tax.
func (s *Service) Preview(lines []quote.ServiceLine) decimal.Decimal {
	return quote.Subtotal(lines)
}

func (s *Service) Recent(ctx context.Context, limit int) ([]quote.Summary, error) {
	return s.store.ListRecent(ctx, limit)
}

// Artifact returns the stored quote and checks its PDF is still on disk.
func (s *Service) Artifact(ctx context.Context, number string) (quote.Summary, error) {
	sum, err := s.store.Find(ctx, number)
	if err != nil {
		return quote.Summary{}, err
	}
	if sum.PDFPath == "" {
		return sum, ErrArtifactMissing
	}
	if _, err := os.Stat(sum.PDFPath); err != nil {
		return sum, ErrArtifactMissing
	}
	return sum, nil
}

// Email sends the stored PDF of a quote.
func (s *Service) Email(ctx context.Context, number string, p mail.Params, m mail.Message) error {
	sum, err := s.store.Find(ctx, number)
	if err != nil {
		return err
	}
	m.AttachmentPath = sum.PDFPath
	if err := s.mailer.SendWithAttachment(ctx, p, m); err != nil {
		return err
	}
	s.log.Info().Str("quote_number", number).Str("to", m.To).Msg("quote emailed")
	return nil
}

// SaveLogo replaces the logo used on subsequent quotes. The file keeps the
// uploaded extension so the renderer can detect the image type.
func (s *Service) SaveLogo(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		return "", ErrLogoType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.defaults.LogoPath
	if base == "" {
		base = "logo.png"
	}
	path := strings.TrimSuffix(base, filepath.Ext(base)) + ext
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	s.defaults.LogoPath = path
	s.log.Info().Str("logo", path).Msg("logo updated")
	return path, nil
}

func (s *Service) LogoPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults.LogoPath
}
