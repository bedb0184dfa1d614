package gofpdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote/pdf"
)

const (
	nameLimit = 34
	descLimit = 36

	notes  = "Notes:\n- This quote is valid for 30 days.\n- Payment due upon completion of service."
	footer = "Thank you for choosing us."
)

type Generator struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Generator {
	return &Generator{log: log.With().Str("component", "quote_pdf").Logger()}
}

type palette struct {
	fill [3]int
	text [3]int
}

var palettes = map[pdf.Template]palette{
	pdf.TemplateClassic: {fill: [3]int{200, 200, 200}, text: [3]int{0, 0, 0}},
	pdf.TemplateModern:  {fill: [3]int{50, 50, 150}, text: [3]int{255, 255, 255}},
}

func (g *Generator) Generate(ctx context.Context, doc pdf.Document) (pdf.Result, error) {
	if err := ctx.Err(); err != nil {
		return pdf.Result{}, err
	}
	if doc.Number == "" {
		return pdf.Result{}, errors.New("quote pdf: empty quote number")
	}
	if doc.OutputDir == "" {
		doc.OutputDir = "quotes"
	}
	if doc.Company == (quote.Company{}) {
		doc.Company = quote.DefaultCompany()
	}
	if err := os.MkdirAll(doc.OutputDir, 0o755); err != nil {
		return pdf.Result{}, fmt.Errorf("quote pdf: create output dir: %w", err)
	}

	res := pdf.Result{Number: doc.Number}
	totals := quote.ComputeTotals(doc.Lines, doc.TaxRate)
	log := g.log.With().Str("quote_number", doc.Number).Logger()

	f := gofpdf.New("P", "mm", "A4", "")
	f.SetTitle("Quote "+doc.Number, false)
	f.SetAutoPageBreak(true, 15)
	tr := f.UnicodeTranslatorFromDescriptor("")
	f.AddPage()

	// header
	if doc.LogoPath != "" {
		if err := drawImage(f, doc.LogoPath, "", 10, 8, 28); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn().Err(err).Str("logo", doc.LogoPath).Msg("logo skipped")
				res.Omitted = append(res.Omitted, pdf.SectionLogo)
			}
		}
	}
	f.SetFont("Arial", "B", 14)
	f.CellFormat(200, 10, tr(doc.Company.Name), "", 1, "C", false, 0, "")
	f.SetFont("Arial", "", 10)
	f.CellFormat(200, 6, tr(fmt.Sprintf("Email: %s | Phone: %s", doc.Company.Email, doc.Company.Phone)), "", 1, "C", false, 0, "")
	f.Ln(8)

	f.SetFont("Arial", "", 10)
	f.CellFormat(100, 6, "Quote Number: "+doc.Number, "", 0, "L", false, 0, "")
	f.CellFormat(90, 6, "Date: "+doc.Date.Format("02 Jan 2006"), "", 1, "R", false, 0, "")
	f.Ln(3)

	// bill to
	f.SetFont("Arial", "B", 12)
	f.CellFormat(200, 8, "Bill To:", "", 1, "L", false, 0, "")
	f.SetFont("Arial", "", 10)
	f.CellFormat(200, 6, tr(orDash(doc.Customer.Name)), "", 1, "L", false, 0, "")
	f.CellFormat(200, 6, tr("Phone: "+orDash(doc.Customer.Phone)), "", 1, "L", false, 0, "")
	f.MultiCell(200, 6, tr("Address: "+orDash(doc.Customer.Address)), "", "L", false)
	f.Ln(5)

	// table
	p, ok := palettes[doc.Template]
	if !ok {
		p = palettes[pdf.TemplateClassic]
	}
	f.SetFont("Arial", "B", 11)
	f.SetFillColor(p.fill[0], p.fill[1], p.fill[2])
	f.SetTextColor(p.text[0], p.text[1], p.text[2])
	f.CellFormat(10, 8, "QTY", "1", 0, "C", true, 0, "")
	f.CellFormat(60, 8, "Service", "1", 0, "C", true, 0, "")
	f.CellFormat(60, 8, "Description", "1", 0, "C", true, 0, "")
	f.CellFormat(30, 8, "Price", "1", 0, "C", true, 0, "")
	f.CellFormat(30, 8, "Final", "1", 0, "C", true, 0, "")
	f.Ln(-1)
	f.SetTextColor(0, 0, 0)

	f.SetFont("Arial", "", 10)
	for _, l := range doc.Lines {
		f.CellFormat(10, 8, "1", "1", 0, "C", false, 0, "")
		f.CellFormat(60, 8, tr(trim(l.Name, nameLimit)), "1", 0, "", false, 0, "")
		f.CellFormat(60, 8, tr(trim(l.Description, descLimit)), "1", 0, "", false, 0, "")
		f.CellFormat(30, 8, money(l.UnitPrice), "1", 0, "R", false, 0, "")
		f.CellFormat(30, 8, money(quote.LineFinal(l)), "1", 0, "R", false, 0, "")
		f.Ln(-1)
	}

	// totals
	f.SetFont("Arial", "B", 11)
	f.CellFormat(160, 8, "Subtotal (AUD)", "1", 0, "R", false, 0, "")
	f.CellFormat(30, 8, money(totals.Subtotal), "1", 0, "R", false, 0, "")
	f.Ln(-1)
	f.CellFormat(160, 8, fmt.Sprintf("Tax (%s%%)", doc.TaxRate.String()), "1", 0, "R", false, 0, "")
	f.CellFormat(30, 8, money(totals.Tax), "1", 0, "R", false, 0, "")
	f.Ln(-1)
	f.CellFormat(160, 8, "Grand Total (AUD)", "1", 0, "R", false, 0, "")
	f.CellFormat(30, 8, money(totals.Total), "1", 0, "R", false, 0, "")
	f.Ln(8)

	if words, err := AmountInWords(totals.Total); err != nil {
		log.Warn().Err(err).Msg("amount in words skipped")
		res.Omitted = append(res.Omitted, pdf.SectionAmountInWords)
	} else {
		f.SetFont("Arial", "I", 9)
		f.MultiCell(0, 6, "Amount in words: "+capitalize(words), "", "", false)
		f.Ln(2)
	}

	var qrPath string
	if strings.TrimSpace(doc.PaymentURL) != "" {
		qrPath = filepath.Join(doc.OutputDir, doc.Number+"_qr.png")
		if err := g.drawQR(f, qrPath, PaymentLink(doc.PaymentURL, doc.Number, totals.Total)); err != nil {
			log.Warn().Err(err).Msg("qr code skipped")
			res.Omitted = append(res.Omitted, pdf.SectionQRCode)
		}
	}

	f.SetFont("Arial", "", 9)
	f.MultiCell(0, 6, notes, "", "", false)

	f.SetY(-18)
	f.SetFont("Arial", "I", 9)
	f.CellFormat(0, 6, footer, "", 0, "C", false, 0, "")

	out := pdf.FilePath(doc.OutputDir, doc.Number)
	outErr := f.OutputFileAndClose(out)

	if qrPath != "" {
		if err := os.Remove(qrPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", qrPath).Msg("qr cleanup failed")
			res.Omitted = append(res.Omitted, pdf.SectionQRCleanup)
		}
	}
	if outErr != nil {
		log.Error().Err(outErr).Msg("output failed")
		return pdf.Result{}, fmt.Errorf("quote pdf: output: %w", outErr)
	}

	res.Path = out
	res.Totals = totals.Rounded()
	log.Debug().Str("path", out).Int("lines", len(doc.Lines)).Msg("quote written")
	return res, nil
}

func (g *Generator) drawQR(f *gofpdf.Fpdf, path, content string) error {
	if err := qrcode.WriteFile(content, qrcode.Medium, 256, path); err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	y := f.GetY() + 2
	if y > 240 {
		f.AddPage()
		y = 30
	}
	return drawImage(f, path, "PNG", 170, y, 25)
}

// drawImage registers the image first so a broken file does not poison the document.
func drawImage(f *gofpdf.Fpdf, path, imageType string, x, y, w float64) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	f.RegisterImageOptions(path, opts)
	if err := f.Error(); err != nil {
		f.ClearError()
		return err
	}
	f.ImageOptions(path, x, y, w, 0, false, opts, 0, "")
	return nil
}

// PaymentLink appends the quote number and amount to the payment URL.
func PaymentLink(base, number string, total decimal.Decimal) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%squote=%s&amount=%s", strings.TrimSpace(base), sep, number, total.StringFixed(2))
}

func money(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// trim cuts s to at most max runes.
func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
