package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/service"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote/pdf"
)

type customerPayload struct {
	Name    string `json:"name" validate:"max=120"`
	Phone   string `json:"phone" validate:"max=40"`
	Address string `json:"address" validate:"max=300"`
}

type companyPayload struct {
	Name  string `json:"name" validate:"max=120"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=40"`
}

type linePayload struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Description     string  `json:"description" validate:"max=500"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
}

// QuoteOptions are the per-request overrides shared by both quote flows.
type QuoteOptions struct {
	Customer   customerPayload `json:"customer"`
	Company    companyPayload  `json:"company"`
	TaxRate    *float64        `json:"tax_rate" validate:"omitempty,gte=0,lte=28"`
	Template   string          `json:"template" validate:"omitempty,oneof=classic modern"`
	PaymentURL string          `json:"payment_url" validate:"omitempty,url"`
}

type CreateQuoteRequest struct {
	QuoteOptions
	Lines []linePayload `json:"lines" validate:"required,min=1,max=10,dive"`
}

type CreateQuoteFromQueryRequest struct {
	QuoteOptions
	Query string `json:"query" validate:"required,max=500"`
}

type PreviewRequest struct {
	Lines []linePayload `json:"lines" validate:"max=10,dive"`
}

type lineResponse struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	UnitPrice       string `json:"unit_price"`
	DiscountPercent string `json:"discount_percent"`
	Final           string `json:"final"`
}

type quoteResponse struct {
	Number   string         `json:"number"`
	Date     string         `json:"date"`
	Customer string         `json:"customer_name"`
	Subtotal string         `json:"subtotal"`
	Tax      string         `json:"tax"`
	Total    string         `json:"total"`
	PDFURL   string         `json:"pdf_url"`
	Lines    []lineResponse `json:"lines"`
	Omitted  []pdf.Section  `json:"omitted,omitempty"`
}

func (o QuoteOptions) request() service.Request {
	req := service.Request{
		Customer: quote.Customer{
			Name:    o.Customer.Name,
			Phone:   o.Customer.Phone,
			Address: o.Customer.Address,
		},
		Company: quote.Company{
			Name:  o.Company.Name,
			Email: o.Company.Email,
			Phone: o.Company.Phone,
		},
		PaymentURL: o.PaymentURL,
	}
	if o.TaxRate != nil {
		rate := decimal.NewFromFloat(*o.TaxRate)
		req.TaxRate = &rate
	}
	if o.Template != "" {
		req.Template = pdf.ParseTemplate(o.Template)
	}
	return req
}

func toLines(in []linePayload) []quote.ServiceLine {
	out := make([]quote.ServiceLine, 0, len(in))
	for _, l := range in {
		out = append(out, quote.ServiceLine{
			Name:            l.Name,
			Description:     l.Description,
			UnitPrice:       decimal.NewFromFloat(l.UnitPrice),
			DiscountPercent: decimal.NewFromFloat(l.DiscountPercent),
		})
	}
	return out
}

func lineView(l quote.ServiceLine) lineResponse {
	return lineResponse{
		Name:            l.Name,
		Description:     l.Description,
		UnitPrice:       l.UnitPrice.StringFixed(2),
		DiscountPercent: l.DiscountPercent.String(),
		Final:           quote.LineFinal(l).StringFixed(2),
	}
}

func outcomeView(out service.Outcome) quoteResponse {
	t := out.Quote.Totals.Rounded()
	resp := quoteResponse{
		Number:   out.Quote.Number,
		Date:     out.Quote.CreatedAt.Format(quote.DateLayout),
		Customer: out.Quote.Customer.Name,
		Subtotal: t.Subtotal.StringFixed(2),
		Tax:      t.Tax.StringFixed(2),
		Total:    t.Total.StringFixed(2),
		PDFURL:   "/v1/quotes/" + out.Quote.Number + "/pdf",
		Omitted:  out.Omitted,
	}
	for _, l := range out.Lines {
		resp.Lines = append(resp.Lines, lineView(l))
	}
	return resp
}

func (h *Handlers) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	sreq := req.request()
	sreq.Lines = toLines(req.Lines)
	out, err := h.Svc.Create(r.Context(), sreq)
	if err != nil {
		h.createFailed(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, outcomeView(out))
}

func (h *Handlers) CreateQuoteFromQuery(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteFromQueryRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.Svc.CreateFromQuery(r.Context(), req.request(), req.Query)
	if err != nil {
		h.createFailed(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, outcomeView(out))
}

func (h *Handlers) createFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoLines):
		writeError(w, http.StatusBadRequest, "no_lines", err.Error(), nil)
	case errors.Is(err, service.ErrNoMatch):
		writeError(w, http.StatusNotFound, "no_match", err.Error(), nil)
	default:
		h.Log.Error().Err(err).Msg("quote generation failed")
		writeError(w, http.StatusInternalServerError, "generation_failed", "quote generation failed", nil)
	}
}

// PreviewQuote returns the estimated subtotal before tax.
func (h *Handlers) PreviewQuote(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	lines := toLines(req.Lines)
	resp := struct {
		Subtotal string         `json:"subtotal"`
		Lines    []lineResponse `json:"lines"`
	}{Subtotal: h.Svc.Preview(lines).StringFixed(2), Lines: []lineResponse{}}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, lineView(l))
	}
	writeJSON(w, http.StatusOK, resp)
}
