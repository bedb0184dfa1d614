package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/service"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/mail"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	maxLogoBytes     = 5 << 20
)

type summaryResponse struct {
	Number       string `json:"number"`
	Date         string `json:"date"`
	CustomerName string `json:"customer_name"`
	Total        string `json:"total"`
	PDFURL       string `json:"pdf_url"`
}

func (h *Handlers) ListQuotes(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxListLimit)
	}

	rows, err := h.Svc.Recent(r.Context(), limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("list quotes")
		writeError(w, http.StatusInternalServerError, "internal", "could not load quotes", nil)
		return
	}
	out := make([]summaryResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, summaryResponse{
			Number:       s.Number,
			Date:         s.Date,
			CustomerName: s.CustomerName,
			Total:        s.Total.StringFixed(2),
			PDFURL:       "/v1/quotes/" + s.Number + "/pdf",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": out})
}

func (h *Handlers) DownloadQuote(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if !quote.ValidNumber(number) {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid quote number", nil)
		return
	}

	sum, err := h.Svc.Artifact(r.Context(), number)
	switch {
	case errors.Is(err, quote.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
		return
	case errors.Is(err, service.ErrArtifactMissing):
		writeError(w, http.StatusNotFound, "missing_file", "missing file", nil)
		return
	case err != nil:
		h.Log.Error().Err(err).Str("quote_number", number).Msg("find quote")
		writeError(w, http.StatusInternalServerError, "internal", "could not load quote", nil)
		return
	}

	f, err := os.Open(sum.PDFPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "missing_file", "missing file", nil)
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusNotFound, "missing_file", "missing file", nil)
		return
	}

	name := filepath.Base(sum.PDFPath)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, st.ModTime(), f)
}

type EmailQuoteRequest struct {
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port" validate:"omitempty,gte=1,lte=65535"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	From         string `json:"from" validate:"omitempty,email"`
	To           string `json:"to" validate:"required,email"`
	Subject      string `json:"subject" validate:"max=200"`
	Body         string `json:"body" validate:"max=10000"`
}

// mailSettings fills unset connection fields from config; all of them must end up set.
type mailSettings struct {
	Host     string `validate:"required"`
	Port     int    `validate:"required,gte=1,lte=65535"`
	User     string `validate:"required"`
	Password string `validate:"required"`
	From     string `validate:"required,email"`
}

func (h *Handlers) EmailQuote(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if !quote.ValidNumber(number) {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid quote number", nil)
		return
	}
	var req EmailQuoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	ms := mailSettings{
		Host:     firstNonEmpty(req.SMTPHost, h.Cfg.SMTPHost),
		Port:     req.SMTPPort,
		User:     firstNonEmpty(req.SMTPUser, h.Cfg.SMTPUser),
		Password: firstNonEmpty(req.SMTPPassword, h.Cfg.SMTPPassword),
	}
	if ms.Port == 0 {
		ms.Port = h.Cfg.SMTPPort
	}
	ms.From = firstNonEmpty(req.From, h.Cfg.SMTPSender, ms.User)
	if err := h.validate.Struct(ms); err != nil {
		writeError(w, http.StatusBadRequest, "smtp_incomplete", "smtp settings are incomplete", err.Error())
		return
	}

	subject := firstNonEmpty(req.Subject, "Your Quote "+number)
	body := firstNonEmpty(req.Body, "Hello,\n\nPlease find attached your quote.\n\nThank you.")

	err := h.Svc.Email(r.Context(),
		number,
		mail.Params{Host: ms.Host, Port: ms.Port, Username: ms.User, Password: ms.Password},
		mail.Message{From: ms.From, To: req.To, Subject: subject, Body: body},
	)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"status": "sent", "to": req.To})
	case errors.Is(err, quote.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, mail.ErrAttachmentNotFound):
		writeError(w, http.StatusNotFound, "missing_file", err.Error(), nil)
	default:
		h.Log.Warn().Err(err).Str("quote_number", number).Msg("email failed")
		writeError(w, http.StatusBadGateway, "send_failed", err.Error(), nil)
	}
}

func (h *Handlers) LookupService(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "q is required", nil)
		return
	}
	line, ok := h.Svc.FindService(r.Context(), q)
	if !ok {
		writeError(w, http.StatusNotFound, "no_match", service.ErrNoMatch.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, lineView(line))
}

func (h *Handlers) UploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLogoBytes)
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid multipart form", err.Error())
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "logo file is required", nil)
		return
	}
	defer file.Close()

	path, err := h.Svc.SaveLogo(header.Filename, file)
	switch {
	case errors.Is(err, service.ErrLogoType):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_type", err.Error(), nil)
	case err != nil:
		h.Log.Error().Err(err).Msg("save logo")
		writeError(w, http.StatusInternalServerError, "internal", "could not save logo", nil)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"logo_path": path})
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
