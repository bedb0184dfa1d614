package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/config"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/service"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/catalog"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/lookup"
	pdfgen "github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote/pdf/gofpdf"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/db/sqlite"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/embedding"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/mail"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/vectordb"
)

const testCatalog = `[
  {"name": "Exterior Wash", "price": 35, "description": "Hand wash and dry."},
  {"name": "Interior Vacuum", "price": 40, "description": "Seats, carpets and boot."},
  {"name": "Ceramic Coating", "price": 900, "description": "Multi-year protection."}
]`

type recordingMailer struct {
	params mail.Params
	msg    mail.Message
	calls  int
}

func (m *recordingMailer) SendWithAttachment(_ context.Context, p mail.Params, msg mail.Message) error {
	m.calls++
	m.params, m.msg = p, msg
	return nil
}

type testEnv struct {
	handler http.Handler
	mailer  *recordingMailer
	dir     string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	log := zerolog.Nop()

	store, err := sqlite.New(filepath.Join(dir, "quotes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Init(ctx))

	entries, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	index, err := lookup.Build(ctx, entries, embedding.NewHash(0), vectordb.NewMemoryIndex())
	require.NoError(t, err)

	m := &recordingMailer{}
	svc := service.New(store, pdfgen.New(log), lookup.NewService(index, log), m, service.Defaults{
		TaxRate:    decimal.NewFromInt(10),
		PaymentURL: "https://pay.example.com/quote",
		LogoPath:   filepath.Join(dir, "logo.png"),
		OutputDir:  filepath.Join(dir, "out"),
	}, log)

	cfg := config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587}
	return &testEnv{handler: NewRouter(cfg, svc, len(entries), log), mailer: m, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func errorDetails(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decodeBody(t, rr)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, rr.Body.String())
	return e
}

func washQuote() map[string]any {
	return map[string]any{
		"customer": map[string]any{"name": "Jane Citizen", "phone": "0400000000", "address": "1 Main St"},
		"lines": []map[string]any{
			{"name": "Wash", "description": "Exterior", "unit_price": 100, "discount_percent": 10},
		},
	}
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	rr := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["catalog_entries"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCreateQuoteAndDownload(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/quotes", washQuote())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, "90.00", body["subtotal"])
	assert.Equal(t, "9.00", body["tax"])
	assert.Equal(t, "99.00", body["total"])
	assert.Equal(t, "Jane Citizen", body["customer_name"])
	number, _ := body["number"].(string)
	require.Regexp(t, `^Q-\d{8}-\d{3}$`, number)
	assert.Equal(t, "/v1/quotes/"+number+"/pdf", body["pdf_url"])

	dl := env.do(t, http.MethodGet, "/v1/quotes/"+number+"/pdf", nil)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "application/pdf", dl.Header().Get("Content-Type"))
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "quote_"+number+".pdf")
	assert.True(t, bytes.HasPrefix(dl.Body.Bytes(), []byte("%PDF")))
}

func TestCreateQuote_Validation(t *testing.T) {
	env := newEnv(t)

	cases := map[string]struct {
		mutate func(map[string]any)
		field  string
	}{
		"discount over 100": {func(b map[string]any) {
			b["lines"] = []map[string]any{{"name": "Wash", "unit_price": 10, "discount_percent": 150}}
		}, "discount_percent"},
		"negative price": {func(b map[string]any) {
			b["lines"] = []map[string]any{{"name": "Wash", "unit_price": -1}}
		}, "unit_price"},
		"tax over 28": {func(b map[string]any) { b["tax_rate"] = 40 }, "tax_rate"},
		"no lines":    {func(b map[string]any) { b["lines"] = []map[string]any{} }, "lines"},
		"long customer name": {func(b map[string]any) {
			b["customer"] = map[string]any{"name": strings.Repeat("x", 121)}
		}, "customer.name"},
		"bad template": {func(b map[string]any) { b["template"] = "retro" }, "template"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			b := washQuote()
			tc.mutate(b)
			rr := env.do(t, http.MethodPost, "/v1/quotes", b)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			e := errorDetails(t, rr)
			assert.Equal(t, "validation_failed", e["code"])
			details, _ := json.Marshal(e["details"])
			assert.Contains(t, string(details), tc.field)
		})
	}
}

func TestCreateQuote_AnonymousCustomer(t *testing.T) {
	env := newEnv(t)
	b := washQuote()
	b["customer"] = map[string]any{}

	rr := env.do(t, http.MethodPost, "/v1/quotes", b)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, "", body["customer_name"])
	number, _ := body["number"].(string)

	dl := env.do(t, http.MethodGet, "/v1/quotes/"+number+"/pdf", nil)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.True(t, bytes.HasPrefix(dl.Body.Bytes(), []byte("%PDF")))

	rr = env.do(t, http.MethodGet, "/v1/quotes", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	quotes, _ := decodeBody(t, rr)["quotes"].([]any)
	require.Len(t, quotes, 1)
	assert.Equal(t, number, quotes[0].(map[string]any)["number"])
}

func TestCreateQuote_UnknownField(t *testing.T) {
	env := newEnv(t)
	b := washQuote()
	b["qty"] = 3
	rr := env.do(t, http.MethodPost, "/v1/quotes", b)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateQuoteFromQuery(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/quotes/ai", map[string]any{
		"customer": map[string]any{"name": "Sam"},
		"query":    "Interior Vacuum",
		"tax_rate": 0,
		"template": "modern",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	lines, _ := body["lines"].([]any)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "Interior Vacuum", line["name"])
	assert.Equal(t, "40.00", body["total"])
}

func TestLookupService(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/services/lookup?q=Ceramic+Coating", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Ceramic Coating", body["name"])
	assert.Equal(t, "900.00", body["unit_price"])

	rr = env.do(t, http.MethodGet, "/v1/services/lookup", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListQuotes(t *testing.T) {
	env := newEnv(t)
	for _, name := range []string{"A", "B", "C"} {
		b := washQuote()
		b["customer"] = map[string]any{"name": name}
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/quotes", b).Code)
	}

	rr := env.do(t, http.MethodGet, "/v1/quotes?limit=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	quotes, _ := body["quotes"].([]any)
	require.Len(t, quotes, 2)
	assert.Equal(t, "C", quotes[0].(map[string]any)["customer_name"])
	assert.Equal(t, "B", quotes[1].(map[string]any)["customer_name"])
	assert.Equal(t, "99.00", quotes[0].(map[string]any)["total"])

	rr = env.do(t, http.MethodGet, "/v1/quotes", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	quotes, _ = decodeBody(t, rr)["quotes"].([]any)
	assert.Len(t, quotes, 3)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/quotes?limit=abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/quotes?limit=0", nil).Code)
}

func TestDownloadQuote_NotFound(t *testing.T) {
	env := newEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/v1/quotes/Q-19990101-100/pdf", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/quotes/nope/pdf", nil).Code)
}

func TestEmailQuote(t *testing.T) {
	env := newEnv(t)
	rr := env.do(t, http.MethodPost, "/v1/quotes", washQuote())
	require.Equal(t, http.StatusCreated, rr.Code)
	number := decodeBody(t, rr)["number"].(string)

	rr = env.do(t, http.MethodPost, "/v1/quotes/"+number+"/email", map[string]any{
		"smtp_user":     "sales@example.com",
		"smtp_password": "app-password",
		"to":            "jane@example.com",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, 1, env.mailer.calls)
	assert.Equal(t, "smtp.example.com", env.mailer.params.Host)
	assert.Equal(t, 587, env.mailer.params.Port)
	assert.Equal(t, "sales@example.com", env.mailer.msg.From)
	assert.Equal(t, "jane@example.com", env.mailer.msg.To)
	assert.True(t, strings.HasSuffix(env.mailer.msg.AttachmentPath, "quote_"+number+".pdf"))
	assert.Contains(t, env.mailer.msg.Subject, number)
}

func TestEmailQuote_Rejected(t *testing.T) {
	env := newEnv(t)
	rr := env.do(t, http.MethodPost, "/v1/quotes", washQuote())
	require.Equal(t, http.StatusCreated, rr.Code)
	number := decodeBody(t, rr)["number"].(string)

	// missing credentials
	rr = env.do(t, http.MethodPost, "/v1/quotes/"+number+"/email", map[string]any{"to": "jane@example.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "smtp_incomplete", errorDetails(t, rr)["code"])

	// bad recipient
	rr = env.do(t, http.MethodPost, "/v1/quotes/"+number+"/email", map[string]any{
		"smtp_user": "u@example.com", "smtp_password": "p", "to": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// unknown quote
	rr = env.do(t, http.MethodPost, "/v1/quotes/Q-19990101-100/email", map[string]any{
		"smtp_user": "u@example.com", "smtp_password": "p", "to": "jane@example.com",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, env.mailer.calls)
}

func TestPreviewQuote(t *testing.T) {
	env := newEnv(t)
	rr := env.do(t, http.MethodPost, "/v1/quotes/preview", map[string]any{
		"lines": []map[string]any{
			{"name": "Wash", "unit_price": 100, "discount_percent": 10},
			{"name": "Wax", "unit_price": 80, "discount_percent": 100},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "90.00", body["subtotal"])

	rr = env.do(t, http.MethodPost, "/v1/quotes/preview", map[string]any{})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0.00", decodeBody(t, rr)["subtotal"])
}

func uploadLogo(t *testing.T, env *testEnv, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("logo", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	return rr
}

func TestUploadLogo(t *testing.T) {
	env := newEnv(t)

	rr := uploadLogo(t, env, "brand.png", []byte("not really a png"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, filepath.Join(env.dir, "logo.png"), decodeBody(t, rr)["logo_path"])

	// A broken logo degrades the next quote instead of failing it.
	rr = env.do(t, http.MethodPost, "/v1/quotes", washQuote())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, []any{"logo"}, decodeBody(t, rr)["omitted"])

	rr = uploadLogo(t, env, "brand.gif", []byte("GIF89a"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}
