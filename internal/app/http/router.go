package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/config"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/http/handlers"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/http/middleware"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/service"
)

func NewRouter(cfg config.Config, svc *service.Service, catalogSize int, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(chimw.Recoverer)

	h := handlers.New(svc, cfg, catalogSize, log)

	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", h.ListQuotes)
			r.Post("/", h.CreateQuote)
			r.Post("/ai", h.CreateQuoteFromQuery)
			r.Post("/preview", h.PreviewQuote)
			r.Get("/{number}/pdf", h.DownloadQuote)
			r.Post("/{number}/email", h.EmailQuote)
		})
		r.Get("/services/lookup", h.LookupService)
		r.Post("/logo", h.UploadLogo)
	})

	return r
}
