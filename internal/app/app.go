package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/config"
	apphttp "github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/http"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/logging"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/service"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/catalog"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/lookup"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote/pdf"
	pdfgen "github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote/pdf/gofpdf"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/db/postgres"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/db/sqlite"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/embedding"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/mail"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/vectordb"
)

func Run() {
	cfg := config.MustLoad()
	log := logging.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("quoted")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	var pg *postgres.DB
	if cfg.DatabaseURL != "" {
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		pg = db
	}

	store, err := openStore(cfg, pg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return err
	}

	entries, index, err := buildIndex(ctx, cfg, pg, log)
	if err != nil {
		return err
	}

	svc := service.New(
		store,
		pdfgen.New(log),
		lookup.NewService(index, log),
		mail.NewSender(log, mail.WithTimeout(cfg.SMTPTimeout)),
		service.Defaults{
			Company: quote.Company{
				Name:  cfg.CompanyName,
				Email: cfg.CompanyEmail,
				Phone: cfg.CompanyPhone,
			},
			TaxRate:    decimal.NewFromFloat(cfg.DefaultTaxRate),
			Template:   pdf.ParseTemplate(cfg.DefaultTemplate),
			PaymentURL: cfg.PaymentURL,
			LogoPath:   cfg.LogoPath,
			OutputDir:  cfg.OutputDir,
		},
		log,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apphttp.NewRouter(cfg, svc, len(entries), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Int("catalog_entries", len(entries)).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg config.Config, pg *postgres.DB) (quote.Store, error) {
	if pg != nil {
		return postgres.NewStore(pg), nil
	}
	return sqlite.New(cfg.SQLitePath)
}

// buildIndex loads the catalog and embeds it. A catalog or embedder failure
// leaves lookups answering not-found instead of stopping the server.
func buildIndex(ctx context.Context, cfg config.Config, pg *postgres.DB, log zerolog.Logger) ([]catalog.Entry, *lookup.Index, error) {
	entries, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.CatalogPath).Msg("catalog not loaded; lookups disabled")
		return nil, nil, nil
	}

	var emb lookup.Embedder
	switch cfg.EmbeddingProvider {
	case "hash":
		emb = embedding.NewHash(0)
	default:
		emb = embedding.NewOllama(cfg.OllamaURL, cfg.OllamaEmbeddingModel, nil, log)
	}
	if cfg.EmbeddingCachePath != "" {
		cache, err := sqlite.OpenEmbeddingCache(ctx, cfg.EmbeddingCachePath)
		if err != nil {
			log.Warn().Err(err).Msg("embedding cache unavailable")
		} else {
			// The cache stays open for the process lifetime.
			emb = embedding.NewCached(emb, cache, log)
		}
	}

	var vi lookup.VectorIndex
	if cfg.VectorBackend == "pgvector" && pg != nil {
		pvi, err := vectordb.NewPGVectorIndex(ctx, pg)
		if err != nil {
			return nil, nil, err
		}
		vi = pvi
	} else {
		vi = vectordb.NewMemoryIndex()
	}

	index, err := lookup.Build(ctx, entries, emb, vi)
	if err != nil {
		log.Warn().Err(err).Msg("catalog index not built; lookups disabled")
		return entries, nil, nil
	}
	log.Info().Int("entries", index.Len()).Str("model", emb.Model()).Msg("catalog indexed")
	return entries, index, nil
}
