package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	OutputDir   string `env:"OUTPUT_DIR" envDefault:"quotes"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"quotes/quotes.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	CatalogPath          string `env:"CATALOG_PATH" envDefault:"data/services.json"`
	EmbeddingProvider    string `env:"EMBEDDING_PROVIDER" envDefault:"ollama"`
	OllamaURL            string `env:"OLLAMA_URL" envDefault:"http://127.0.0.1:11434"`
	OllamaEmbeddingModel string `env:"OLLAMA_EMBEDDING_MODEL" envDefault:"all-minilm"`
	EmbeddingCachePath   string `env:"EMBEDDING_CACHE_PATH" envDefault:"quotes/embeddings.db"`
	VectorBackend        string `env:"VECTOR_BACKEND" envDefault:"memory"`

	CompanyName     string  `env:"COMPANY_NAME" envDefault:"STAR CAR WASH (MELBOURNE) PTY LTD"`
	CompanyEmail    string  `env:"COMPANY_EMAIL" envDefault:"info@starcarwash.com.au"`
	CompanyPhone    string  `env:"COMPANY_PHONE" envDefault:"0474456050"`
	DefaultTaxRate  float64 `env:"DEFAULT_TAX_RATE" envDefault:"10"`
	DefaultTemplate string  `env:"PDF_TEMPLATE" envDefault:"classic"`
	PaymentURL      string  `env:"PAYMENT_URL" envDefault:"https://starcarwash.com.au/pay"`
	LogoPath        string  `env:"LOGO_PATH" envDefault:"logo.png"`

	SMTPHost     string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPSender   string        `env:"SMTP_SENDER"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"0s"`
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.EmbeddingProvider = strings.ToLower(strings.TrimSpace(cfg.EmbeddingProvider))
	cfg.VectorBackend = strings.ToLower(strings.TrimSpace(cfg.VectorBackend))

	switch cfg.EmbeddingProvider {
	case "ollama", "hash":
	default:
		return Config{}, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", cfg.EmbeddingProvider)
	}
	switch cfg.VectorBackend {
	case "memory":
	case "pgvector":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("VECTOR_BACKEND=pgvector requires DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("unknown VECTOR_BACKEND %q", cfg.VectorBackend)
	}
	if cfg.DefaultTaxRate < 0 || cfg.DefaultTaxRate > 28 {
		return Config{}, fmt.Errorf("DEFAULT_TAX_RATE must be between 0 and 28")
	}
	return cfg, nil
}

func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	return cfg
}
