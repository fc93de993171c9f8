package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Cheertaboi/delivery-order-service/pkg/db"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AdminToken      string
}

type GeocoderConfig struct {
	Enabled      bool
	BaseURL      string
	UserAgent    string
	CountryCodes string
	Timeout      time.Duration
	RatePerSec   float64
	CacheSize    int
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

func (c AMQPConfig) Enabled() bool { return c.URL != "" }

type Config struct {
	Stage           string
	LogLevel        string
	Storage         string
	DefaultTimezone *time.Location
	HTTP            HTTPConfig
	DB              db.PostgresConfig
	Geocoder        GeocoderConfig
	AMQP            AMQPConfig
}

// Load reads the environment, after applying the given .env files (or ./.env
// when none are named). Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var p parser
	cfg := &Config{
		Stage:    getenv("STAGE", "local"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		Storage:  strings.ToLower(getenv("STORAGE", StorageMemory)),
		HTTP: HTTPConfig{
			Addr:            getenv("HTTP_ADDR", ":8080"),
			ReadTimeout:     p.duration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    p.duration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     p.duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: p.duration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
			AdminToken:      os.Getenv("ADMIN_TOKEN"),
		},
		Geocoder: GeocoderConfig{
			Enabled:      p.bool("GEOCODER_ENABLED", true),
			BaseURL:      getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:    getenv("GEOCODER_USER_AGENT", "delivery-order-service/1.0"),
			CountryCodes: getenv("GEOCODER_COUNTRY_CODES", "br"),
			Timeout:      p.duration("GEOCODER_TIMEOUT", 4*time.Second),
			RatePerSec:   p.float("GEOCODER_RATE_PER_SEC", 1),
			CacheSize:    p.int("GEOCODER_CACHE_SIZE", 5000),
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getenv("AMQP_EXCHANGE", "orders_topic"),
		},
	}
	if p.err != nil {
		return nil, p.err
	}

	tz := getenv("DEFAULT_TIMEZONE", "America/Sao_Paulo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TIMEZONE: %w", err)
	}
	cfg.DefaultTimezone = loc

	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres:
		dbCfg, err := db.LoadPostgresConfig()
		if err != nil {
			return nil, err
		}
		cfg.DB = dbCfg
	default:
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, cfg.Storage)
	}

	if cfg.Geocoder.RatePerSec <= 0 {
		return nil, fmt.Errorf("GEOCODER_RATE_PER_SEC must be positive")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s=%q: %w", key, raw, err)
	}
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := getenv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return d
}

func (p *parser) int(key string, def int) int {
	raw := getenv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	raw := getenv(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	raw := getenv(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return b
}
