package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is resolved from, lowest to highest precedence: the defaults below,
// the TOML file named by CONFIG_FILE, a .env file, then the process env.
type Config struct {
	AppEnv      string        `toml:"app_env"`
	LogLevel    string        `toml:"log_level"`
	HTTPAddr    string        `toml:"http_addr"`
	MetricsAddr string        `toml:"metrics_addr"`
	HTTPTimeout time.Duration `toml:"-"`

	MySQLDSN  string        `toml:"mysql_dsn"`
	RedisAddr string        `toml:"redis_addr"`
	RedisPass string        `toml:"redis_password"`
	RedisDB   int           `toml:"redis_db"`
	CacheTTL  time.Duration `toml:"-"`

	RatesBaseURL    string        `toml:"rates_base_url"`
	RatesRPS        int           `toml:"rates_rps"`
	RateCacheTTL    time.Duration `toml:"-"`
	DisplayCurrency string        `toml:"display_currency"`

	LogoURL    string        `toml:"logo_url"`
	ChromePath string        `toml:"chrome_path"`
	PDFTimeout time.Duration `toml:"-"`
	Timezone   string        `toml:"timezone"`

	ExportWorkers int    `toml:"export_workers"`
	ExportDir     string `toml:"export_dir"`
}

// fileConfig overlays the duration keys so the TOML file reads them the way
// the environment does: a bare number is seconds, a string is a Go duration
// such as "1m30s".
type fileConfig struct {
	Config
	HTTPTimeout  seconds `toml:"http_timeout"`
	CacheTTL     seconds `toml:"cache_ttl"`
	RateCacheTTL seconds `toml:"rate_cache_ttl"`
	PDFTimeout   seconds `toml:"pdf_timeout"`
}

type seconds time.Duration

func (d *seconds) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case int64:
		*d = seconds(time.Duration(x) * time.Second)
	case float64:
		*d = seconds(time.Duration(x * float64(time.Second)))
	case string:
		p, err := time.ParseDuration(x)
		if err != nil {
			return err
		}
		*d = seconds(p)
	default:
		return fmt.Errorf("duration must be seconds or a string like \"30s\", got %T", v)
	}
	return nil
}

func defaults() Config {
	return Config{
		AppEnv:          "prod",
		LogLevel:        "info",
		HTTPAddr:        ":8080",
		MetricsAddr:     "",
		HTTPTimeout:     30 * time.Second,
		MySQLDSN:        "root:root@tcp(localhost:3306)/backoffice?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		RedisAddr:       "localhost:6379",
		CacheTTL:        60 * time.Second,
		RatesBaseURL:    "https://open.er-api.com/v6/latest",
		RatesRPS:        5,
		RateCacheTTL:    5 * time.Minute,
		DisplayCurrency: "GBP",
		PDFTimeout:      30 * time.Second,
		Timezone:        "Europe/London",
		ExportWorkers:   4,
		ExportDir:       "exports",
	}
}

func Load() (Config, error) {
	envFile := env("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	c := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc := fileConfig{
			Config:       c,
			HTTPTimeout:  seconds(c.HTTPTimeout),
			CacheTTL:     seconds(c.CacheTTL),
			RateCacheTTL: seconds(c.RateCacheTTL),
			PDFTimeout:   seconds(c.PDFTimeout),
		}
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
		c = fc.Config
		c.HTTPTimeout = time.Duration(fc.HTTPTimeout)
		c.CacheTTL = time.Duration(fc.CacheTTL)
		c.RateCacheTTL = time.Duration(fc.RateCacheTTL)
		c.PDFTimeout = time.Duration(fc.PDFTimeout)
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric config value")
		}
		return def
	}
	secs := func(k string, def time.Duration) time.Duration {
		return time.Duration(atoi(k, int(def/time.Second))) * time.Second
	}

	c.AppEnv = env("APP_ENV", c.AppEnv)
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
	c.HTTPAddr = env("HTTP_ADDR", c.HTTPAddr)
	c.MetricsAddr = env("METRICS_ADDR", c.MetricsAddr)
	c.HTTPTimeout = secs("HTTP_TIMEOUT_SECONDS", c.HTTPTimeout)
	c.MySQLDSN = env("MYSQL_DSN", c.MySQLDSN)
	c.RedisAddr = env("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = env("REDIS_PASSWORD", c.RedisPass)
	c.RedisDB = atoi("REDIS_DB", c.RedisDB)
	c.CacheTTL = secs("CACHE_TTL_SECONDS", c.CacheTTL)
	c.RatesBaseURL = env("RATES_BASE_URL", c.RatesBaseURL)
	c.RatesRPS = atoi("RATES_RPS", c.RatesRPS)
	c.RateCacheTTL = secs("RATE_CACHE_TTL_SECONDS", c.RateCacheTTL)
	c.DisplayCurrency = strings.ToUpper(env("DISPLAY_CURRENCY", c.DisplayCurrency))
	c.LogoURL = env("LOGO_URL", c.LogoURL)
	c.ChromePath = env("CHROME_PATH", c.ChromePath)
	c.PDFTimeout = secs("PDF_TIMEOUT_SECONDS", c.PDFTimeout)
	c.Timezone = env("TIMEZONE", c.Timezone)
	c.ExportWorkers = atoi("EXPORT_WORKERS", c.ExportWorkers)
	c.ExportDir = env("EXPORT_DIR", c.ExportDir)

	if c.ExportWorkers < 1 {
		c.ExportWorkers = 1
	}
	if len(c.DisplayCurrency) != 3 {
		return Config{}, fmt.Errorf("DISPLAY_CURRENCY %q is not a 3-letter code", c.DisplayCurrency)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return Config{}, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return c, nil
}

// Location is the zone used for display dates; Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
