package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONFIG_FILE", "APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "METRICS_ADDR", "HTTP_TIMEOUT_SECONDS",
	"MYSQL_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL_SECONDS",
	"RATES_BASE_URL", "RATES_RPS", "RATE_CACHE_TTL_SECONDS", "DISPLAY_CURRENCY",
	"LOGO_URL", "CHROME_PATH", "PDF_TIMEOUT_SECONDS", "TIMEZONE", "EXPORT_WORKERS", "EXPORT_DIR",
}

// isolate blanks every config key and points ENV_FILE at a missing file.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "GBP", c.DisplayCurrency)
	assert.Equal(t, 5*time.Minute, c.RateCacheTTL)
	assert.Equal(t, 4, c.ExportWorkers)
	assert.Equal(t, "Europe/London", c.Location().String())
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)

	tomlPath := filepath.Join(dir, "backoffice.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
http_addr = ":9000"
display_currency = "eur"
pdf_timeout = "45s"
export_workers = 2
logo_url = "https://cdn.example.com/logo.png"
`), 0o600))
	t.Setenv("CONFIG_FILE", tomlPath)

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("EXPORT_WORKERS=3\nLOGO_URL=https://env-file.example.com/logo.png\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	// godotenv only fills keys that are absent from the environment.
	for _, k := range []string{"EXPORT_WORKERS", "LOGO_URL"} {
		k := k
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() { _ = os.Unsetenv(k) })
	}

	t.Setenv("HTTP_ADDR", ":7000")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.HTTPAddr, "process env beats TOML")
	assert.Equal(t, "EUR", c.DisplayCurrency, "TOML beats defaults")
	assert.Equal(t, 45*time.Second, c.PDFTimeout)
	assert.Equal(t, 3, c.ExportWorkers, ".env beats TOML")
	assert.Equal(t, "https://env-file.example.com/logo.png", c.LogoURL)
}

func TestLoad_TOMLDurations(t *testing.T) {
	dir := isolate(t)

	tomlPath := filepath.Join(dir, "backoffice.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
http_timeout = 30
cache_ttl = 1.5
rate_cache_ttl = "2m"
`), 0o600))
	t.Setenv("CONFIG_FILE", tomlPath)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, c.HTTPTimeout, "bare numbers are seconds, as in the env layer")
	assert.Equal(t, 1500*time.Millisecond, c.CacheTTL)
	assert.Equal(t, 2*time.Minute, c.RateCacheTTL)
	assert.Equal(t, 30*time.Second, c.PDFTimeout, "absent keys keep their defaults")

	require.NoError(t, os.WriteFile(tomlPath, []byte(`pdf_timeout = "soon"`), 0o600))
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TIMEZONE", "")
	t.Setenv("DISPLAY_CURRENCY", "POUNDS")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DISPLAY_CURRENCY", "")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))
	_, err = Load()
	assert.Error(t, err)
}
