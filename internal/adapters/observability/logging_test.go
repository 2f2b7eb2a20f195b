package observability_test

import (
	"testing"

	"github.com/rs/zerolog"

	"travel_backoffice/internal/adapters/observability"
)

func TestNewLoggerLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := observability.NewLogger("prod", in).GetLevel(); got != want {
			t.Errorf("NewLogger(%q) level = %v, want %v", in, got, want)
		}
	}
}
