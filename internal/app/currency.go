package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"travel_backoffice/internal/adapters/observability"
	"travel_backoffice/internal/domain"
)

const DefaultRateTTL = 5 * time.Minute

// fallbackRates are approximate cross rates used when the live service is
// unreachable or does not quote the pair.
var fallbackRates = map[string]float64{
	"EUR_GBP": 0.85,
	"GBP_EUR": 1.17,
	"EUR_USD": 1.08,
	"USD_EUR": 0.93,
	"GBP_USD": 1.27,
	"USD_GBP": 0.79,
}

type cachedRate struct {
	rate    float64
	fetched time.Time
}

// RateService converts amounts between currencies with a per-pair TTL cache.
// Concurrent misses for the same pair may both hit the source.
type RateService struct {
	src     domain.RateSource
	clock   domain.Clock
	ttl     time.Duration
	display string

	mu    sync.Mutex
	cache map[string]cachedRate
}

func NewRateService(src domain.RateSource, clock domain.Clock, ttl time.Duration, displayCurrency string) *RateService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}
	display := strings.ToUpper(strings.TrimSpace(displayCurrency))
	if display == "" {
		display = "GBP"
	}
	return &RateService{src: src, clock: clock, ttl: ttl, display: display, cache: map[string]cachedRate{}}
}

func (s *RateService) DisplayCurrency() string { return s.display }

// Convert returns amount expressed in to. When no rate is known at all the
// amount is returned unchanged; callers cannot tell this apart from a real
// conversion, which is the long-standing behaviour of the quoting tools.
func (s *RateService) Convert(ctx context.Context, amount float64, from, to string) float64 {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		observability.ObserveRate("identity")
		return amount
	}
	r, ok := s.Rate(ctx, from, to)
	if !ok {
		log.Warn().Str("from", from).Str("to", to).Msg("no exchange rate known; amount left unconverted")
		return amount
	}
	return amount * r
}

// Rate resolves the from->to rate: cache, then live source, then the
// fallback table.
func (s *RateService) Rate(ctx context.Context, from, to string) (float64, bool) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return 1, true
	}
	key := from + "_" + to
	now := s.clock.Now()

	s.mu.Lock()
	c, hit := s.cache[key]
	s.mu.Unlock()
	if hit && now.Sub(c.fetched) < s.ttl {
		observability.ObserveRate("cache")
		return c.rate, true
	}

	if s.src != nil {
		rates, err := s.src.Latest(ctx, from)
		if err != nil {
			log.Warn().Err(err).Str("from", from).Msg("exchange rate fetch failed; using fallback table")
		} else if r, ok := rates[to]; ok && r > 0 {
			s.mu.Lock()
			s.cache[key] = cachedRate{rate: r, fetched: now}
			s.mu.Unlock()
			observability.ObserveRate("live")
			return r, true
		}
	}

	if r, ok := fallbackRates[key]; ok {
		observability.ObserveRate("fallback")
		return r, true
	}
	observability.ObserveRate("none")
	return 0, false
}

// ApplyMarkup adds markupPercent to price, rounded to 2 decimals.
func ApplyMarkup(price, markupPercent float64) float64 {
	return round2(price * (1 + markupPercent/100))
}

// SellPrice converts a supplier cost into the display currency and applies
// the markup.
func (s *RateService) SellPrice(ctx context.Context, cost float64, currency string, markupPercent float64) (float64, string) {
	return ApplyMarkup(s.Convert(ctx, cost, currency, s.display), markupPercent), s.display
}
