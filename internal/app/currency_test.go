package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateSvc(src *fakeRates) (*RateService, *fakeClock) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	return NewRateService(src, clk, 5*time.Minute, "GBP"), clk
}

func TestConvert_SameCurrencyIsIdentity(t *testing.T) {
	src := &fakeRates{}
	svc, _ := newRateSvc(src)
	for _, amt := range []float64{0, 1, -12.5, 1234.5678} {
		for _, c := range []string{"GBP", "eur", "XYZ"} {
			assert.Equal(t, amt, svc.Convert(context.Background(), amt, c, c))
		}
	}
	assert.Zero(t, src.calls, "identity conversions must not fetch")
}

func TestConvert_LiveRateIsCachedUntilTTL(t *testing.T) {
	src := &fakeRates{rates: map[string]map[string]float64{"EUR": {"GBP": 0.9}}}
	svc, clk := newRateSvc(src)
	ctx := context.Background()

	assert.InDelta(t, 90.0, svc.Convert(ctx, 100, "EUR", "GBP"), 1e-9)
	assert.InDelta(t, 90.0, svc.Convert(ctx, 100, "eur", "gbp"), 1e-9)
	assert.Equal(t, 1, src.calls)

	clk.Advance(4*time.Minute + 59*time.Second)
	svc.Convert(ctx, 1, "EUR", "GBP")
	assert.Equal(t, 1, src.calls)

	clk.Advance(time.Second)
	src.rates["EUR"]["GBP"] = 0.8
	assert.InDelta(t, 80.0, svc.Convert(ctx, 100, "EUR", "GBP"), 1e-9)
	assert.Equal(t, 2, src.calls)
}

func TestConvert_FallbackOnFailure(t *testing.T) {
	src := &fakeRates{err: errors.New("down")}
	svc, _ := newRateSvc(src)
	ctx := context.Background()

	assert.InDelta(t, 85.0, svc.Convert(ctx, 100, "EUR", "GBP"), 1e-9)
	assert.InDelta(t, 127.0, svc.Convert(ctx, 100, "GBP", "USD"), 1e-9)
	assert.InDelta(t, 93.0, svc.Convert(ctx, 100, "USD", "EUR"), 1e-9)
}

func TestConvert_FallbackWhenPairMissing(t *testing.T) {
	src := &fakeRates{rates: map[string]map[string]float64{"GBP": {"JPY": 190}}}
	svc, _ := newRateSvc(src)
	assert.InDelta(t, 108.0, svc.Convert(context.Background(), 100, "EUR", "USD"), 1e-9)
}

func TestConvert_UnknownPairLeavesAmountUnchanged(t *testing.T) {
	svc, _ := newRateSvc(&fakeRates{err: errors.New("down")})
	assert.Equal(t, 42.0, svc.Convert(context.Background(), 42, "CHF", "JPY"))

	_, ok := svc.Rate(context.Background(), "CHF", "JPY")
	assert.False(t, ok)
}

func TestConvert_NilSourceUsesFallback(t *testing.T) {
	svc := NewRateService(nil, nil, 0, "")
	assert.Equal(t, "GBP", svc.DisplayCurrency())
	assert.InDelta(t, 117.0, svc.Convert(context.Background(), 100, "GBP", "EUR"), 1e-9)
}

func TestApplyMarkup(t *testing.T) {
	assert.Equal(t, 110.0, ApplyMarkup(100, 10))
	assert.Equal(t, 100.0, ApplyMarkup(100, 0))
	assert.Equal(t, 12.35, ApplyMarkup(10.29, 20))
	assert.Equal(t, 0.0, ApplyMarkup(0, 50))
}

func TestApplyMarkup_Monotonic(t *testing.T) {
	prices := []float64{0, 0.01, 9.99, 100, 2500.5}
	markups := []float64{0, 0.5, 1, 7.5, 15, 100}
	for _, p := range prices {
		for i := 1; i < len(markups); i++ {
			require.GreaterOrEqual(t, ApplyMarkup(p, markups[i]), ApplyMarkup(p, markups[i-1]),
				"price %v markup %v vs %v", p, markups[i], markups[i-1])
		}
	}
}

func TestSellPrice(t *testing.T) {
	svc, _ := newRateSvc(&fakeRates{err: errors.New("down")})
	price, cur := svc.SellPrice(context.Background(), 200, "EUR", 10)
	assert.Equal(t, "GBP", cur)
	assert.Equal(t, 187.0, price)
}
