package rates

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"travel_backoffice/internal/adapters/observability"
)

// Client talks to the public exchange-rate service:
// GET {base}/{currency} -> {"rates": {"USD": 1.27, ...}}. No authentication.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("rates base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrNotFound = errors.New("rates: unknown currency")
	ErrNoRates  = errors.New("rates: empty response")
)

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Latest returns the rates quoted against base, keyed by upper-case code.
func (c *Client) Latest(ctx context.Context, base string) (map[string]float64, error) {
	code := strings.ToUpper(strings.TrimSpace(base))
	if code == "" {
		return nil, fmt.Errorf("rates: base currency is required")
	}
	var out latestResponse
	start := time.Now()
	status, err := c.get(ctx, c.base+"/"+url.PathEscape(code), &out)
	observability.ObserveExternal("rates", "latest", status, time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(out.Rates) == 0 {
		return nil, ErrNoRates
	}
	rates := make(map[string]float64, len(out.Rates))
	for k, v := range out.Rates {
		rates[strings.ToUpper(k)] = v
	}
	return rates, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
// The returned status is the last HTTP status seen (0 on transport failure);
// Latest labels its external-call metric with it. The rate API takes no
// credentials and only a 200 carries rates, so there is no auth branch and
// any other non-retryable status is an error.
func (c *Client) get(ctx context.Context, u string, out any) (int, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return 0, err
	}

	var (
		lastErr    error
		lastStatus int
	)
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "travel-backoffice/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, lastErr
		}
		lastStatus = resp.StatusCode

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return lastStatus, err

		case http.StatusNotFound:
			resp.Body.Close()
			return lastStatus, ErrNotFound

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return lastStatus, ctx.Err()
			}
			return lastStatus, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return lastStatus, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastStatus, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff: 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
