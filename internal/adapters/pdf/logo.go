package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	"travel_backoffice/internal/adapters/observability"
)

const (
	logoMaxWidth  = 320
	logoMaxHeight = 120
	logoMaxBytes  = 5 << 20

	logoRetryAfter = time.Minute
)

// LogoInliner fetches the brand logo once, scales it to fit the document
// header and serves it as a PNG data URI. Concurrent callers share one fetch;
// a failed fetch is reported to every caller until logoRetryAfter has passed.
type LogoInliner struct {
	url        string
	hc         *http.Client
	now        func() time.Time
	retryAfter time.Duration
	group      singleflight.Group

	mu       sync.Mutex
	uri      string
	lastErr  error
	failedAt time.Time
}

func NewLogoInliner(url string) *LogoInliner {
	return &LogoInliner{
		url:        url,
		hc:         &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
		retryAfter: logoRetryAfter,
	}
}

func (l *LogoInliner) DataURI(ctx context.Context) (string, error) {
	if l.url == "" {
		return "", nil
	}
	if uri, ok, err := l.cached(); ok {
		return uri, err
	}

	v, err, _ := l.group.Do(l.url, func() (any, error) {
		// a caller that raced the previous fetch must not start another one
		if uri, ok, err := l.cached(); ok {
			return uri, err
		}
		uri, err := l.load(context.WithoutCancel(ctx))
		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.lastErr, l.failedAt = err, l.now()
			return "", err
		}
		l.uri, l.lastErr = uri, nil
		return uri, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// cached reports the stored logo, or the last failure while it is still fresh.
func (l *LogoInliner) cached() (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.uri != "" {
		return l.uri, true, nil
	}
	if l.lastErr != nil && l.now().Sub(l.failedAt) < l.retryAfter {
		return "", true, l.lastErr
	}
	return "", false, nil
}

func (l *LogoInliner) load(ctx context.Context) (string, error) {
	raw, err := l.fetch(ctx)
	if err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode logo: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > logoMaxWidth || b.Dy() > logoMaxHeight {
		img = imaging.Fit(img, logoMaxWidth, logoMaxHeight, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode logo: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (l *LogoInliner) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := l.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("logo", "get", 0, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("logo", "get", resp.StatusCode, time.Since(start))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("logo fetch: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, logoMaxBytes))
}
