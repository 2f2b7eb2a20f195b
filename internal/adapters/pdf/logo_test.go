package pdf_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel_backoffice/internal/adapters/pdf"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{R: 11, G: 61, B: 145, A: 255}), imaging.PNG))
	return buf.Bytes()
}

func TestLogoInliner_FitsAndCaches(t *testing.T) {
	var hits int32
	img := pngBytes(t, 640, 160)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}))
	defer ts.Close()

	l := pdf.NewLogoInliner(ts.URL + "/logo.png")
	uri, err := l.DataURI(context.Background())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	decoded, err := imaging.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 320, decoded.Bounds().Dx())
	assert.Equal(t, 80, decoded.Bounds().Dy())

	again, err := l.DataURI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uri, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestLogoInliner_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("not an image"))
	}))
	defer ts.Close()

	_, err := pdf.NewLogoInliner(ts.URL + "/missing.png").DataURI(context.Background())
	assert.Error(t, err)

	_, err = pdf.NewLogoInliner(ts.URL + "/garbage.png").DataURI(context.Background())
	assert.Error(t, err)

	uri, err := pdf.NewLogoInliner("").DataURI(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, uri)
}

func TestLogoInliner_ConcurrentCallersShareOneFetch(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	l := pdf.NewLogoInliner(ts.URL + "/logo.png")
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		worst time.Duration
	)
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t0 := time.Now()
			_, err := l.DataURI(context.Background())
			assert.Error(t, err)
			mu.Lock()
			worst = max(worst, time.Since(t0))
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 900*time.Millisecond, "callers were serialized")
	assert.Less(t, worst, 900*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// the failure is remembered; no second round trip to a host known to be down
	t0 := time.Now()
	_, err := l.DataURI(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Less(t, time.Since(t0), 100*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestLogoInliner_RetriesAfterBackoff(t *testing.T) {
	var hits int32
	img := pngBytes(t, 100, 40)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(img)
	}))
	defer ts.Close()

	now := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	l := pdf.NewLogoInliner(ts.URL + "/logo.png")
	l.SetClock(func() time.Time { return now })

	_, err := l.DataURI(context.Background())
	require.Error(t, err)
	_, err = l.DataURI(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	now = now.Add(2 * time.Minute)
	uri, err := l.DataURI(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
