package rates_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"travel_backoffice/internal/adapters/rates"
)

func TestClient_Latest_RetriesThenSuccess(t *testing.T) {
	var hits int32
	var path atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		switch atomic.AddInt32(&hits, 1) {
		case 1:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"base":  "EUR",
				"rates": map[string]any{"gbp": 0.86, "USD": 1.09},
			})
		}
	}))
	defer ts.Close()

	cl, err := rates.New(ts.URL+"/", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := cl.Latest(ctx, "eur")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["GBP"] != 0.86 || got["USD"] != 1.09 {
		t.Fatalf("unexpected rates: %+v", got)
	}
	if p := path.Load().(string); p != "/EUR" {
		t.Fatalf("unexpected path %q", p)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Latest_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, err := rates.New(ts.URL, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := cl.Latest(ctx, "XYZ"); !errors.Is(err, rates.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Latest_EmptyRates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{}}`))
	}))
	defer ts.Close()

	cl, _ := rates.New(ts.URL, 100)
	if _, err := cl.Latest(context.Background(), "GBP"); !errors.Is(err, rates.ErrNoRates) {
		t.Fatalf("expected ErrNoRates, got %v", err)
	}
}

func TestNew_RequiresBase(t *testing.T) {
	if _, err := rates.New(" ", 1); err == nil {
		t.Fatalf("expected error for empty base")
	}
}
