package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"travel_backoffice/internal/domain"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeRates struct {
	mu    sync.Mutex
	calls int
	rates map[string]map[string]float64
	err   error
}

func (f *fakeRates) Latest(_ context.Context, base string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rates[base]
	if !ok {
		return nil, errors.New("unknown base")
	}
	return r, nil
}

// memCache is an in-process domain.Cache that keeps values as the original
// Go values; Get copies via a type switch on pointer targets used in tests.
type memCache struct {
	mu    sync.Mutex
	items map[string]any
	gets  int
	hits  int
}

func newMemCache() *memCache { return &memCache{items: map[string]any{}} }

func (m *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.items[key]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, assign(dst, v)
}

func (m *memCache) Set(_ context.Context, key string, v any, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = v
	return nil
}

func (m *memCache) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memCache) DelPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *memCache) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	return out
}

func assign(dst, v any) error {
	switch d := dst.(type) {
	case *domain.Quote:
		*d = v.(domain.Quote)
	case *domain.Page[domain.Flight]:
		*d = v.(domain.Page[domain.Flight])
	case *domain.Page[domain.Venue]:
		*d = v.(domain.Page[domain.Venue])
	default:
		return errors.New("memCache: unsupported target")
	}
	return nil
}

type fakeQuotes struct {
	mu      sync.Mutex
	quotes  map[string]domain.Quote
	gets    int
	updates int
}

func newFakeQuotes(qs ...domain.Quote) *fakeQuotes {
	f := &fakeQuotes{quotes: map[string]domain.Quote{}}
	for _, q := range qs {
		f.quotes[q.ID] = q
	}
	return f
}

func (f *fakeQuotes) GetQuote(_ context.Context, id string) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	q, ok := f.quotes[id]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	return q, nil
}

func (f *fakeQuotes) UpdateQuote(_ context.Context, q domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.quotes[q.ID]; !ok {
		return domain.ErrNotFound
	}
	f.updates++
	f.quotes[q.ID] = q
	return nil
}

func (f *fakeQuotes) ListQuoteIDs(_ context.Context, status domain.QuoteStatus) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id, q := range f.quotes {
		if status == "" || q.Status == status {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeBookings struct {
	mu       sync.Mutex
	byID     map[string]domain.Booking
	creates  int
	failWith error
}

func newFakeBookings(bs ...domain.Booking) *fakeBookings {
	f := &fakeBookings{byID: map[string]domain.Booking{}}
	for _, b := range bs {
		f.byID[b.ID] = b
	}
	return f
}

func (f *fakeBookings) GetBooking(_ context.Context, id string) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) GetBookingByQuote(_ context.Context, quoteID string) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.byID {
		if b.QuoteID == quoteID {
			return b, nil
		}
	}
	return domain.Booking{}, domain.ErrNotFound
}

func (f *fakeBookings) CreateBooking(_ context.Context, b domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failWith != nil {
		return f.failWith
	}
	for _, x := range f.byID {
		if x.QuoteID == b.QuoteID {
			return domain.ErrAlreadyExists
		}
	}
	f.byID[b.ID] = b
	return nil
}
