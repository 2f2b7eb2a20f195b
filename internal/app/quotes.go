package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"travel_backoffice/internal/domain"
)

type QuoteService struct {
	repo     domain.QuoteRepository
	cache    domain.Cache
	cacheTTL time.Duration
	loc      *time.Location
}

func NewQuoteService(r domain.QuoteRepository, c domain.Cache, ttl time.Duration, loc *time.Location) *QuoteService {
	if loc == nil {
		loc = time.UTC
	}
	return &QuoteService{repo: r, cache: c, cacheTTL: ttl, loc: loc}
}

func quoteKey(id string) string { return "quote:" + id }

// GetQuote is read-through cached under quote:{id}.
func (s *QuoteService) GetQuote(ctx context.Context, id string) (domain.Quote, error) {
	key := quoteKey(id)
	var q domain.Quote
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &q); ok {
			return q, nil
		}
	}
	q, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return domain.Quote{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, q, int(s.cacheTTL.Seconds()))
	}
	return q, nil
}

// UpdateQuote persists q (last write wins) and evicts its cached copy.
func (s *QuoteService) UpdateQuote(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	if err := validateQuote(q); err != nil {
		return domain.Quote{}, err
	}
	if err := s.repo.UpdateQuote(ctx, q); err != nil {
		return domain.Quote{}, fmt.Errorf("update quote %s: %w", q.ID, err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, quoteKey(q.ID)); err != nil {
			log.Warn().Err(err).Str("quote_id", q.ID).Msg("quote cache eviction failed")
		}
	}
	return q, nil
}

func validateQuote(q domain.Quote) error {
	var errs domain.ValidationErrors
	if q.ID == "" {
		errs = append(errs, domain.Invalid("id", "Quote id is required"))
	}
	if !q.Status.Valid() {
		errs = append(errs, domain.Invalid("status", fmt.Sprintf("Unknown quote status %q", q.Status)))
	}
	if q.TotalPrice < 0 {
		errs = append(errs, domain.Invalid("totalPrice", "Total price cannot be negative"))
	}
	if q.TravelersAdults < 0 || q.TravelersChildren < 0 {
		errs = append(errs, domain.Invalid("travelers", "Traveler counts cannot be negative"))
	}
	return errs.OrNil()
}

// ComponentRow is one line of the quote component table.
type ComponentRow struct {
	Type domain.ComponentType `json:"type"`
	domain.ComponentInfo
}

type QuoteComponents struct {
	QuoteID string                 `json:"quoteId,omitempty"`
	Rows    []ComponentRow         `json:"rows"`
	Flights []domain.FlightSummary `json:"flights"`
	Others  []domain.ComponentInfo `json:"others"`
}

// QuoteComponents normalizes the stored selection of a quote for display.
func (s *QuoteService) QuoteComponents(ctx context.Context, id string) (QuoteComponents, error) {
	q, err := s.GetQuote(ctx, id)
	if err != nil {
		return QuoteComponents{}, err
	}
	out := s.Extract(q.SelectedComponents)
	out.QuoteID = q.ID
	return out, nil
}

// Extract runs an arbitrary selection payload (array, JSON string or legacy
// object) through the component and flight extractors.
func (s *QuoteService) Extract(selected any) QuoteComponents {
	raw := NormalizeSelectedComponents(selected)
	out := QuoteComponents{
		Rows:    make([]ComponentRow, 0, len(raw)),
		Flights: []domain.FlightSummary{},
		Others:  []domain.ComponentInfo{},
	}
	for _, r := range raw {
		c := NormalizeComponent(r)
		out.Rows = append(out.Rows, ComponentRow{Type: c.Type, ComponentInfo: DescribeComponent(c)})
	}
	flights, others := PartitionComponents(raw)
	for _, f := range flights {
		out.Flights = append(out.Flights, ExtractFlightInfo(f, s.loc))
	}
	for _, o := range others {
		out.Others = append(out.Others, ExtractComponentInfo(o))
	}
	return out
}

// ListQuoteIDs passes through to the repository; empty status lists all.
func (s *QuoteService) ListQuoteIDs(ctx context.Context, status domain.QuoteStatus) ([]string, error) {
	return s.repo.ListQuoteIDs(ctx, status)
}
