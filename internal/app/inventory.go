package app

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"travel_backoffice/internal/domain"
)

// InventoryService is the manager behind one inventory table view: cached
// filtered listing plus single-record writes. There is no optimistic
// concurrency; the last write wins.
type InventoryService[T any] struct {
	entity   domain.Entity
	store    domain.InventoryStore[T]
	cache    domain.Cache
	cacheTTL time.Duration
	rates    *RateService
	validate func(T) error
}

func NewInventoryService[T any](
	entity domain.Entity,
	store domain.InventoryStore[T],
	cache domain.Cache,
	ttl time.Duration,
	rates *RateService,
	validate func(T) error,
) *InventoryService[T] {
	return &InventoryService[T]{
		entity: entity, store: store, cache: cache, cacheTTL: ttl,
		rates: rates, validate: validate,
	}
}

func (s *InventoryService[T]) Entity() domain.Entity { return s.entity }

func (s *InventoryService[T]) keyPrefix() string { return "inv:" + string(s.entity) + ":" }

// listKey renders q canonically so equal queries share a cache entry.
func (s *InventoryService[T]) listKey(q domain.ListQuery) string {
	v := url.Values{}
	add := func(prefix string, m map[string]string) {
		for k, val := range m {
			v.Set(prefix+k, val)
		}
	}
	add("f.", q.Filters)
	add("from.", q.From)
	add("to.", q.To)
	v.Set("q", q.Search)
	v.Set("sort", q.Sort)
	v.Set("desc", strconv.FormatBool(q.Desc))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.PageSize))
	return s.keyPrefix() + v.Encode() // Encode sorts by key
}

func (s *InventoryService[T]) List(ctx context.Context, q domain.ListQuery) (domain.Page[T], error) {
	q = q.Normalized()
	key := s.listKey(q)
	var out domain.Page[T]
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	out, err := s.store.List(ctx, q)
	if err != nil {
		return domain.Page[T]{}, err
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func (s *InventoryService[T]) Get(ctx context.Context, id int64) (T, error) {
	return s.store.Get(ctx, id)
}

func (s *InventoryService[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if err := s.prepare(ctx, &v); err != nil {
		return zero, err
	}
	out, err := s.store.Create(ctx, v)
	if err != nil {
		return zero, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *InventoryService[T]) Update(ctx context.Context, id int64, v T) (T, error) {
	var zero T
	if err := s.prepare(ctx, &v); err != nil {
		return zero, err
	}
	out, err := s.store.Update(ctx, id, v)
	if err != nil {
		return zero, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *InventoryService[T]) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// BulkDelete issues one delete per id, in order, and stops at the first
// failure. Earlier deletions are not rolled back; the count of rows removed
// before the failure is returned alongside the error.
func (s *InventoryService[T]) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	deleted := 0
	defer func() {
		if deleted > 0 {
			s.invalidate(ctx)
		}
	}()
	for _, id := range ids {
		if err := s.store.Delete(ctx, id); err != nil {
			return deleted, fmt.Errorf("delete %s %d: %w", s.entity.Label(), id, err)
		}
		deleted++
	}
	return deleted, nil
}

func (s *InventoryService[T]) prepare(ctx context.Context, v *T) error {
	if s.validate != nil {
		if err := s.validate(*v); err != nil {
			return err
		}
	}
	if p, ok := any(v).(domain.Priced); ok && s.rates != nil {
		cost, cur, markup := p.Pricing()
		price, display := s.rates.SellPrice(ctx, cost, cur, markup)
		p.SetSellPrice(price, display)
	}
	return nil
}

func (s *InventoryService[T]) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DelPrefix(ctx, s.keyPrefix()); err != nil {
		log.Warn().Err(err).Str("entity", string(s.entity)).Msg("list cache invalidation failed")
	}
}

/********** per-entity required fields **********/

func required(errs domain.ValidationErrors, field, label, v string) domain.ValidationErrors {
	if strings.TrimSpace(v) == "" {
		errs = append(errs, domain.Invalid(field, label+" is required"))
	}
	return errs
}

func pricing(errs domain.ValidationErrors, cost float64, currency string, markup float64) domain.ValidationErrors {
	if cost < 0 {
		errs = append(errs, domain.Invalid("supplierCost", "Supplier cost cannot be negative"))
	}
	if len(strings.TrimSpace(currency)) != 3 {
		errs = append(errs, domain.Invalid("supplierCurrency", "Supplier currency must be a 3-letter code"))
	}
	if markup < 0 {
		errs = append(errs, domain.Invalid("markupPercent", "Markup cannot be negative"))
	}
	return errs
}

func ValidateFlight(f domain.Flight) error {
	var errs domain.ValidationErrors
	errs = required(errs, "airline", "Airline", f.Airline)
	errs = required(errs, "outboundFlightNumber", "Outbound flight number", f.OutboundFlightNo)
	errs = required(errs, "originAirport", "Origin airport", f.OriginAirport)
	errs = required(errs, "destinationAirport", "Destination airport", f.DestinationAirport)
	errs = pricing(errs, f.SupplierPrice, f.SupplierCurrency, f.MarkupPercent)
	if f.Used > f.Capacity && f.Capacity > 0 {
		errs = append(errs, domain.Invalid("used", "Used seats cannot exceed capacity"))
	}
	return errs.OrNil()
}

func ValidateAirportTransfer(t domain.AirportTransfer) error {
	var errs domain.ValidationErrors
	errs = required(errs, "transportType", "Transport type", t.TransportType)
	switch t.Direction {
	case "", "outbound", "return", "both":
	default:
		errs = append(errs, domain.Invalid("direction", "Direction must be outbound, return or both"))
	}
	if t.MaxPassengers < 0 {
		errs = append(errs, domain.Invalid("maxPassengers", "Max passengers cannot be negative"))
	}
	errs = pricing(errs, t.SupplierCost, t.SupplierCurrency, t.MarkupPercent)
	return errs.OrNil()
}

func ValidateCircuitTransfer(t domain.CircuitTransfer) error {
	var errs domain.ValidationErrors
	errs = required(errs, "transferType", "Transfer type", t.TransferType)
	if t.Days < 1 {
		errs = append(errs, domain.Invalid("days", "Days must be at least 1"))
	}
	errs = pricing(errs, t.SupplierCost, t.SupplierCurrency, t.MarkupPercent)
	return errs.OrNil()
}

func ValidateVenue(v domain.Venue) error {
	var errs domain.ValidationErrors
	errs = required(errs, "name", "Name", v.Name)
	errs = required(errs, "city", "City", v.City)
	errs = required(errs, "country", "Country", v.Country)
	if v.Timezone != "" {
		if _, err := time.LoadLocation(v.Timezone); err != nil {
			errs = append(errs, domain.Invalid("timezone", fmt.Sprintf("Unknown timezone %q", v.Timezone)))
		}
	}
	return errs.OrNil()
}

func ValidateTicketCategory(c domain.TicketCategory) error {
	var errs domain.ValidationErrors
	errs = required(errs, "categoryName", "Category name", c.CategoryName)
	if c.VenueID <= 0 {
		errs = append(errs, domain.Invalid("venueId", "Venue is required"))
	}
	return errs.OrNil()
}
