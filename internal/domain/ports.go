package domain

import (
	"context"
	"time"
)

type QuoteRepository interface {
	GetQuote(ctx context.Context, id string) (Quote, error)
	UpdateQuote(ctx context.Context, q Quote) error
	ListQuoteIDs(ctx context.Context, status QuoteStatus) ([]string, error)
}

type BookingRepository interface {
	GetBooking(ctx context.Context, id string) (Booking, error)
	// GetBookingByQuote returns ErrNotFound when the quote has not been booked.
	GetBookingByQuote(ctx context.Context, quoteID string) (Booking, error)
	// CreateBooking returns ErrAlreadyExists when the quote already has a booking.
	CreateBooking(ctx context.Context, b Booking) error
}

// InventoryStore is the per-entity table gateway behind the inventory managers.
type InventoryStore[T any] interface {
	List(ctx context.Context, q ListQuery) (Page[T], error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, id int64, v T) (T, error)
	Delete(ctx context.Context, id int64) error
}

// RateSource returns the latest rates quoted against base, keyed by currency code.
type RateSource interface {
	Latest(ctx context.Context, base string) (map[string]float64, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type DocumentRenderer interface {
	RenderQuote(ctx context.Context, doc QuoteDocument) ([]byte, error)
	RenderBooking(ctx context.Context, doc BookingDocument) ([]byte, error)
}

// LogoSource yields the brand logo as an inline data URI.
type LogoSource interface {
	DataURI(ctx context.Context) (string, error)
}
