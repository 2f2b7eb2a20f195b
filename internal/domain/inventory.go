package domain

import "time"

type Entity string

const (
	EntityFlight          Entity = "flights"
	EntityAirportTransfer Entity = "airport_transfers"
	EntityCircuitTransfer Entity = "circuit_transfers"
	EntityVenue           Entity = "venues"
	EntityTicketCategory  Entity = "ticket_categories"
)

// Label is the singular, human-readable entity name used in error messages.
func (e Entity) Label() string {
	switch e {
	case EntityFlight:
		return "flight"
	case EntityAirportTransfer:
		return "airport transfer"
	case EntityCircuitTransfer:
		return "circuit transfer"
	case EntityVenue:
		return "venue"
	case EntityTicketCategory:
		return "ticket category"
	}
	return string(e)
}

// Priced is implemented by inventory records that carry a supplier cost and a markup.
type Priced interface {
	Pricing() (cost float64, currency string, markupPercent float64)
	SetSellPrice(price float64, currency string)
}

type Flight struct {
	ID                 int64      `json:"id"`
	EventID            *int64     `json:"eventId,omitempty"`
	Airline            string     `json:"airline"`
	OutboundFlightNo   string     `json:"outboundFlightNumber"`
	OriginAirport      string     `json:"originAirport"`
	DestinationAirport string     `json:"destinationAirport"`
	OutboundDeparture  *time.Time `json:"outboundDeparture,omitempty"`
	InboundFlightNo    string     `json:"inboundFlightNumber"`
	InboundDeparture   *time.Time `json:"inboundDeparture,omitempty"`
	CabinClass         string     `json:"cabinClass"`
	BaggagePieces      int        `json:"baggagePieces"`
	SupplierPrice      float64    `json:"supplierPrice"`
	SupplierCurrency   string     `json:"supplierCurrency"`
	MarkupPercent      float64    `json:"markupPercent"`
	SellPrice          float64    `json:"sellPrice"`
	SellCurrency       string     `json:"sellCurrency"`
	Capacity           int        `json:"capacity"`
	Used               int        `json:"used"`
	Active             bool       `json:"active"`
}

func (f *Flight) Pricing() (float64, string, float64) {
	return f.SupplierPrice, f.SupplierCurrency, f.MarkupPercent
}
func (f *Flight) SetSellPrice(p float64, cur string) { f.SellPrice, f.SellCurrency = p, cur }

type AirportTransfer struct {
	ID               int64   `json:"id"`
	EventID          *int64  `json:"eventId,omitempty"`
	HotelID          *int64  `json:"hotelId,omitempty"`
	TransportType    string  `json:"transportType"`
	Direction        string  `json:"direction"`
	MaxPassengers    int     `json:"maxPassengers"`
	SupplierCost     float64 `json:"supplierCost"`
	SupplierCurrency string  `json:"supplierCurrency"`
	MarkupPercent    float64 `json:"markupPercent"`
	SellPrice        float64 `json:"sellPrice"`
	SellCurrency     string  `json:"sellCurrency"`
	Quantity         int     `json:"quantity"`
	Used             int     `json:"used"`
	Active           bool    `json:"active"`
}

func (t *AirportTransfer) Pricing() (float64, string, float64) {
	return t.SupplierCost, t.SupplierCurrency, t.MarkupPercent
}
func (t *AirportTransfer) SetSellPrice(p float64, cur string) { t.SellPrice, t.SellCurrency = p, cur }

type CircuitTransfer struct {
	ID               int64   `json:"id"`
	EventID          *int64  `json:"eventId,omitempty"`
	HotelID          *int64  `json:"hotelId,omitempty"`
	TransferType     string  `json:"transferType"`
	Days             int     `json:"days"`
	SeatCapacity     int     `json:"seatCapacity"`
	SupplierCost     float64 `json:"supplierCost"`
	SupplierCurrency string  `json:"supplierCurrency"`
	MarkupPercent    float64 `json:"markupPercent"`
	SellPrice        float64 `json:"sellPrice"`
	SellCurrency     string  `json:"sellCurrency"`
	Used             int     `json:"used"`
	Active           bool    `json:"active"`
}

func (t *CircuitTransfer) Pricing() (float64, string, float64) {
	return t.SupplierCost, t.SupplierCurrency, t.MarkupPercent
}
func (t *CircuitTransfer) SetSellPrice(p float64, cur string) { t.SellPrice, t.SellCurrency = p, cur }

type Venue struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
	Website  string `json:"website"`
	Notes    string `json:"notes"`
}

type TicketCategory struct {
	ID           int64  `json:"id"`
	VenueID      int64  `json:"venueId"`
	CategoryName string `json:"categoryName"`
	CategoryType string `json:"categoryType"`
	SeatInfo     string `json:"seatInfo"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
}

// ListQuery drives filter/sort/paginate table views. Keys of Filters, From and
// To are API field names; storage whitelists them per entity.
type ListQuery struct {
	Filters  map[string]string
	From     map[string]string
	To       map[string]string
	Search   string
	Sort     string
	Desc     bool
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// Normalized clamps paging to sane bounds.
func (q ListQuery) Normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}
