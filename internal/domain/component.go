package domain

type ComponentType string

const (
	ComponentTicket          ComponentType = "ticket"
	ComponentHotelRoom       ComponentType = "hotel_room"
	ComponentAirportTransfer ComponentType = "airport_transfer"
	ComponentCircuitTransfer ComponentType = "circuit_transfer"
	ComponentLoungePass      ComponentType = "lounge_pass"
	ComponentFlight          ComponentType = "flight"
	ComponentCustom          ComponentType = "custom"
)

// SelectedComponent is one line item of a quote after normalization.
// Type is resolved once at ingestion and always matches Data.
type SelectedComponent struct {
	ID       string
	Type     ComponentType
	Quantity int
	Data     ComponentData
}

// ComponentData is implemented only by the payload types below.
type ComponentData interface {
	componentType() ComponentType
}

type TicketData struct {
	CategoryName string
	Seat         string
}

type HotelRoomData struct {
	HotelName string
	RoomType  string
	BedType   string
	CheckIn   string
	CheckOut  string
}

type AirportTransferData struct {
	TransportType string
	Direction     string // outbound|return|both, "" when unknown
}

type CircuitTransferData struct {
	TransferType string
	Days         int
}

type LoungePassData struct {
	LoungeName string
}

type CustomData struct {
	DisplayName string
	Description string
}

type FlightData struct {
	OutboundSegments []FlightSegment
	ReturnSegments   []FlightSegment
	PassengerCount   int
	TotalPrice       float64
	CurrencyCode     string
	Airline          string
	CabinClass       string
	BaggagePieces    int
	FareType         string
	Refundable       *bool
	Layovers         []Layover
	Route            string
	FlightNumbers    []string
}

type FlightSegment struct {
	DepartureAirportName string
	DepartureAirportCode string
	ArrivalAirportName   string
	ArrivalAirportCode   string
	DepartureDateTime    string
	ArrivalDateTime      string
	DurationText         string
	FlightNumber         string
	Airline              string
	CabinClass           string
	Baggage              string
	Aircraft             string
	Layover              string
}

type Layover struct {
	AirportCode string
	Duration    string
}

func (TicketData) componentType() ComponentType          { return ComponentTicket }
func (HotelRoomData) componentType() ComponentType       { return ComponentHotelRoom }
func (AirportTransferData) componentType() ComponentType { return ComponentAirportTransfer }
func (CircuitTransferData) componentType() ComponentType { return ComponentCircuitTransfer }
func (LoungePassData) componentType() ComponentType      { return ComponentLoungePass }
func (FlightData) componentType() ComponentType          { return ComponentFlight }
func (CustomData) componentType() ComponentType          { return ComponentCustom }

// TypeOf reports the tag implied by a payload.
func TypeOf(d ComponentData) ComponentType {
	if d == nil {
		return ComponentCustom
	}
	return d.componentType()
}

// ComponentInfo is the tabular display triple for one component.
type ComponentInfo struct {
	Name     string `json:"name"`
	Details  string `json:"details"`
	Quantity int    `json:"quantity"`
}

// FlightSummary is the display-ready view of a flight component.
type FlightSummary struct {
	Route         string   `json:"route"`
	FlightNumbers []string `json:"flightNumbers"`
	Departure     string   `json:"departure"`
	Return        string   `json:"return"`
	Price         string   `json:"price"`
	Currency      string   `json:"currency"`
	Details       []string `json:"details"`
	Aircraft      []string `json:"aircraft"`
	Layovers      []string `json:"layovers"`
}
