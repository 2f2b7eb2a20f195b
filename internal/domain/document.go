package domain

// Shared rendering inputs for the quote and booking PDFs.

type SegmentRow struct {
	Departure    string
	Arrival      string
	DepartureAt  string
	ArrivalAt    string
	FlightNumber string
	Duration     string
}

// SharedFlightInfo is rendered once above a direction's segment table.
type SharedFlightInfo struct {
	Airline    string
	CabinClass string
	Baggage    string
}

type FlightSection struct {
	Summary        FlightSummary
	Outbound       []SegmentRow
	OutboundShared SharedFlightInfo
	Return         []SegmentRow
	ReturnShared   SharedFlightInfo
	Passengers     int
}

type PaymentRow struct {
	Label   string
	Amount  string
	DueDate string
}

type QuoteDocument struct {
	QuoteNumber string
	IssuedOn    string
	ClientName  string
	ClientEmail string
	ClientPhone string
	EventName   string
	EventDates  string
	Location    string
	PackageName string
	TierName    string
	Adults      int
	Children    int
	Status      string
	Components  []ComponentInfo
	Flights     []FlightSection
	Payments    []PaymentRow
	Total       string
	LogoDataURI string
}

type BookingDocument struct {
	Reference      string
	QuoteNumber    string
	IssuedOn       string
	LeadTraveler   Traveler
	GuestTravelers []Traveler
	EventName      string
	EventDates     string
	Location       string
	PackageName    string
	Components     []ComponentInfo
	Flights        []FlightSection
	FlightBookings []FlightBooking
	LoungePasses   []LoungePassBooking
	Payments       []PaymentRow
	Total          string
	LogoDataURI    string
}
