package domain

import "time"

type FlightStatus string

const (
	FlightPending   FlightStatus = "pending"
	FlightBooked    FlightStatus = "booked"
	FlightTicketed  FlightStatus = "ticketed"
	FlightConfirmed FlightStatus = "confirmed"
	FlightCancelled FlightStatus = "cancelled"
)

func (s FlightStatus) Valid() bool {
	switch s {
	case FlightPending, FlightBooked, FlightTicketed, FlightConfirmed, FlightCancelled:
		return true
	}
	return false
}

type Traveler struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// FlightBooking is positionally aligned with the quote's flight components.
type FlightBooking struct {
	BookingRef        string       `json:"bookingRef"`
	TicketingDeadline string       `json:"ticketingDeadline,omitempty"`
	FlightStatus      FlightStatus `json:"flightStatus"`
	Notes             string       `json:"notes,omitempty"`
}

type LoungePassBooking struct {
	BookingRef string `json:"bookingRef"`
	Notes      string `json:"notes,omitempty"`
}

type Booking struct {
	ID                      string              `json:"id"`
	Reference               string              `json:"reference"`
	QuoteID                 string              `json:"quoteId"`
	LeadTraveler            Traveler            `json:"leadTraveler"`
	GuestTravelers          []Traveler          `json:"guestTravelers"`
	AdjustedPaymentSchedule *PaymentSchedule    `json:"adjustedPaymentSchedule,omitempty"`
	Flights                 []FlightBooking     `json:"flights"`
	LoungePasses            []LoungePassBooking `json:"loungePasses"`
	TotalPrice              float64             `json:"totalPrice"`
	Currency                string              `json:"currency"`
	Notes                   string              `json:"notes,omitempty"`
	CreatedAt               time.Time           `json:"createdAt"`
}

// PaymentSchedule returns the override when present, else the quote's schedule.
func (b Booking) PaymentSchedule(q Quote) PaymentSchedule {
	if b.AdjustedPaymentSchedule != nil {
		return *b.AdjustedPaymentSchedule
	}
	return q.PaymentSchedule
}

// CreateBookingData is the submitted booking form.
type CreateBookingData struct {
	QuoteID                 string              `json:"quoteId"`
	LeadTraveler            Traveler            `json:"leadTraveler"`
	GuestTravelers          []Traveler          `json:"guestTravelers"`
	OverridePaymentSchedule bool                `json:"overridePaymentSchedule"`
	AdjustedPaymentSchedule *PaymentSchedule    `json:"adjustedPaymentSchedule,omitempty"`
	Flights                 []FlightBooking     `json:"flights"`
	LoungePasses            []LoungePassBooking `json:"loungePasses"`
	Notes                   string              `json:"notes,omitempty"`
}

type BookingFormState string

const (
	FormReady  BookingFormState = "ready"
	FormBooked BookingFormState = "booked"
)

// BookingForm is the prefilled form for a quote, or the read-only view of
// the booking that already exists for it.
type BookingForm struct {
	State           BookingFormState    `json:"state"`
	Quote           Quote               `json:"quote"`
	Existing        *Booking            `json:"existing,omitempty"`
	LeadTraveler    Traveler            `json:"leadTraveler"`
	GuestTravelers  []Traveler          `json:"guestTravelers"`
	PaymentSchedule PaymentSchedule     `json:"paymentSchedule"`
	Flights         []FlightBooking     `json:"flights"`
	LoungePasses    []LoungePassBooking `json:"loungePasses"`
}
