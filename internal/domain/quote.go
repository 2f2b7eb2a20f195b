package domain

import "time"

type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteSent      QuoteStatus = "sent"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteDeclined  QuoteStatus = "declined"
	QuoteExpired   QuoteStatus = "expired"
	QuoteConfirmed QuoteStatus = "confirmed"
	QuoteCancelled QuoteStatus = "cancelled"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteDraft, QuoteSent, QuoteAccepted, QuoteDeclined, QuoteExpired, QuoteConfirmed, QuoteCancelled:
		return true
	}
	return false
}

// Bookable reports whether a quote in this status may be promoted to a booking.
func (s QuoteStatus) Bookable() bool {
	return s == QuoteSent || s == QuoteAccepted || s == QuoteConfirmed
}

type Quote struct {
	ID                string          `json:"id"`
	QuoteNumber       string          `json:"quoteNumber"`
	ClientFirstName   string          `json:"clientFirstName"`
	ClientLastName    string          `json:"clientLastName"`
	ClientEmail       string          `json:"clientEmail"`
	ClientPhone       string          `json:"clientPhone"`
	EventName         string          `json:"eventName"`
	EventLocation     string          `json:"eventLocation"`
	EventStartDate    *time.Time      `json:"eventStartDate,omitempty"`
	EventEndDate      *time.Time      `json:"eventEndDate,omitempty"`
	PackageName       string          `json:"packageName"`
	TierName          string          `json:"tierName"`
	TravelersAdults   int             `json:"travelersAdults"`
	TravelersChildren int             `json:"travelersChildren"`
	TotalPrice        float64         `json:"totalPrice"`
	Currency          string          `json:"currency"`
	Status            QuoteStatus     `json:"status"`
	PaymentSchedule   PaymentSchedule `json:"paymentSchedule"`
	// SelectedComponents is the stored payload, either an array of component
	// records or the legacy object keyed by component type.
	SelectedComponents any       `json:"selectedComponents"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (q Quote) ClientName() string {
	switch {
	case q.ClientFirstName == "":
		return q.ClientLastName
	case q.ClientLastName == "":
		return q.ClientFirstName
	}
	return q.ClientFirstName + " " + q.ClientLastName
}

type Payment struct {
	Amount  float64 `json:"amount"`
	DueDate string  `json:"dueDate"` // YYYY-MM-DD
}

type PaymentSchedule struct {
	Deposit       Payment `json:"deposit"`
	SecondPayment Payment `json:"secondPayment"`
	FinalPayment  Payment `json:"finalPayment"`
}

func (p PaymentSchedule) Total() float64 {
	return p.Deposit.Amount + p.SecondPayment.Amount + p.FinalPayment.Amount
}
