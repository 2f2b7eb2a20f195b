package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel_backoffice/internal/domain"
)

type captureRenderer struct {
	quote   *domain.QuoteDocument
	booking *domain.BookingDocument
	err     error
}

func (r *captureRenderer) RenderQuote(_ context.Context, d domain.QuoteDocument) ([]byte, error) {
	r.quote = &d
	return []byte("%PDF-quote"), r.err
}

func (r *captureRenderer) RenderBooking(_ context.Context, d domain.BookingDocument) ([]byte, error) {
	r.booking = &d
	return []byte("%PDF-booking"), r.err
}

type stubLogo struct {
	uri string
	err error
}

func (l stubLogo) DataURI(context.Context) (string, error) { return l.uri, l.err }

func newDocSvc(logo domain.LogoSource, bookings ...domain.Booking) (*DocumentService, *captureRenderer) {
	q := bookableQuote()
	start := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	q.EventName, q.EventStartDate, q.EventEndDate = "Spanish Grand Prix", &start, &end
	q.SelectedComponents = append(q.SelectedComponents.([]any), map[string]any{
		"component_type": "flight",
		"outboundFlightSegments": []any{map[string]any{
			"departureAirportId": "LHR", "arrivalAirportId": "JFK", "flightDuration": "8h",
		}},
	})
	r := &captureRenderer{}
	clk := &fakeClock{now: time.Date(2025, 2, 3, 23, 30, 0, 0, time.UTC)}
	return NewDocumentService(newFakeQuotes(q), newFakeBookings(bookings...), r, logo, clk, time.UTC), r
}

func TestQuotePDF(t *testing.T) {
	svc, r := newDocSvc(stubLogo{uri: "data:image/png;base64,AAAA"})

	name, pdf, err := svc.QuotePDF(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, "quote-Q-1001-2025-02-03.pdf", name)
	assert.Equal(t, []byte("%PDF-quote"), pdf)

	doc := r.quote
	require.NotNil(t, doc)
	assert.Equal(t, "Ada Lovelace", doc.ClientName)
	assert.Equal(t, "13 Jun 2025 - 15 Jun 2025", doc.EventDates)
	assert.Equal(t, "GBP 4,500.00", doc.Total)
	assert.Equal(t, "data:image/png;base64,AAAA", doc.LogoDataURI)
	require.Len(t, doc.Payments, 3)
	assert.Equal(t, domain.PaymentRow{Label: "Deposit", Amount: "GBP 1,500.00", DueDate: "01 Mar 2025"}, doc.Payments[0])

	require.Len(t, doc.Flights, 3)
	require.Len(t, doc.Components, 2)
	assert.Equal(t, "Ticket", doc.Components[0].Name)
	assert.Equal(t, "Lounge Pass", doc.Components[1].Name)

	last := doc.Flights[2]
	require.Len(t, last.Outbound, 1)
	assert.Equal(t, "LHR", last.Outbound[0].Departure)
	assert.Empty(t, last.Return)
	assert.Equal(t, "N/A", last.ReturnShared.Airline)
	assert.Equal(t, 3, last.Passengers)
}

func TestQuotePDF_LogoFailureDoesNotAbort(t *testing.T) {
	svc, r := newDocSvc(stubLogo{err: errors.New("timeout")})
	_, _, err := svc.QuotePDF(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Empty(t, r.quote.LogoDataURI)
}

func TestQuotePDF_Errors(t *testing.T) {
	svc, r := newDocSvc(nil)
	_, _, err := svc.QuotePDF(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	r.err = errors.New("chrome crashed")
	_, _, err = svc.QuotePDF(context.Background(), "q-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render quote Q-1001")
}

func TestBookingPDF(t *testing.T) {
	adj := &domain.PaymentSchedule{Deposit: domain.Payment{Amount: 4500, DueDate: "2025-02-10"}}
	b := domain.Booking{
		ID: "b-1", QuoteID: "q-1", Reference: "BK-20250203-0F8FAD5B",
		LeadTraveler:            domain.Traveler{FirstName: "Ada", LastName: "Lovelace"},
		AdjustedPaymentSchedule: adj,
		Flights:                 []domain.FlightBooking{{BookingRef: "ABC123", FlightStatus: domain.FlightTicketed}},
		TotalPrice:              4500, Currency: "GBP",
	}
	svc, r := newDocSvc(nil, b)

	name, _, err := svc.BookingPDF(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "booking-BK-20250203-0F8FAD5B-2025-02-03.pdf", name)

	doc := r.booking
	require.NotNil(t, doc)
	assert.Equal(t, "Q-1001", doc.QuoteNumber)
	require.Len(t, doc.Payments, 1)
	assert.Equal(t, "GBP 4,500.00", doc.Payments[0].Amount)
	assert.Equal(t, "ABC123", doc.FlightBookings[0].BookingRef)

	_, _, err = svc.BookingPDF(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
