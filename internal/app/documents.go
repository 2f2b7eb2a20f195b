package app

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"travel_backoffice/internal/adapters/observability"
	"travel_backoffice/internal/domain"
)

// DocumentService assembles quote and booking documents and hands them to
// the PDF renderer.
type DocumentService struct {
	quotes   domain.QuoteRepository
	bookings domain.BookingRepository
	renderer domain.DocumentRenderer
	logo     domain.LogoSource
	clock    domain.Clock
	loc      *time.Location
}

func NewDocumentService(
	q domain.QuoteRepository,
	b domain.BookingRepository,
	r domain.DocumentRenderer,
	logo domain.LogoSource,
	clock domain.Clock,
	loc *time.Location,
) *DocumentService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DocumentService{quotes: q, bookings: b, renderer: r, logo: logo, clock: clock, loc: loc}
}

// QuotePDF renders the quote and returns the download filename with the bytes.
func (s *DocumentService) QuotePDF(ctx context.Context, quoteID string) (string, []byte, error) {
	q, err := s.quotes.GetQuote(ctx, quoteID)
	if err != nil {
		return "", nil, err
	}
	doc := s.BuildQuoteDocument(q)
	doc.LogoDataURI = s.logoURI(ctx)

	out, err := s.renderer.RenderQuote(ctx, doc)
	observability.ObserveDocument("quote", err)
	if err != nil {
		return "", nil, fmt.Errorf("render quote %s: %w", q.QuoteNumber, err)
	}
	return s.filename("quote", q.QuoteNumber), out, nil
}

func (s *DocumentService) BookingPDF(ctx context.Context, bookingID string) (string, []byte, error) {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return "", nil, err
	}
	q, err := s.quotes.GetQuote(ctx, b.QuoteID)
	if err != nil {
		return "", nil, fmt.Errorf("load quote for booking %s: %w", b.Reference, err)
	}
	doc := s.BuildBookingDocument(b, q)
	doc.LogoDataURI = s.logoURI(ctx)

	out, err := s.renderer.RenderBooking(ctx, doc)
	observability.ObserveDocument("booking", err)
	if err != nil {
		return "", nil, fmt.Errorf("render booking %s: %w", b.Reference, err)
	}
	return s.filename("booking", b.Reference), out, nil
}

// logoURI never fails the document: a missing logo is rendered without one.
func (s *DocumentService) logoURI(ctx context.Context) string {
	if s.logo == nil {
		return ""
	}
	uri, err := s.logo.DataURI(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("logo unavailable; rendering without it")
		return ""
	}
	return uri
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *DocumentService) filename(kind, number string) string {
	return fmt.Sprintf("%s-%s-%s.pdf", kind, unsafeFilename.ReplaceAllString(number, "-"),
		s.clock.Now().In(s.loc).Format(isoDate))
}

func (s *DocumentService) BuildQuoteDocument(q domain.Quote) domain.QuoteDocument {
	flights, others := s.sections(q)
	return domain.QuoteDocument{
		QuoteNumber: q.QuoteNumber,
		IssuedOn:    s.clock.Now().In(s.loc).Format(displayDate),
		ClientName:  orDefault(q.ClientName(), notAvailable),
		ClientEmail: orDefault(q.ClientEmail, notAvailable),
		ClientPhone: orDefault(q.ClientPhone, notAvailable),
		EventName:   orDefault(q.EventName, notAvailable),
		EventDates:  eventDates(q, s.loc),
		Location:    orDefault(q.EventLocation, notAvailable),
		PackageName: orDefault(q.PackageName, notAvailable),
		TierName:    orDefault(q.TierName, notAvailable),
		Adults:      q.TravelersAdults,
		Children:    q.TravelersChildren,
		Status:      FormatLabel(string(q.Status)),
		Components:  others,
		Flights:     flights,
		Payments:    paymentRows(q.PaymentSchedule, q.Currency),
		Total:       formatMoney(q.TotalPrice, q.Currency),
	}
}

func (s *DocumentService) BuildBookingDocument(b domain.Booking, q domain.Quote) domain.BookingDocument {
	flights, others := s.sections(q)
	currency := orDefault(b.Currency, q.Currency)
	return domain.BookingDocument{
		Reference:      b.Reference,
		QuoteNumber:    q.QuoteNumber,
		IssuedOn:       s.clock.Now().In(s.loc).Format(displayDate),
		LeadTraveler:   b.LeadTraveler,
		GuestTravelers: b.GuestTravelers,
		EventName:      orDefault(q.EventName, notAvailable),
		EventDates:     eventDates(q, s.loc),
		Location:       orDefault(q.EventLocation, notAvailable),
		PackageName:    orDefault(q.PackageName, notAvailable),
		Components:     others,
		Flights:        flights,
		FlightBookings: b.Flights,
		LoungePasses:   b.LoungePasses,
		Payments:       paymentRows(b.PaymentSchedule(q), currency),
		Total:          formatMoney(b.TotalPrice, currency),
	}
}

// sections splits the quote's components into flight sections and the
// generic component table.
func (s *DocumentService) sections(q domain.Quote) ([]domain.FlightSection, []domain.ComponentInfo) {
	flights, others := PartitionComponents(NormalizeSelectedComponents(q.SelectedComponents))

	fs := make([]domain.FlightSection, 0, len(flights))
	for _, f := range flights {
		out, ret := ResolveItinerary(f, Outbound), ResolveItinerary(f, Return)
		pax := buildFlightData(f).PassengerCount
		if pax == 0 {
			pax = q.TravelersAdults + q.TravelersChildren
		}
		fs = append(fs, domain.FlightSection{
			Summary:        ExtractFlightInfo(f, s.loc),
			Outbound:       SegmentRows(out, s.loc),
			OutboundShared: SharedInfoFor(out),
			Return:         SegmentRows(ret, s.loc),
			ReturnShared:   SharedInfoFor(ret),
			Passengers:     pax,
		})
	}

	cs := make([]domain.ComponentInfo, 0, len(others))
	for _, o := range others {
		cs = append(cs, ExtractComponentInfo(o))
	}
	return fs, cs
}

func eventDates(q domain.Quote, loc *time.Location) string {
	switch {
	case q.EventStartDate == nil && q.EventEndDate == nil:
		return notAvailable
	case q.EventEndDate == nil:
		return q.EventStartDate.In(loc).Format(displayDate)
	case q.EventStartDate == nil:
		return q.EventEndDate.In(loc).Format(displayDate)
	}
	return q.EventStartDate.In(loc).Format(displayDate) + " - " + q.EventEndDate.In(loc).Format(displayDate)
}

func paymentRows(ps domain.PaymentSchedule, currency string) []domain.PaymentRow {
	var rows []domain.PaymentRow
	for _, p := range []struct {
		label string
		pay   domain.Payment
	}{
		{"Deposit", ps.Deposit},
		{"Second Payment", ps.SecondPayment},
		{"Final Payment", ps.FinalPayment},
	} {
		if p.pay.Amount == 0 && p.pay.DueDate == "" {
			continue
		}
		due := notAvailable
		if p.pay.DueDate != "" {
			due = formatDate(p.pay.DueDate)
		}
		rows = append(rows, domain.PaymentRow{Label: p.label, Amount: formatMoney(p.pay.Amount, currency), DueDate: due})
	}
	return rows
}
