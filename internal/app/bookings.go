package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"travel_backoffice/internal/domain"
)

// paymentTolerance is the absolute difference allowed between an adjusted
// schedule and the quote total. The epsilon absorbs binary float error so
// that a difference of exactly one penny passes.
const paymentTolerance = 0.01 + 1e-9

type BookingService struct {
	quotes   domain.QuoteRepository
	bookings domain.BookingRepository
	clock    domain.Clock
	newID    func() string
}

func NewBookingService(q domain.QuoteRepository, b domain.BookingRepository, clock domain.Clock) *BookingService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &BookingService{quotes: q, bookings: b, clock: clock, newID: uuid.NewString}
}

// PrepareBookingForm loads the quote and either prefills a new booking form
// or, when the quote was already booked, returns the read-only booked view.
func (s *BookingService) PrepareBookingForm(ctx context.Context, quoteID string) (domain.BookingForm, error) {
	q, err := s.quotes.GetQuote(ctx, quoteID)
	if err != nil {
		return domain.BookingForm{}, err
	}
	existing, err := s.existingBooking(ctx, quoteID)
	if err != nil {
		return domain.BookingForm{}, err
	}
	if existing != nil {
		return domain.BookingForm{State: domain.FormBooked, Quote: q, Existing: existing}, nil
	}

	guests := q.TravelersAdults - 1
	if guests < 0 {
		guests = 0
	}
	flights, lounges := bookableComponents(q)
	form := domain.BookingForm{
		State: domain.FormReady,
		Quote: q,
		LeadTraveler: domain.Traveler{
			FirstName: q.ClientFirstName,
			LastName:  q.ClientLastName,
			Email:     q.ClientEmail,
			Phone:     q.ClientPhone,
		},
		GuestTravelers:  make([]domain.Traveler, guests),
		PaymentSchedule: q.PaymentSchedule,
		Flights:         make([]domain.FlightBooking, flights),
		LoungePasses:    make([]domain.LoungePassBooking, lounges),
	}
	for i := range form.Flights {
		form.Flights[i].FlightStatus = domain.FlightPending
	}
	return form, nil
}

// CreateFromQuote validates the submitted form against its quote and
// persists the booking. A quote that already has a booking short-circuits
// with ErrAlreadyExists and the existing booking, without issuing a create.
func (s *BookingService) CreateFromQuote(ctx context.Context, in domain.CreateBookingData) (*domain.Booking, error) {
	if strings.TrimSpace(in.QuoteID) == "" {
		return nil, domain.Invalid("quoteId", "Quote id is required")
	}
	q, err := s.quotes.GetQuote(ctx, in.QuoteID)
	if err != nil {
		return nil, err
	}
	existing, err := s.existingBooking(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, domain.ErrAlreadyExists
	}

	if err := validateBooking(q, &in); err != nil {
		return nil, err
	}

	id := s.newID()
	b := domain.Booking{
		ID:             id,
		Reference:      bookingReference(id, s.clock),
		QuoteID:        q.ID,
		LeadTraveler:   trimTraveler(in.LeadTraveler),
		GuestTravelers: make([]domain.Traveler, 0, len(in.GuestTravelers)),
		Flights:        in.Flights,
		LoungePasses:   in.LoungePasses,
		TotalPrice:     q.TotalPrice,
		Currency:       q.Currency,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      s.clock.Now().UTC(),
	}
	for _, g := range in.GuestTravelers {
		b.GuestTravelers = append(b.GuestTravelers, trimTraveler(g))
	}
	if in.OverridePaymentSchedule {
		ps := *in.AdjustedPaymentSchedule
		b.AdjustedPaymentSchedule = &ps
	}

	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	log.Info().Str("booking_id", b.ID).Str("quote_id", q.ID).Str("reference", b.Reference).Msg("booking created")
	return &b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return s.bookings.GetBooking(ctx, id)
}

func (s *BookingService) existingBooking(ctx context.Context, quoteID string) (*domain.Booking, error) {
	b, err := s.bookings.GetBookingByQuote(ctx, quoteID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("lookup booking for quote %s: %w", quoteID, err)
	}
	return &b, nil
}

// validateBooking applies the submission guards in order and normalizes
// sub-form defaults in place.
func validateBooking(q domain.Quote, in *domain.CreateBookingData) error {
	if !q.Status.Bookable() {
		return domain.Invalid("status", fmt.Sprintf(
			"Quote must be sent, accepted or confirmed before it can be booked (current status: %s)", q.Status))
	}

	if got := 1 + len(in.GuestTravelers); got != q.TravelersAdults {
		return domain.Invalid("guestTravelers", fmt.Sprintf(
			"Traveler count mismatch: quote has %d adults but %d travelers were provided", q.TravelersAdults, got))
	}

	var errs domain.ValidationErrors
	// blank lead name parts fall back to the quote's client, as prefilled
	lead := &in.LeadTraveler
	if strings.TrimSpace(lead.FirstName) == "" {
		lead.FirstName = q.ClientFirstName
	}
	if strings.TrimSpace(lead.LastName) == "" {
		lead.LastName = q.ClientLastName
	}
	if strings.TrimSpace(lead.FirstName) == "" && strings.TrimSpace(lead.LastName) == "" {
		errs = append(errs, domain.Invalid("leadTraveler",
			"Lead traveler requires a name, and the quote has no client name to use instead"))
	}
	for i, g := range in.GuestTravelers {
		if strings.TrimSpace(g.FirstName) == "" || strings.TrimSpace(g.LastName) == "" {
			errs = append(errs, domain.Invalid(fmt.Sprintf("guestTravelers[%d]", i),
				fmt.Sprintf("Guest traveler %d requires a first and last name", i+1)))
		}
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	if in.OverridePaymentSchedule {
		if in.AdjustedPaymentSchedule == nil {
			return domain.Invalid("adjustedPaymentSchedule", "Adjusted payment schedule is required when overriding")
		}
		if err := checkPaymentTotal(*in.AdjustedPaymentSchedule, q.TotalPrice); err != nil {
			return err
		}
	}

	flights, lounges := bookableComponents(q)
	if len(in.Flights) > flights {
		return domain.Invalid("flights", fmt.Sprintf(
			"%d flight bookings submitted but the quote has %d flights", len(in.Flights), flights))
	}
	if len(in.LoungePasses) > lounges {
		return domain.Invalid("loungePasses", fmt.Sprintf(
			"%d lounge pass bookings submitted but the quote has %d lounge passes", len(in.LoungePasses), lounges))
	}
	for i := range in.Flights {
		f := &in.Flights[i]
		if f.FlightStatus == "" {
			f.FlightStatus = domain.FlightPending
		}
		if !f.FlightStatus.Valid() {
			return domain.Invalid(fmt.Sprintf("flights[%d].flightStatus", i),
				fmt.Sprintf("Unknown flight status %q", f.FlightStatus))
		}
	}
	return nil
}

func checkPaymentTotal(ps domain.PaymentSchedule, total float64) error {
	sum := ps.Total()
	if math.Abs(sum-total) > paymentTolerance {
		return domain.Invalid("adjustedPaymentSchedule", fmt.Sprintf(
			"Adjusted payments total %s but the quote total is %s (difference %s)",
			paymentAmount(sum), paymentAmount(total), paymentAmount(sum-total)))
	}
	return nil
}

// paymentAmount prints two decimals unless that would hide a sub-cent
// difference the tolerance check cares about.
func paymentAmount(v float64) string {
	if math.Abs(v*100-math.Round(v*100)) > 1e-6 {
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// bookableComponents counts the quote's flight and lounge-pass components;
// booking sub-forms are aligned with them by position.
func bookableComponents(q domain.Quote) (flights, lounges int) {
	raw := NormalizeSelectedComponents(q.SelectedComponents)
	fl, others := PartitionComponents(raw)
	for _, o := range others {
		if NormalizeComponent(o).Type == domain.ComponentLoungePass {
			lounges++
		}
	}
	return len(fl), lounges
}

func bookingReference(id string, clock domain.Clock) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return "BK-" + clock.Now().UTC().Format("20060102") + "-" + short
}

func trimTraveler(t domain.Traveler) domain.Traveler {
	return domain.Traveler{
		FirstName:   strings.TrimSpace(t.FirstName),
		LastName:    strings.TrimSpace(t.LastName),
		Email:       strings.TrimSpace(t.Email),
		Phone:       strings.TrimSpace(t.Phone),
		DateOfBirth: strings.TrimSpace(t.DateOfBirth),
	}
}

// FriendlyBookingError turns a backend failure into the message shown to
// the operator. Unrecognized errors are echoed verbatim.
func FriendlyBookingError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	low := strings.ToLower(msg)
	switch {
	case errors.Is(err, domain.ErrAlreadyExists) || strings.Contains(low, "already exists"):
		return "A booking already exists for this quote."
	case errors.Is(err, domain.ErrNotAvailable) || strings.Contains(low, "not available"):
		return "One or more selected components are no longer available."
	case errors.Is(err, domain.ErrNotFound) || strings.Contains(low, "not found"):
		return "The quote could not be found. It may have been deleted."
	}
	return msg
}
