package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	drv "github.com/go-sql-driver/mysql"

	"travel_backoffice/internal/domain"
)

const (
	errDupEntry        = 1062
	errNoReferenced    = 1452
	errRowIsReferenced = 1451
)

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func ptrTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
func ptrInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func isMySQLErr(err error, number uint16) bool {
	var me *drv.MySQLError
	return errors.As(err, &me) && me.Number == number
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Repo persists quotes and bookings.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func scanQuote(s scanner) (domain.Quote, error) {
	var (
		q              domain.Quote
		start, end     sql.NullTime
		status         string
		schedule, comp []byte
	)
	err := s.Scan(
		&q.ID, &q.QuoteNumber, &q.ClientFirstName, &q.ClientLastName, &q.ClientEmail, &q.ClientPhone,
		&q.EventName, &q.EventLocation, &start, &end, &q.PackageName, &q.TierName,
		&q.TravelersAdults, &q.TravelersChildren, &q.TotalPrice, &q.Currency, &status,
		&schedule, &comp, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return domain.Quote{}, err
	}
	q.Status = domain.QuoteStatus(status)
	q.EventStartDate, q.EventEndDate = ptrTime(start), ptrTime(end)
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &q.PaymentSchedule); err != nil {
			return domain.Quote{}, fmt.Errorf("quote %s payment_schedule: %w", q.ID, err)
		}
	}
	if len(comp) > 0 {
		if err := json.Unmarshal(comp, &q.SelectedComponents); err != nil {
			return domain.Quote{}, fmt.Errorf("quote %s selected_components: %w", q.ID, err)
		}
	}
	return q, nil
}

func (r *Repo) GetQuote(ctx context.Context, id string) (domain.Quote, error) {
	q, err := scanQuote(r.db.QueryRowContext(ctx, getQuoteSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quote{}, domain.ErrNotFound
	}
	return q, err
}

// CreateQuote inserts a quote as produced by the upstream quote builder.
func (r *Repo) CreateQuote(ctx context.Context, q domain.Quote) error {
	schedule, err := valJSON(q.PaymentSchedule)
	if err != nil {
		return err
	}
	comp, err := valJSON(q.SelectedComponents)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, insertQuoteSQL,
		q.ID, q.QuoteNumber, q.ClientFirstName, q.ClientLastName, q.ClientEmail, q.ClientPhone,
		q.EventName, q.EventLocation, valTime(q.EventStartDate), valTime(q.EventEndDate),
		q.PackageName, q.TierName, q.TravelersAdults, q.TravelersChildren,
		q.TotalPrice, q.Currency, string(q.Status), schedule, comp,
	)
	if isMySQLErr(err, errDupEntry) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *Repo) UpdateQuote(ctx context.Context, q domain.Quote) error {
	schedule, err := valJSON(q.PaymentSchedule)
	if err != nil {
		return err
	}
	comp, err := valJSON(q.SelectedComponents)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateQuoteSQL,
		q.ClientFirstName, q.ClientLastName, q.ClientEmail, q.ClientPhone,
		q.EventName, q.EventLocation, valTime(q.EventStartDate), valTime(q.EventEndDate),
		q.PackageName, q.TierName, q.TravelersAdults, q.TravelersChildren,
		q.TotalPrice, q.Currency, string(q.Status), schedule, comp,
		q.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// MySQL reports zero affected rows for an unchanged row as well.
	var one int
	err = r.db.QueryRowContext(ctx, quoteExistsSQL, q.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *Repo) ListQuoteIDs(ctx context.Context, status domain.QuoteStatus) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx, listQuoteIDsSQL)
	} else {
		rows, err = r.db.QueryContext(ctx, listQuoteIDsByStatusSQL, string(status))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b                   domain.Booking
		lead, guests, sched []byte
		notes               sql.NullString
	)
	err := s.Scan(&b.ID, &b.Reference, &b.QuoteID, &lead, &guests, &sched,
		&b.TotalPrice, &b.Currency, &notes, &b.CreatedAt)
	if err != nil {
		return domain.Booking{}, err
	}
	b.Notes = notes.String
	if err := json.Unmarshal(lead, &b.LeadTraveler); err != nil {
		return domain.Booking{}, fmt.Errorf("booking %s lead_traveler: %w", b.ID, err)
	}
	if err := json.Unmarshal(guests, &b.GuestTravelers); err != nil {
		return domain.Booking{}, fmt.Errorf("booking %s guest_travelers: %w", b.ID, err)
	}
	if len(sched) > 0 && string(sched) != "null" {
		var ps domain.PaymentSchedule
		if err := json.Unmarshal(sched, &ps); err != nil {
			return domain.Booking{}, fmt.Errorf("booking %s adjusted_payment_schedule: %w", b.ID, err)
		}
		b.AdjustedPaymentSchedule = &ps
	}
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return r.loadBooking(ctx, getBookingSQL, id)
}

func (r *Repo) GetBookingByQuote(ctx context.Context, quoteID string) (domain.Booking, error) {
	return r.loadBooking(ctx, getBookingByQuoteSQL, quoteID)
}

func (r *Repo) loadBooking(ctx context.Context, query string, arg string) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	if b.Flights, err = r.bookingFlights(ctx, b.ID); err != nil {
		return domain.Booking{}, err
	}
	if b.LoungePasses, err = r.bookingLounges(ctx, b.ID); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *Repo) bookingFlights(ctx context.Context, bookingID string) ([]domain.FlightBooking, error) {
	rows, err := r.db.QueryContext(ctx, listBookingFlightsSQL, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.FlightBooking{}
	for rows.Next() {
		var (
			f      domain.FlightBooking
			status string
		)
		if err := rows.Scan(&f.BookingRef, &f.TicketingDeadline, &status, &f.Notes); err != nil {
			return nil, err
		}
		f.FlightStatus = domain.FlightStatus(status)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) bookingLounges(ctx context.Context, bookingID string) ([]domain.LoungePassBooking, error) {
	rows, err := r.db.QueryContext(ctx, listBookingLoungesSQL, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.LoungePassBooking{}
	for rows.Next() {
		var l domain.LoungePassBooking
		if err := rows.Scan(&l.BookingRef, &l.Notes); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateBooking writes the booking and its per-flight and per-lounge rows in
// one transaction. The unique key on quote_id enforces one booking per quote.
func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (err error) {
	lead, err := valJSON(b.LeadTraveler)
	if err != nil {
		return err
	}
	guests := b.GuestTravelers
	if guests == nil {
		guests = []domain.Traveler{}
	}
	guestJSON, err := valJSON(guests)
	if err != nil {
		return err
	}
	var sched any
	if b.AdjustedPaymentSchedule != nil {
		if sched, err = valJSON(b.AdjustedPaymentSchedule); err != nil {
			return err
		}
	}
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, insertBookingSQL,
		b.ID, b.Reference, b.QuoteID, lead, guestJSON, sched,
		b.TotalPrice, b.Currency, b.Notes, createdAt,
	)
	switch {
	case isMySQLErr(err, errDupEntry):
		return domain.ErrAlreadyExists
	case isMySQLErr(err, errNoReferenced):
		return fmt.Errorf("quote %s: %w", b.QuoteID, domain.ErrNotFound)
	case err != nil:
		return err
	}

	for i, f := range b.Flights {
		status := f.FlightStatus
		if status == "" {
			status = domain.FlightPending
		}
		if _, err = tx.ExecContext(ctx, insertBookingFlightSQL,
			b.ID, i, f.BookingRef, f.TicketingDeadline, string(status), f.Notes); err != nil {
			return err
		}
	}
	for i, l := range b.LoungePasses {
		if _, err = tx.ExecContext(ctx, insertBookingLoungeSQL, b.ID, i, l.BookingRef, l.Notes); err != nil {
			return err
		}
	}
	return tx.Commit()
}
