//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel_backoffice/internal/domain"
	mysqlrepo "travel_backoffice/internal/storage/mysql"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// startMySQL runs an isolated MySQL container and returns a migrated pool.
func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=backoffice",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/backoffice?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func seedQuote(id, number string) domain.Quote {
	start := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	return domain.Quote{
		ID:                id,
		QuoteNumber:       number,
		ClientFirstName:   "Jane",
		ClientLastName:    "Doe",
		ClientEmail:       "jane@example.com",
		EventName:         "British Grand Prix",
		EventLocation:     "Silverstone",
		EventStartDate:    &start,
		EventEndDate:      &end,
		PackageName:       "Grandstand",
		TierName:          "Gold",
		TravelersAdults:   2,
		TotalPrice:        1000,
		Currency:          "GBP",
		Status:            domain.QuoteSent,
		PaymentSchedule: domain.PaymentSchedule{
			Deposit:       domain.Payment{Amount: 300, DueDate: "2025-03-01"},
			SecondPayment: domain.Payment{Amount: 300, DueDate: "2025-05-01"},
			FinalPayment:  domain.Payment{Amount: 400, DueDate: "2025-06-01"},
		},
		SelectedComponents: []any{
			map[string]any{"type": "ticket", "quantity": float64(2), "data": map[string]any{"categoryName": "Club"}},
			map[string]any{"componentType": "flight", "data": map[string]any{"origin": "LHR", "destination": "BCN"}},
		},
	}
}

func TestRepo_MySQL_QuotesAndBookings(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	q := seedQuote("q-1", "Q-0001")
	require.NoError(t, repo.CreateQuote(ctx, q))
	require.ErrorIs(t, repo.CreateQuote(ctx, q), domain.ErrAlreadyExists)

	got, err := repo.GetQuote(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "Q-0001", got.QuoteNumber)
	assert.Equal(t, domain.QuoteSent, got.Status)
	assert.InDelta(t, 300, got.PaymentSchedule.Deposit.Amount, 1e-9)
	require.NotNil(t, got.EventStartDate)
	assert.Equal(t, "2025-07-04", got.EventStartDate.Format("2006-01-02"))
	comps, ok := got.SelectedComponents.([]any)
	require.True(t, ok)
	assert.Len(t, comps, 2)

	_, err = repo.GetQuote(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got.Status = domain.QuoteAccepted
	require.NoError(t, repo.UpdateQuote(ctx, got))
	require.NoError(t, repo.UpdateQuote(ctx, got), "unchanged row is not a miss")
	assert.ErrorIs(t, repo.UpdateQuote(ctx, domain.Quote{ID: "missing"}), domain.ErrNotFound)

	ids, err := repo.ListQuoteIDs(ctx, domain.QuoteAccepted)
	require.NoError(t, err)
	assert.Equal(t, []string{"q-1"}, ids)

	_, err = repo.GetBookingByQuote(ctx, "q-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	adjusted := got.PaymentSchedule
	b := domain.Booking{
		ID:                      "b-1",
		Reference:               "BK-20250101-ABCDEF12",
		QuoteID:                 "q-1",
		LeadTraveler:            domain.Traveler{FirstName: "Jane", LastName: "Doe"},
		GuestTravelers:          []domain.Traveler{{FirstName: "John", LastName: "Doe"}},
		AdjustedPaymentSchedule: &adjusted,
		Flights:                 []domain.FlightBooking{{BookingRef: "ABC123", FlightStatus: domain.FlightTicketed}},
		LoungePasses:            []domain.LoungePassBooking{{BookingRef: "LNG-1"}},
		TotalPrice:              1000,
		Currency:                "GBP",
		CreatedAt:               time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateBooking(ctx, b))

	dup := b
	dup.ID, dup.Reference = "b-2", "BK-20250101-00000000"
	assert.ErrorIs(t, repo.CreateBooking(ctx, dup), domain.ErrAlreadyExists)

	orphan := b
	orphan.ID, orphan.Reference, orphan.QuoteID = "b-3", "BK-20250101-11111111", "nope"
	assert.ErrorIs(t, repo.CreateBooking(ctx, orphan), domain.ErrNotFound)

	stored, err := repo.GetBookingByQuote(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", stored.ID)
	require.Len(t, stored.Flights, 1)
	assert.Equal(t, domain.FlightTicketed, stored.Flights[0].FlightStatus)
	require.Len(t, stored.LoungePasses, 1)
	require.NotNil(t, stored.AdjustedPaymentSchedule)
	assert.Equal(t, "John", stored.GuestTravelers[0].FirstName)

	byID, err := repo.GetBooking(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, stored.Reference, byID.Reference)
}

func TestTable_MySQL_InventoryCRUD(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()

	venues := mysqlrepo.NewVenueStore(db)
	v, err := venues.Create(ctx, domain.Venue{Name: "Silverstone", City: "Towcester", Country: "UK", Timezone: "Europe/London"})
	require.NoError(t, err)
	assert.NotZero(t, v.ID)

	cats := mysqlrepo.NewTicketCategoryStore(db)
	_, err = cats.Create(ctx, domain.TicketCategory{VenueID: 9999, CategoryName: "Orphan"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	c, err := cats.Create(ctx, domain.TicketCategory{VenueID: v.ID, CategoryName: "Club Corner", Active: true})
	require.NoError(t, err)
	assert.True(t, c.Active)

	err = venues.Delete(ctx, v.ID)
	assert.ErrorIs(t, err, domain.ErrNotAvailable)

	flights := mysqlrepo.NewFlightStore(db)
	dep := func(day int) *time.Time {
		d := time.Date(2025, 7, day, 8, 0, 0, 0, time.UTC)
		return &d
	}
	for i, origin := range []string{"LHR", "LGW", "MAN"} {
		_, err := flights.Create(ctx, domain.Flight{
			Airline: "British Airways", OutboundFlightNo: fmt.Sprintf("BA%d", 100+i),
			OriginAirport: origin, DestinationAirport: "BCN", OutboundDeparture: dep(1 + i),
			SupplierPrice: 100, SupplierCurrency: "GBP", SellPrice: 110, SellCurrency: "GBP", Active: i != 2,
		})
		require.NoError(t, err)
	}

	page, err := flights.List(ctx, domain.ListQuery{Filters: map[string]string{"active": "true"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = flights.List(ctx, domain.ListQuery{Search: "lgw"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "BA101", page.Items[0].OutboundFlightNo)

	page, err = flights.List(ctx, domain.ListQuery{
		From: map[string]string{"outboundDeparture": "2025-07-02 00:00:00"},
		Sort: "outboundDeparture", Desc: true, PageSize: 1,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "MAN", page.Items[0].OriginAirport)

	_, err = flights.List(ctx, domain.ListQuery{Filters: map[string]string{"password": "x"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = flights.List(ctx, domain.ListQuery{Sort: "sleep(1)"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	first := page.Items[0]
	first.SellPrice = 150
	updated, err := flights.Update(ctx, first.ID, first)
	require.NoError(t, err)
	assert.InDelta(t, 150, updated.SellPrice, 1e-9)

	_, err = flights.Update(ctx, 424242, first)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, flights.Delete(ctx, first.ID))
	err = flights.Delete(ctx, first.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
