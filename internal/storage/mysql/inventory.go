package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"travel_backoffice/internal/domain"
)

// tableSpec maps one inventory entity onto its table. Filter, range and sort
// keys are API field names; anything not listed is rejected.
type tableSpec[T any] struct {
	entity      domain.Entity
	columns     []string // id first, then the writable columns
	scan        func(s scanner) (T, error)
	values      func(v T) []any // aligned with columns[1:]
	filters     map[string]string
	ranges      map[string]string
	search      []string
	sorts       map[string]string
	defaultSort string
}

// Table is a domain.InventoryStore backed by one MySQL table.
type Table[T any] struct {
	db   *sql.DB
	spec tableSpec[T]
}

func (t *Table[T]) name() string { return string(t.spec.entity) }

func (t *Table[T]) where(q domain.ListQuery) (sq.And, error) {
	var conds sq.And
	for k, v := range q.Filters {
		col, ok := t.spec.filters[k]
		if !ok {
			return nil, domain.Invalid(k, fmt.Sprintf("unknown %s filter %q", t.spec.entity.Label(), k))
		}
		conds = append(conds, sq.Eq{col: filterValue(v)})
	}
	for k, v := range q.From {
		col, ok := t.spec.ranges[k]
		if !ok {
			return nil, domain.Invalid(k, fmt.Sprintf("unknown %s range %q", t.spec.entity.Label(), k))
		}
		conds = append(conds, sq.GtOrEq{col: v})
	}
	for k, v := range q.To {
		col, ok := t.spec.ranges[k]
		if !ok {
			return nil, domain.Invalid(k, fmt.Sprintf("unknown %s range %q", t.spec.entity.Label(), k))
		}
		conds = append(conds, sq.LtOrEq{col: v})
	}
	if s := strings.TrimSpace(q.Search); s != "" && len(t.spec.search) > 0 {
		like := sq.Or{}
		for _, col := range t.spec.search {
			like = append(like, sq.Like{col: "%" + s + "%"})
		}
		conds = append(conds, like)
	}
	return conds, nil
}

// filterValue maps boolean query strings onto TINYINT columns.
func filterValue(v string) any {
	switch strings.ToLower(v) {
	case "true":
		return 1
	case "false":
		return 0
	}
	return v
}

func (t *Table[T]) List(ctx context.Context, q domain.ListQuery) (domain.Page[T], error) {
	q = q.Normalized()
	conds, err := t.where(q)
	if err != nil {
		return domain.Page[T]{}, err
	}

	order := t.spec.defaultSort
	if q.Sort != "" {
		col, ok := t.spec.sorts[q.Sort]
		if !ok {
			return domain.Page[T]{}, domain.Invalid("sort", fmt.Sprintf("cannot sort %s by %q", t.name(), q.Sort))
		}
		order = col
	}
	if q.Desc {
		order += " DESC"
	}

	count := sq.Select("COUNT(*)").From(t.name())
	list := sq.Select(t.spec.columns...).From(t.name())
	if len(conds) > 0 {
		count, list = count.Where(conds), list.Where(conds)
	}

	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return domain.Page[T]{}, err
	}
	var total int64
	if err := t.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return domain.Page[T]{}, err
	}

	listSQL, args, err := list.
		OrderBy(order, "id").
		Limit(uint64(q.PageSize)).
		Offset(uint64((q.Page - 1) * q.PageSize)).
		ToSql()
	if err != nil {
		return domain.Page[T]{}, err
	}
	rows, err := t.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return domain.Page[T]{}, err
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		v, err := t.spec.scan(rows)
		if err != nil {
			return domain.Page[T]{}, err
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[T]{}, err
	}
	return domain.Page[T]{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (t *Table[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	query, args, err := sq.Select(t.spec.columns...).From(t.name()).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return zero, err
	}
	v, err := t.spec.scan(t.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, domain.ErrNotFound
	}
	return v, err
}

func (t *Table[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	query, args, err := sq.Insert(t.name()).Columns(t.spec.columns[1:]...).Values(t.spec.values(v)...).ToSql()
	if err != nil {
		return zero, err
	}
	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isMySQLErr(err, errNoReferenced) {
			return zero, domain.Invalid("", fmt.Sprintf("%s references a record that does not exist", t.spec.entity.Label()))
		}
		return zero, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return zero, err
	}
	return t.Get(ctx, id)
}

func (t *Table[T]) Update(ctx context.Context, id int64, v T) (T, error) {
	var zero T
	set := make(map[string]any, len(t.spec.columns)-1)
	for i, val := range t.spec.values(v) {
		set[t.spec.columns[i+1]] = val
	}
	query, args, err := sq.Update(t.name()).SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return zero, err
	}
	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		if isMySQLErr(err, errNoReferenced) {
			return zero, domain.Invalid("", fmt.Sprintf("%s references a record that does not exist", t.spec.entity.Label()))
		}
		return zero, err
	}
	// An unchanged row affects zero rows too; Get decides existence.
	return t.Get(ctx, id)
}

func (t *Table[T]) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete(t.name()).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := t.db.ExecContext(ctx, query, args...)
	if isMySQLErr(err, errRowIsReferenced) {
		return fmt.Errorf("%s %d is still in use: %w", t.spec.entity.Label(), id, domain.ErrNotAvailable)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func NewFlightStore(db *sql.DB) *Table[domain.Flight] {
	return &Table[domain.Flight]{db: db, spec: tableSpec[domain.Flight]{
		entity: domain.EntityFlight,
		columns: []string{"id", "event_id", "airline", "outbound_flight_number", "origin_airport",
			"destination_airport", "outbound_departure", "inbound_flight_number", "inbound_departure",
			"cabin_class", "baggage_pieces", "supplier_price", "supplier_currency", "markup_percent",
			"sell_price", "sell_currency", "capacity", "used", "active"},
		scan: func(s scanner) (domain.Flight, error) {
			var (
				f             domain.Flight
				event         sql.NullInt64
				outDep, inDep sql.NullTime
			)
			err := s.Scan(&f.ID, &event, &f.Airline, &f.OutboundFlightNo, &f.OriginAirport,
				&f.DestinationAirport, &outDep, &f.InboundFlightNo, &inDep,
				&f.CabinClass, &f.BaggagePieces, &f.SupplierPrice, &f.SupplierCurrency, &f.MarkupPercent,
				&f.SellPrice, &f.SellCurrency, &f.Capacity, &f.Used, &f.Active)
			f.EventID, f.OutboundDeparture, f.InboundDeparture = ptrInt64(event), ptrTime(outDep), ptrTime(inDep)
			return f, err
		},
		values: func(f domain.Flight) []any {
			return []any{valInt64(f.EventID), f.Airline, f.OutboundFlightNo, f.OriginAirport,
				f.DestinationAirport, valTime(f.OutboundDeparture), f.InboundFlightNo, valTime(f.InboundDeparture),
				f.CabinClass, f.BaggagePieces, f.SupplierPrice, f.SupplierCurrency, f.MarkupPercent,
				f.SellPrice, f.SellCurrency, f.Capacity, f.Used, f.Active}
		},
		filters: map[string]string{
			"eventId": "event_id", "airline": "airline", "originAirport": "origin_airport",
			"destinationAirport": "destination_airport", "cabinClass": "cabin_class",
			"supplierCurrency": "supplier_currency", "active": "active",
		},
		ranges: map[string]string{
			"outboundDeparture": "outbound_departure", "sellPrice": "sell_price",
		},
		search: []string{"airline", "outbound_flight_number", "inbound_flight_number", "origin_airport", "destination_airport"},
		sorts: map[string]string{
			"id": "id", "airline": "airline", "outboundDeparture": "outbound_departure",
			"sellPrice": "sell_price", "originAirport": "origin_airport",
		},
		defaultSort: "outbound_departure",
	}}
}

func NewAirportTransferStore(db *sql.DB) *Table[domain.AirportTransfer] {
	return &Table[domain.AirportTransfer]{db: db, spec: tableSpec[domain.AirportTransfer]{
		entity: domain.EntityAirportTransfer,
		columns: []string{"id", "event_id", "hotel_id", "transport_type", "direction", "max_passengers",
			"supplier_cost", "supplier_currency", "markup_percent", "sell_price", "sell_currency",
			"quantity", "used", "active"},
		scan: func(s scanner) (domain.AirportTransfer, error) {
			var (
				t            domain.AirportTransfer
				event, hotel sql.NullInt64
			)
			err := s.Scan(&t.ID, &event, &hotel, &t.TransportType, &t.Direction, &t.MaxPassengers,
				&t.SupplierCost, &t.SupplierCurrency, &t.MarkupPercent, &t.SellPrice, &t.SellCurrency,
				&t.Quantity, &t.Used, &t.Active)
			t.EventID, t.HotelID = ptrInt64(event), ptrInt64(hotel)
			return t, err
		},
		values: func(t domain.AirportTransfer) []any {
			return []any{valInt64(t.EventID), valInt64(t.HotelID), t.TransportType, t.Direction, t.MaxPassengers,
				t.SupplierCost, t.SupplierCurrency, t.MarkupPercent, t.SellPrice, t.SellCurrency,
				t.Quantity, t.Used, t.Active}
		},
		filters: map[string]string{
			"eventId": "event_id", "hotelId": "hotel_id", "transportType": "transport_type",
			"direction": "direction", "active": "active",
		},
		ranges:      map[string]string{"sellPrice": "sell_price", "maxPassengers": "max_passengers"},
		search:      []string{"transport_type"},
		sorts:       map[string]string{"id": "id", "transportType": "transport_type", "sellPrice": "sell_price"},
		defaultSort: "id",
	}}
}

func NewCircuitTransferStore(db *sql.DB) *Table[domain.CircuitTransfer] {
	return &Table[domain.CircuitTransfer]{db: db, spec: tableSpec[domain.CircuitTransfer]{
		entity: domain.EntityCircuitTransfer,
		columns: []string{"id", "event_id", "hotel_id", "transfer_type", "days", "seat_capacity",
			"supplier_cost", "supplier_currency", "markup_percent", "sell_price", "sell_currency",
			"used", "active"},
		scan: func(s scanner) (domain.CircuitTransfer, error) {
			var (
				t            domain.CircuitTransfer
				event, hotel sql.NullInt64
			)
			err := s.Scan(&t.ID, &event, &hotel, &t.TransferType, &t.Days, &t.SeatCapacity,
				&t.SupplierCost, &t.SupplierCurrency, &t.MarkupPercent, &t.SellPrice, &t.SellCurrency,
				&t.Used, &t.Active)
			t.EventID, t.HotelID = ptrInt64(event), ptrInt64(hotel)
			return t, err
		},
		values: func(t domain.CircuitTransfer) []any {
			return []any{valInt64(t.EventID), valInt64(t.HotelID), t.TransferType, t.Days, t.SeatCapacity,
				t.SupplierCost, t.SupplierCurrency, t.MarkupPercent, t.SellPrice, t.SellCurrency,
				t.Used, t.Active}
		},
		filters: map[string]string{
			"eventId": "event_id", "hotelId": "hotel_id", "transferType": "transfer_type", "active": "active",
		},
		ranges:      map[string]string{"sellPrice": "sell_price", "days": "days"},
		search:      []string{"transfer_type"},
		sorts:       map[string]string{"id": "id", "transferType": "transfer_type", "days": "days", "sellPrice": "sell_price"},
		defaultSort: "id",
	}}
}

func NewVenueStore(db *sql.DB) *Table[domain.Venue] {
	return &Table[domain.Venue]{db: db, spec: tableSpec[domain.Venue]{
		entity:  domain.EntityVenue,
		columns: []string{"id", "name", "slug", "city", "country", "timezone", "website", "notes"},
		scan: func(s scanner) (domain.Venue, error) {
			var (
				v     domain.Venue
				notes sql.NullString
			)
			err := s.Scan(&v.ID, &v.Name, &v.Slug, &v.City, &v.Country, &v.Timezone, &v.Website, &notes)
			v.Notes = notes.String
			return v, err
		},
		values: func(v domain.Venue) []any {
			return []any{v.Name, v.Slug, v.City, v.Country, v.Timezone, v.Website, v.Notes}
		},
		filters:     map[string]string{"country": "country", "city": "city", "slug": "slug"},
		search:      []string{"name", "city", "country"},
		sorts:       map[string]string{"id": "id", "name": "name", "city": "city", "country": "country"},
		defaultSort: "name",
	}}
}

func NewTicketCategoryStore(db *sql.DB) *Table[domain.TicketCategory] {
	return &Table[domain.TicketCategory]{db: db, spec: tableSpec[domain.TicketCategory]{
		entity:  domain.EntityTicketCategory,
		columns: []string{"id", "venue_id", "category_name", "category_type", "seat_info", "description", "active"},
		scan: func(s scanner) (domain.TicketCategory, error) {
			var (
				c    domain.TicketCategory
				desc sql.NullString
			)
			err := s.Scan(&c.ID, &c.VenueID, &c.CategoryName, &c.CategoryType, &c.SeatInfo, &desc, &c.Active)
			c.Description = desc.String
			return c, err
		},
		values: func(c domain.TicketCategory) []any {
			return []any{c.VenueID, c.CategoryName, c.CategoryType, c.SeatInfo, c.Description, c.Active}
		},
		filters:     map[string]string{"venueId": "venue_id", "categoryType": "category_type", "active": "active"},
		search:      []string{"category_name", "seat_info"},
		sorts:       map[string]string{"id": "id", "categoryName": "category_name", "categoryType": "category_type"},
		defaultSort: "category_name",
	}}
}
