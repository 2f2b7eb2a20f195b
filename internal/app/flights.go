package app

import (
	"fmt"
	"strings"
	"time"

	"travel_backoffice/internal/domain"
)

type Direction int

const (
	Outbound Direction = iota
	Return
)

// flightMarkers are the fields whose presence marks a record as a flight.
// The list is deliberately broad: any record carrying a cabin or class field
// is treated as a flight when sectioning documents.
var flightMarkers = []string{
	"origin", "destination", "originAirport", "destinationAirport",
	"airline", "flightNumber", "cabin", "class", "cabinClass",
	"outboundFlightSegments", "returnFlightSegments", "outboundFlight", "inboundFlight",
}

// IsFlightComponent reports whether a raw component record represents a
// flight, probing the record itself and its unwrapped payload.
func IsFlightComponent(raw map[string]any) bool {
	if raw == nil {
		return false
	}
	for _, m := range []map[string]any{
		raw,
		firstMap(raw, "data"),
		firstMap(raw, "componentData"),
		firstMap(raw, "component_data"),
	} {
		if m == nil {
			continue
		}
		if strings.EqualFold(firstNonEmpty(m, "component_type", "componentType", "type"), string(domain.ComponentFlight)) {
			return true
		}
		if anyPresent(m, flightMarkers...) {
			return true
		}
	}
	return false
}

// PartitionComponents splits records into flights and everything else,
// preserving order within each side.
func PartitionComponents(list []map[string]any) (flights, others []map[string]any) {
	for _, c := range list {
		if IsFlightComponent(c) {
			flights = append(flights, c)
		} else {
			others = append(others, c)
		}
	}
	return flights, others
}

// flightView merges a record with its wrapped payload; payload keys win.
func flightView(raw map[string]any) map[string]any {
	data := firstMap(raw, "component_data", "componentData", "data")
	out := make(map[string]any, len(raw)+len(data))
	for k, v := range raw {
		out[k] = v
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

// ResolveItinerary returns the segments of one direction: the explicit segment
// array when present, else a single segment built from the flat leg object,
// else nothing.
func ResolveItinerary(raw map[string]any, dir Direction) []domain.FlightSegment {
	if raw == nil {
		return nil
	}
	v := flightView(raw)
	arrays, leg := flightAliases["outbound_segments"], flightAliases["outbound_leg"]
	if dir == Return {
		arrays, leg = flightAliases["return_segments"], flightAliases["return_leg"]
	}
	if segs := firstMaps(v, arrays...); len(segs) > 0 {
		out := make([]domain.FlightSegment, 0, len(segs))
		for _, s := range segs {
			out = append(out, segmentFrom(s))
		}
		return out
	}
	if flat := firstMap(v, leg...); flat != nil {
		return []domain.FlightSegment{segmentFrom(flat)}
	}
	return nil
}

func segmentFrom(m map[string]any) domain.FlightSegment {
	s := domain.FlightSegment{
		DepartureAirportName: firstNonEmptyAlias(m, segmentAliases, "dep_name"),
		DepartureAirportCode: firstNonEmptyAlias(m, segmentAliases, "dep_code"),
		ArrivalAirportName:   firstNonEmptyAlias(m, segmentAliases, "arr_name"),
		ArrivalAirportCode:   firstNonEmptyAlias(m, segmentAliases, "arr_code"),
		DepartureDateTime:    firstNonEmptyAlias(m, segmentAliases, "dep_at"),
		ArrivalDateTime:      firstNonEmptyAlias(m, segmentAliases, "arr_at"),
		DurationText:         firstNonEmptyAlias(m, segmentAliases, "duration"),
		FlightNumber:         firstNonEmptyAlias(m, segmentAliases, "number"),
		Airline:              firstNonEmptyAlias(m, segmentAliases, "airline"),
		CabinClass:           firstNonEmptyAlias(m, segmentAliases, "cabin"),
		Baggage:              firstNonEmptyAlias(m, segmentAliases, "baggage"),
		Aircraft:             firstNonEmptyAlias(m, segmentAliases, "aircraft"),
	}
	if s.Baggage == "" {
		if n := firstPositiveInt(m, flightAliases["baggage_pieces"]...); n > 0 {
			s.Baggage = pluralize(n, "piece", "pieces")
		}
	}
	if d := firstNonEmptyAlias(m, segmentAliases, "layover"); d != "" {
		code := firstNonEmptyAlias(m, segmentAliases, "connector")
		s.Layover = joinNonEmpty(" ", code, "("+d+")")
	}
	return s
}

// SharedInfoFor derives the airline / cabin / baggage row shown above a
// direction's segment table. Only the first segment is consulted.
func SharedInfoFor(segs []domain.FlightSegment) domain.SharedFlightInfo {
	info := domain.SharedFlightInfo{Airline: notAvailable, CabinClass: notAvailable, Baggage: notAvailable}
	if len(segs) == 0 {
		return info
	}
	first := segs[0]
	info.Airline = orDefault(first.Airline, notAvailable)
	info.CabinClass = orDefault(FormatLabel(first.CabinClass), notAvailable)
	info.Baggage = orDefault(first.Baggage, notAvailable)
	return info
}

// SegmentRows formats segments for the document tables.
func SegmentRows(segs []domain.FlightSegment, loc *time.Location) []domain.SegmentRow {
	rows := make([]domain.SegmentRow, 0, len(segs))
	for _, s := range segs {
		rows = append(rows, domain.SegmentRow{
			Departure:    airportLabel(s.DepartureAirportName, s.DepartureAirportCode),
			Arrival:      airportLabel(s.ArrivalAirportName, s.ArrivalAirportCode),
			DepartureAt:  formatDateTime(s.DepartureDateTime, loc),
			ArrivalAt:    formatDateTime(s.ArrivalDateTime, loc),
			FlightNumber: orDefault(s.FlightNumber, notAvailable),
			Duration:     orDefault(s.DurationText, notAvailable),
		})
	}
	return rows
}

func airportLabel(name, code string) string {
	switch {
	case name != "" && code != "" && name != code:
		return fmt.Sprintf("%s (%s)", name, code)
	case code != "":
		return code
	case name != "":
		return name
	}
	return notAvailable
}

func buildFlightData(raw map[string]any) domain.FlightData {
	v := flightView(raw)
	out := domain.FlightData{
		OutboundSegments: ResolveItinerary(raw, Outbound),
		ReturnSegments:   ResolveItinerary(raw, Return),
		PassengerCount:   firstPositiveInt(v, flightAliases["passengers"]...),
		CurrencyCode:     orDefault(firstNonEmpty(v, "currencyCode", "currency", "currencyId"), "GBP"),
		Airline:          firstNonEmptyAlias(v, flightAliases, "airline"),
		CabinClass:       firstNonEmptyAlias(v, flightAliases, "cabin"),
		BaggagePieces:    firstPositiveInt(v, flightAliases["baggage_pieces"]...),
		FareType:         firstNonEmptyAlias(v, flightAliases, "fare_type"),
		Route:            flightRoute(v),
		FlightNumbers:    collectFlightNumbers(v),
	}
	if p := positivePrice(v); p != nil {
		out.TotalPrice = *p
	}
	if r, ok := firstBool(v, flightAliases["refundable"]...); ok {
		out.Refundable = &r
	}
	if out.Airline == "" && len(out.OutboundSegments) > 0 {
		out.Airline = out.OutboundSegments[0].Airline
	}
	if out.CabinClass == "" && len(out.OutboundSegments) > 0 {
		out.CabinClass = out.OutboundSegments[0].CabinClass
	}
	for _, l := range mapsAt(v, "layovers") {
		out.Layovers = append(out.Layovers, domain.Layover{
			AirportCode: firstNonEmpty(l, "airportCode", "airport_code", "airport"),
			Duration:    firstNonEmpty(l, "duration", "layoverDuration"),
		})
	}
	return out
}

// ExtractFlightInfo builds the display summary of a flight component.
// Timestamps are rendered in loc (UTC when nil).
func ExtractFlightInfo(raw map[string]any, loc *time.Location) domain.FlightSummary {
	if loc == nil {
		loc = time.UTC
	}
	out := domain.FlightSummary{
		Route:         notAvailable,
		FlightNumbers: []string{notAvailable},
		Departure:     notAvailable,
		Return:        notAvailable,
		Price:         notAvailable,
		Currency:      notAvailable,
		Aircraft:      []string{notAvailable},
		Layovers:      []string{notAvailable},
	}
	if raw == nil {
		return out
	}
	v := flightView(raw)

	out.Route = flightRoute(v)
	out.FlightNumbers = collectFlightNumbers(v)
	if s := firstNonEmptyAlias(v, flightAliases, "departure"); s != "" {
		out.Departure = formatDateTime(s, loc)
	}
	if s := firstNonEmptyAlias(v, flightAliases, "return"); s != "" {
		out.Return = formatDateTime(s, loc)
	}
	if p := positivePrice(v); p != nil {
		out.Price = fmt.Sprintf("%.2f", *p)
	}
	if c := firstNonEmptyAlias(v, flightAliases, "currency"); c != "" {
		out.Currency = c
	}

	aircraft, layovers := scanSegments(v)
	if len(aircraft) > 0 {
		out.Aircraft = aircraft
	}
	if len(layovers) > 0 {
		out.Layovers = layovers
	}
	out.Details = flightDetailLines(v, aircraft, layovers)
	return out
}

func flightRoute(v map[string]any) string {
	origin := firstNonEmptyAlias(v, flightAliases, "origin")
	dest := firstNonEmptyAlias(v, flightAliases, "destination")
	if origin == "" && dest == "" {
		return notAvailable
	}
	return orDefault(origin, notAvailable) + " → " + orDefault(dest, notAvailable)
}

// collectFlightNumbers gathers every flight-number-like field, de-duplicated
// in first-seen order.
func collectFlightNumbers(v map[string]any) []string {
	var out []string
	for _, key := range []string{"outbound_number", "inbound_number"} {
		for _, p := range flightAliases[key] {
			out = appendUnique(out, lookupStr(v, p))
		}
	}
	for _, key := range []string{"outbound_segments", "return_segments"} {
		for _, seg := range firstMaps(v, flightAliases[key]...) {
			out = appendUnique(out, firstNonEmptyAlias(seg, segmentAliases, "number"))
		}
	}
	if len(out) == 0 {
		return []string{notAvailable}
	}
	return out
}

func positivePrice(v map[string]any) *float64 {
	for _, p := range flightAliases["price"] {
		if f := getFloatFlexible(v, p); f != nil && *f > 0 {
			return f
		}
	}
	return nil
}

func firstBool(v map[string]any, paths ...string) (bool, bool) {
	for _, p := range paths {
		if b, ok := boolAt(v, p); ok {
			return b, true
		}
	}
	return false, false
}

// scanSegments accumulates aircraft and layover entries across outbound and
// return segment arrays, plus an explicit layovers list.
func scanSegments(v map[string]any) (aircraft, layovers []string) {
	for _, key := range []string{"outbound_segments", "return_segments"} {
		for _, seg := range firstMaps(v, flightAliases[key]...) {
			s := segmentFrom(seg)
			if s.Aircraft != "" {
				aircraft = append(aircraft, s.Aircraft)
			}
			if s.Layover != "" {
				layovers = append(layovers, s.Layover)
			}
		}
	}
	for _, l := range mapsAt(v, "layovers") {
		code := firstNonEmpty(l, "airportCode", "airport_code", "airport")
		dur := firstNonEmpty(l, "duration", "layoverDuration")
		if code == "" && dur == "" {
			continue
		}
		if dur != "" {
			dur = "(" + dur + ")"
		}
		layovers = append(layovers, joinNonEmpty(" ", code, dur))
	}
	return aircraft, layovers
}

var fareFlags = []struct {
	label string
	keys  []string
}{
	{"Corporate Fare", []string{"isCorporate", "corporate", "is_corporate"}},
	{"Premium Fare", []string{"isPremium", "premium", "is_premium"}},
	{"Baggage Only Fare", []string{"isBaggageOnly", "baggageOnly", "is_baggage_only"}},
	{"Semi-Deferred Fare", []string{"isSemiDeferred", "semiDeferred", "is_semi_deferred"}},
}

// flightDetailLines emits, in fixed order, one line per field that is present.
func flightDetailLines(v map[string]any, aircraft, layovers []string) []string {
	var lines []string
	if ft := firstNonEmptyAlias(v, flightAliases, "fare_type"); ft != "" {
		lines = append(lines, "Fare Type: "+FormatLabel(ft))
	}
	if n := firstPositiveInt(v, flightAliases["baggage_pieces"]...); n > 0 {
		lines = append(lines, "Baggage: "+pluralize(n, "piece", "pieces"))
	}
	if len(aircraft) > 0 {
		lines = append(lines, "Aircraft: "+strings.Join(aircraft, ", "))
	}
	if len(layovers) > 0 {
		lines = append(lines, "Layovers: "+strings.Join(layovers, ", "))
	}
	if r, ok := firstBool(v, flightAliases["refundable"]...); ok {
		yn := "No"
		if r {
			yn = "Yes"
		}
		lines = append(lines, "Refundable: "+yn)
	}
	if s := firstNonEmptyAlias(v, flightAliases, "skytrax"); s != "" {
		lines = append(lines, "Skytrax Rating: "+s)
	}
	if s := firstNonEmptyAlias(v, flightAliases, "loyalty"); s != "" {
		lines = append(lines, "Loyalty Programme: "+s)
	}
	for _, f := range fareFlags {
		if b, ok := firstBool(v, f.keys...); ok && b {
			lines = append(lines, f.label)
		}
	}
	return lines
}
