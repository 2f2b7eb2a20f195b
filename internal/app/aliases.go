package app

import (
	"regexp"
	"strconv"
	"strings"
)

/********** alias registries (single source of truth) **********/

// componentAliases lists, per canonical field, every key spelling seen across
// live inventory records, frozen quote snapshots and legacy bookings. Order is
// probing order.
var componentAliases = map[string][]string{
	"type":     {"component_type", "componentType"},
	"id":       {"id", "component_id", "componentId"},
	"quantity": {"quantity"},

	// ticket
	"ticket_category": {"ticket_category_name", "categoryName", "category_name", "category", "name"},
	"seat":            {"seat", "seat_number", "seatNumber"},

	// hotel room
	"hotel_name": {"hotel_name", "hotelName", "hotel.name"},
	"room_type":  {"room_type", "roomType", "room_name"},
	"bed_type":   {"bed_type", "bedType"},
	"check_in":   {"check_in", "checkIn", "check_in_date"},
	"check_out":  {"check_out", "checkOut", "check_out_date"},

	// transfers
	"transport_type": {"transport_type", "transportType", "vehicle_type", "vehicleType"},
	"transfer_type":  {"transfer_type", "transferType"},
	"days":           {"days", "days_included", "daysIncluded"},

	// lounge
	"lounge_name": {"lounge_name", "loungeName", "variant", "name"},

	// custom / generic
	"display_name": {"component_name", "name"},
	"description":  {"description", "details"},
}

// flightAliases resolves flight fields across the flat-leg, segment-array and
// summary shapes.
var flightAliases = map[string][]string{
	"origin": {
		"origin", "originAirport", "origin_airport", "departureAirport", "departure_airport",
		"outboundFlight.departureAirportId", "outboundFlightSegments.0.departureAirportId",
		"outboundFlightSegments.0.departureAirportCode",
	},
	"destination": {
		"destination", "destinationAirport", "destination_airport", "arrivalAirport", "arrival_airport",
		"outboundFlight.arrivalAirportId", "outboundFlightSegments.-1.arrivalAirportId",
		"outboundFlightSegments.-1.arrivalAirportCode",
	},
	"outbound_number": {"outboundFlightNumber", "outbound_flight_number", "flightNumber", "flight_number", "outboundFlight.flightNumber"},
	"inbound_number":  {"inboundFlightNumber", "inbound_flight_number", "returnFlightNumber", "return_flight_number", "inboundFlight.flightNumber"},
	"departure": {
		"outboundDepartureDateTime", "departureDateTime", "departure_date_time", "departureDate", "departure_date",
		"outboundFlight.departureDateTime", "outboundFlightSegments.0.departureDateTime",
	},
	"return": {
		"returnDepartureDateTime", "inboundDepartureDateTime", "returnDate", "return_date",
		"inboundFlight.departureDateTime", "returnFlightSegments.0.departureDateTime",
		"inboundFlightSegments.0.departureDateTime",
	},
	"price":          {"total", "price"},
	"currency":       {"currency", "currencyId", "currencyCode", "currencySymbol"},
	"airline":        {"airline", "airlineName", "marketingAirlineName", "operatingAirlineName", "marketing_airline_name"},
	"cabin":          {"cabinClass", "cabin", "class", "cabinName", "cabin_class"},
	"fare_type":      {"fareType", "fare_type", "fareTypeName", "fare_type_name"},
	"baggage_pieces": {"baggagePieces", "baggage_pieces", "baggageAllowance.NumberOfPieces", "baggageAllowance.numberOfPieces", "numberOfPieces"},
	"refundable":     {"refundable", "isRefundable", "is_refundable"},
	"passengers":     {"passengerCount", "passengers", "passenger_count", "quantity"},
	"skytrax":        {"skytraxRating", "skytrax_rating"},
	"loyalty":        {"loyaltyProgramme", "loyaltyProgram", "loyalty_programme"},

	"outbound_segments": {"outboundFlightSegments", "outbound_flight_segments", "outboundSegments"},
	"return_segments":   {"returnFlightSegments", "return_flight_segments", "inboundFlightSegments", "returnSegments"},
	"outbound_leg":      {"outboundFlight", "outbound_flight"},
	"return_leg":        {"inboundFlight", "inbound_flight", "returnFlight"},
}

// segmentAliases apply to a single leg object.
var segmentAliases = map[string][]string{
	"dep_name":  {"departureAirportName", "departure_airport_name", "departureAirport", "originName"},
	"dep_code":  {"departureAirportId", "departureAirportCode", "departure_airport_code", "origin"},
	"arr_name":  {"arrivalAirportName", "arrival_airport_name", "arrivalAirport", "destinationName"},
	"arr_code":  {"arrivalAirportId", "arrivalAirportCode", "arrival_airport_code", "destination"},
	"dep_at":    {"departureDateTime", "departure_date_time", "departureTime", "departure"},
	"arr_at":    {"arrivalDateTime", "arrival_date_time", "arrivalTime", "arrival"},
	"duration":  {"flightDuration", "duration", "durationText", "flight_duration"},
	"number":    {"flightNumber", "flight_number", "marketingFlightNumber"},
	"airline":   {"marketingAirlineName", "airline", "airlineName", "operatingAirlineName"},
	"cabin":     {"cabinClass", "cabin", "class", "cabinName"},
	"baggage":   {"baggageAllowance.text", "baggageAllowance", "baggage"},
	"aircraft":  {"aircraftType", "aircraft", "equipment", "aircraft_type"},
	"layover":   {"layoverDuration", "layover", "layover_duration"},
	"connector": {"layoverAirport", "layover_airport", "arrivalAirportId", "arrivalAirportCode"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps. Numeric parts index
// into arrays; -1 selects the last element.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		switch obj := cur.(type) {
		case map[string]any:
			v, ok := obj[part]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || len(obj) == 0 {
				return nil
			}
			if i < 0 {
				i = len(obj) + i
			}
			if i < 0 || i >= len(obj) {
				return nil
			}
			cur = obj[i]
		default:
			return nil
		}
	}
	return cur
}

// lookupStr returns the string (or number rendered as text) at path, or "".
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// firstNonEmpty: first non-empty string among paths.
func firstNonEmpty(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	return firstNonEmpty(m, aliases[key]...)
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstPositiveInt: first strictly positive integer among paths.
func firstPositiveInt(m map[string]any, paths ...string) int {
	for _, k := range paths {
		if f := getFloatFlexible(m, k); f != nil && *f >= 1 {
			return int(*f)
		}
	}
	return 0
}

// boolAt reads true/false from bools or "true"/"yes"/"1" strings.
func boolAt(m map[string]any, path string) (val, ok bool) {
	switch v := lookupAny(m, path).(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	case float64:
		return v != 0, true
	}
	return false, false
}

// present reports whether path holds something other than null, "" or false.
func present(m map[string]any, path string) bool {
	switch v := lookupAny(m, path).(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case bool:
		return v
	case []any:
		return len(v) > 0
	}
	return true
}

func anyPresent(m map[string]any, paths ...string) bool {
	for _, p := range paths {
		if present(m, p) {
			return true
		}
	}
	return false
}

// mapsAt returns the objects in the array at path, skipping non-object entries.
func mapsAt(m map[string]any, path string) []map[string]any {
	raw, ok := lookupAny(m, path).([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// firstMaps returns the object array at the first alias path that has one.
func firstMaps(m map[string]any, paths ...string) []map[string]any {
	for _, p := range paths {
		if out := mapsAt(m, p); len(out) > 0 {
			return out
		}
	}
	return nil
}

// firstMap returns the first object found among paths.
func firstMap(m map[string]any, paths ...string) map[string]any {
	for _, p := range paths {
		if obj, ok := lookupAny(m, p).(map[string]any); ok && len(obj) > 0 {
			return obj
		}
	}
	return nil
}

// payloadOf unwraps the variant payload of a component record, or returns
// the record itself when it is not wrapped.
func payloadOf(raw map[string]any) map[string]any {
	if obj := firstMap(raw, "component_data", "componentData", "data"); obj != nil {
		return obj
	}
	return raw
}

var wordStart = regexp.MustCompile(`\b\w`)

// FormatLabel turns "hotel_chauffeur" into "Hotel Chauffeur".
func FormatLabel(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	return wordStart.ReplaceAllStringFunc(s, strings.ToUpper)
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, sep)
}

// appendUnique appends s when it is non-empty and not yet in out.
func appendUnique(out []string, s string) []string {
	if s == "" {
		return out
	}
	for _, x := range out {
		if x == s {
			return out
		}
	}
	return append(out, s)
}
