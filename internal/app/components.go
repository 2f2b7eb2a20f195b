package app

import (
	"encoding/json"
	"sort"
	"strings"

	"travel_backoffice/internal/domain"
)

const (
	serviceIncluded = "Service Included"
	notAvailable    = "N/A"
)

// componentRule is one entry of the ordered classifier. The first rule whose
// predicate holds decides the tag; order matters because several shapes share
// field names.
type componentRule struct {
	tag   domain.ComponentType
	match func(raw, data map[string]any) bool
}

func explicitTag(tag domain.ComponentType) func(raw, data map[string]any) bool {
	return func(raw, data map[string]any) bool {
		t := firstNonEmptyAlias(raw, componentAliases, "type")
		if t == "" {
			t = firstNonEmptyAlias(data, componentAliases, "type")
		}
		return strings.EqualFold(t, string(tag))
	}
}

func shapeHas(paths ...string) func(raw, data map[string]any) bool {
	return func(_, data map[string]any) bool { return anyPresent(data, paths...) }
}

var componentRules = []componentRule{
	{domain.ComponentTicket, explicitTag(domain.ComponentTicket)},
	{domain.ComponentHotelRoom, explicitTag(domain.ComponentHotelRoom)},
	{domain.ComponentAirportTransfer, explicitTag(domain.ComponentAirportTransfer)},
	{domain.ComponentCircuitTransfer, explicitTag(domain.ComponentCircuitTransfer)},
	{domain.ComponentLoungePass, explicitTag(domain.ComponentLoungePass)},
	{domain.ComponentFlight, explicitTag(domain.ComponentFlight)},

	// shape inference
	{domain.ComponentTicket, shapeHas("ticket_category_id", "category")},
	{domain.ComponentHotelRoom, shapeHas("hotel_id", "hotelName", "hotel_name")},
	{domain.ComponentFlight, shapeHas("outboundFlightNumber", "outbound_flight_number")},
	{domain.ComponentAirportTransfer, shapeHas("transport_type", "transportType", "transferDirection", "airport_transfer_id")},
	{domain.ComponentCircuitTransfer, shapeHas("transfer_type", "transferType", "circuit_transfer_id")},
	{domain.ComponentLoungePass, func(_, data map[string]any) bool {
		return strings.Contains(lookupStr(data, "variant"), "Lounge")
	}},
	{domain.ComponentCustom, func(raw, data map[string]any) bool {
		return anyPresent(raw, "name", "component_name", "component_type", "componentType") ||
			anyPresent(data, "name", "component_name")
	}},
}

// NormalizeComponent classifies a raw component record once and converts it
// into the canonical tagged form. It never fails: unrecognized input becomes a
// generic custom component.
func NormalizeComponent(raw map[string]any) domain.SelectedComponent {
	if raw == nil {
		return domain.SelectedComponent{
			Type:     domain.ComponentCustom,
			Quantity: 1,
			Data:     domain.CustomData{DisplayName: notAvailable, Description: notAvailable},
		}
	}
	data := payloadOf(raw)
	out := domain.SelectedComponent{
		ID:       firstNonEmptyAlias(raw, componentAliases, "id"),
		Quantity: resolveQuantity(raw, data),
	}

	for _, r := range componentRules {
		if !r.match(raw, data) {
			continue
		}
		out.Data = buildComponentData(r.tag, raw, data)
		out.Type = domain.TypeOf(out.Data)
		return out
	}

	// absolute fallback keeps only the record's own quantity
	out.Type = domain.ComponentCustom
	out.Quantity = firstPositiveInt(raw, "quantity")
	if out.Quantity == 0 {
		out.Quantity = 1
	}
	out.Data = domain.CustomData{DisplayName: "Component", Description: serviceIncluded}
	return out
}

func resolveQuantity(raw, data map[string]any) int {
	if q := firstPositiveInt(raw, "quantity"); q > 0 {
		return q
	}
	if q := firstPositiveInt(data, "quantity", "used", "capacity"); q > 0 {
		return q
	}
	return 1
}

func buildComponentData(tag domain.ComponentType, raw, data map[string]any) domain.ComponentData {
	switch tag {
	case domain.ComponentTicket:
		return domain.TicketData{
			CategoryName: firstNonEmptyAlias(data, componentAliases, "ticket_category"),
			Seat:         firstNonEmptyAlias(data, componentAliases, "seat"),
		}
	case domain.ComponentHotelRoom:
		return domain.HotelRoomData{
			HotelName: firstNonEmptyAlias(data, componentAliases, "hotel_name"),
			RoomType:  firstNonEmptyAlias(data, componentAliases, "room_type"),
			BedType:   firstNonEmptyAlias(data, componentAliases, "bed_type"),
			CheckIn:   firstNonEmptyAlias(data, componentAliases, "check_in"),
			CheckOut:  firstNonEmptyAlias(data, componentAliases, "check_out"),
		}
	case domain.ComponentAirportTransfer:
		t := firstNonEmptyAlias(data, componentAliases, "transport_type")
		if t == "" {
			t = firstNonEmptyAlias(data, componentAliases, "transfer_type")
		}
		// direction lives in one of four places depending on the record's age
		dir := firstNonEmpty(data, "transferDirection", "direction")
		if dir == "" {
			dir = firstNonEmpty(raw, "transferDirection", "direction")
		}
		return domain.AirportTransferData{TransportType: t, Direction: strings.ToLower(dir)}
	case domain.ComponentCircuitTransfer:
		t := firstNonEmptyAlias(data, componentAliases, "transfer_type")
		if t == "" {
			t = firstNonEmptyAlias(data, componentAliases, "transport_type")
		}
		return domain.CircuitTransferData{
			TransferType: t,
			Days:         firstPositiveInt(data, componentAliases["days"]...),
		}
	case domain.ComponentLoungePass:
		return domain.LoungePassData{LoungeName: firstNonEmptyAlias(data, componentAliases, "lounge_name")}
	case domain.ComponentFlight:
		return buildFlightData(raw)
	}

	name := firstNonEmptyAlias(raw, componentAliases, "display_name")
	if name == "" {
		name = firstNonEmptyAlias(data, componentAliases, "display_name")
	}
	if name == "" {
		name = FormatLabel(firstNonEmptyAlias(raw, componentAliases, "type"))
	}
	desc := firstNonEmptyAlias(raw, componentAliases, "description")
	if desc == "" {
		desc = firstNonEmptyAlias(data, componentAliases, "description")
	}
	if desc == "" {
		desc = serviceIncluded
	}
	return domain.CustomData{DisplayName: name, Description: desc}
}

// DescribeComponent renders the display triple for a normalized component.
func DescribeComponent(c domain.SelectedComponent) domain.ComponentInfo {
	info := domain.ComponentInfo{Quantity: c.Quantity}
	if info.Quantity < 1 {
		info.Quantity = 1
	}

	switch d := c.Data.(type) {
	case domain.TicketData:
		info.Name = "Ticket"
		seat := ""
		if d.Seat != "" {
			seat = "Seat: " + d.Seat
		}
		info.Details = orDefault(joinNonEmpty(", ", d.CategoryName, seat), "Event Ticket")
	case domain.HotelRoomData:
		info.Name = orDefault(d.HotelName, "Hotel Room")
		var in, out string
		if d.CheckIn != "" {
			in = "Check-in: " + formatDate(d.CheckIn)
		}
		if d.CheckOut != "" {
			out = "Check-out: " + formatDate(d.CheckOut)
		}
		info.Details = orDefault(joinNonEmpty(", ", FormatLabel(d.RoomType), FormatLabel(d.BedType), in, out), "Hotel Accommodation")
	case domain.AirportTransferData:
		info.Name = "Airport Transfer"
		dir := ""
		if d.Direction != "" {
			dir = "Direction: " + FormatLabel(d.Direction)
		}
		info.Details = orDefault(joinNonEmpty(", ", FormatLabel(d.TransportType), dir), "Airport Transfer Service")
	case domain.CircuitTransferData:
		info.Name = "Circuit Transfer"
		days := ""
		if d.Days > 0 {
			days = pluralize(d.Days, "day", "days")
		}
		info.Details = orDefault(joinNonEmpty(", ", FormatLabel(d.TransferType), days), "Circuit Transfer Service")
	case domain.LoungePassData:
		info.Name = "Lounge Pass"
		info.Details = orDefault(d.LoungeName, "Airport Lounge Access")
	case domain.FlightData:
		info.Name = "Flight"
		nums := ""
		if len(d.FlightNumbers) > 0 && d.FlightNumbers[0] != notAvailable {
			nums = strings.Join(d.FlightNumbers, ", ")
		}
		route := d.Route
		if route == notAvailable {
			route = ""
		}
		info.Details = orDefault(joinNonEmpty(" | ", route, nums), "Flight Details")
	case domain.CustomData:
		info.Name = orDefault(d.DisplayName, "Component")
		info.Details = orDefault(d.Description, serviceIncluded)
	default:
		info.Name, info.Details = "Component", serviceIncluded
	}
	return info
}

// ExtractComponentInfo maps any component record, whatever its historical
// shape, to {name, details, quantity}. It never panics and always returns a
// usable triple.
func ExtractComponentInfo(raw map[string]any) domain.ComponentInfo {
	return DescribeComponent(NormalizeComponent(raw))
}

/********** stored selectedComponents payload **********/

// legacyKeyTypes maps keys of the old object-shaped payload to component types.
var legacyKeyTypes = map[string]domain.ComponentType{
	"tickets": domain.ComponentTicket, "ticket": domain.ComponentTicket,
	"hotels": domain.ComponentHotelRoom, "hotel": domain.ComponentHotelRoom,
	"hotelRooms": domain.ComponentHotelRoom, "hotel_rooms": domain.ComponentHotelRoom, "hotel_room": domain.ComponentHotelRoom,
	"circuitTransfers": domain.ComponentCircuitTransfer, "circuit_transfers": domain.ComponentCircuitTransfer,
	"circuitTransfer": domain.ComponentCircuitTransfer, "circuit_transfer": domain.ComponentCircuitTransfer,
	"airportTransfers": domain.ComponentAirportTransfer, "airport_transfers": domain.ComponentAirportTransfer,
	"airportTransfer": domain.ComponentAirportTransfer, "airport_transfer": domain.ComponentAirportTransfer,
	"flights": domain.ComponentFlight, "flight": domain.ComponentFlight,
	"loungePass": domain.ComponentLoungePass, "loungePasses": domain.ComponentLoungePass,
	"lounge_passes": domain.ComponentLoungePass, "lounge_pass": domain.ComponentLoungePass,
}

var typeDisplayOrder = map[domain.ComponentType]int{
	domain.ComponentTicket:          0,
	domain.ComponentHotelRoom:       1,
	domain.ComponentCircuitTransfer: 2,
	domain.ComponentAirportTransfer: 3,
	domain.ComponentFlight:          4,
	domain.ComponentLoungePass:      5,
}

// NormalizeSelectedComponents flattens a stored selectedComponents payload
// into a list of raw component records. Both the array form and the legacy
// object keyed by component type are accepted; in the latter the implied
// component_type is injected when the record carries none.
func NormalizeSelectedComponents(v any) []map[string]any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(t), &decoded); err != nil {
			return nil
		}
		if _, again := decoded.(string); again {
			return nil
		}
		return NormalizeSelectedComponents(decoded)
	case []byte:
		return NormalizeSelectedComponents(string(t))
	case []map[string]any:
		return t
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, it := range t {
			if obj, ok := it.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.SliceStable(keys, func(i, j int) bool {
			oi, oj := legacyOrder(keys[i]), legacyOrder(keys[j])
			if oi != oj {
				return oi < oj
			}
			return keys[i] < keys[j]
		})

		var out []map[string]any
		for _, k := range keys {
			tag := k
			if ct, ok := legacyKeyTypes[k]; ok {
				tag = string(ct)
			}
			var items []map[string]any
			switch val := t[k].(type) {
			case map[string]any:
				items = []map[string]any{val}
			case []any:
				items = NormalizeSelectedComponents(val)
			}
			for _, it := range items {
				out = append(out, withType(it, tag))
			}
		}
		return out
	}
	return nil
}

func legacyOrder(key string) int {
	if ct, ok := legacyKeyTypes[key]; ok {
		return typeDisplayOrder[ct]
	}
	return len(typeDisplayOrder)
}

func withType(rec map[string]any, tag string) map[string]any {
	if anyPresent(rec, "component_type", "componentType") {
		return rec
	}
	cp := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		cp[k] = v
	}
	cp["component_type"] = tag
	return cp
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
