package mysql

const quoteColumns = `
  id, quote_number, client_first_name, client_last_name, client_email, client_phone,
  event_name, event_location, event_start_date, event_end_date, package_name, tier_name,
  travelers_adults, travelers_children, total_price, currency, status,
  payment_schedule, selected_components, created_at, updated_at`

const getQuoteSQL = `SELECT` + quoteColumns + `
FROM quotes WHERE id = ?`

const insertQuoteSQL = `
INSERT INTO quotes (
  id, quote_number, client_first_name, client_last_name, client_email, client_phone,
  event_name, event_location, event_start_date, event_end_date, package_name, tier_name,
  travelers_adults, travelers_children, total_price, currency, status,
  payment_schedule, selected_components
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

const updateQuoteSQL = `
UPDATE quotes SET
  client_first_name = ?, client_last_name = ?, client_email = ?, client_phone = ?,
  event_name = ?, event_location = ?, event_start_date = ?, event_end_date = ?,
  package_name = ?, tier_name = ?, travelers_adults = ?, travelers_children = ?,
  total_price = ?, currency = ?, status = ?, payment_schedule = ?, selected_components = ?
WHERE id = ?`

const quoteExistsSQL = `SELECT 1 FROM quotes WHERE id = ?`

const listQuoteIDsSQL = `SELECT id FROM quotes ORDER BY created_at DESC, id`

const listQuoteIDsByStatusSQL = `SELECT id FROM quotes WHERE status = ? ORDER BY created_at DESC, id`

const bookingColumns = `
  id, reference, quote_id, lead_traveler, guest_travelers, adjusted_payment_schedule,
  total_price, currency, notes, created_at`

const getBookingSQL = `SELECT` + bookingColumns + `
FROM bookings WHERE id = ?`

const getBookingByQuoteSQL = `SELECT` + bookingColumns + `
FROM bookings WHERE quote_id = ?`

const insertBookingSQL = `
INSERT INTO bookings (
  id, reference, quote_id, lead_traveler, guest_travelers, adjusted_payment_schedule,
  total_price, currency, notes, created_at
) VALUES (?,?,?,?,?,?,?,?,?,?)`

const insertBookingFlightSQL = `
INSERT INTO booking_flights (booking_id, position, booking_ref, ticketing_deadline, flight_status, notes)
VALUES (?,?,?,?,?,?)`

const insertBookingLoungeSQL = `
INSERT INTO booking_lounge_passes (booking_id, position, booking_ref, notes)
VALUES (?,?,?,?)`

const listBookingFlightsSQL = `
SELECT booking_ref, ticketing_deadline, flight_status, COALESCE(notes, '')
FROM booking_flights WHERE booking_id = ? ORDER BY position`

const listBookingLoungesSQL = `
SELECT booking_ref, COALESCE(notes, '')
FROM booking_lounge_passes WHERE booking_id = ? ORDER BY position`
