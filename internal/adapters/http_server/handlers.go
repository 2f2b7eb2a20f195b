package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"travel_backoffice/internal/app"
	"travel_backoffice/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Quotes    *app.QuoteService
	Bookings  *app.BookingService
	Documents *app.DocumentService
	Rates     *app.RateService
	Inventory Inventory
}

// Inventory groups the per-entity managers; nil entries are not mounted.
type Inventory struct {
	Flights          *app.InventoryService[domain.Flight]
	AirportTransfers *app.InventoryService[domain.AirportTransfer]
	CircuitTransfers *app.InventoryService[domain.CircuitTransfer]
	Venues           *app.InventoryService[domain.Venue]
	TicketCategories *app.InventoryService[domain.TicketCategory]
}

type problem struct {
	Type      string                    `json:"type"`
	Title     string                    `json:"title"`
	Status    int                       `json:"status"`
	Detail    string                    `json:"detail,omitempty"`
	Errors    []*domain.ValidationError `json:"errors,omitempty"`
	BookingID string                    `json:"bookingId,omitempty"`
	Deleted   *int                      `json:"deleted,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		mountInventory(r, "/flights", h.Inventory.Flights)
		mountInventory(r, "/airport-transfers", h.Inventory.AirportTransfers)
		mountInventory(r, "/circuit-transfers", h.Inventory.CircuitTransfers)
		mountInventory(r, "/venues", h.Inventory.Venues)
		mountInventory(r, "/ticket-categories", h.Inventory.TicketCategories)

		r.Get("/quotes", h.listQuotes)
		r.Route("/quotes/{id}", func(r chi.Router) {
			r.Get("/", h.getQuote)
			r.Put("/", h.updateQuote)
			r.Get("/components", h.quoteComponents)
			r.Get("/pdf", h.quotePDF)
			r.Get("/booking-form", h.bookingForm)
			r.Post("/bookings", h.createBooking)
		})
		r.Get("/bookings/{id}", h.getBooking)
		r.Get("/bookings/{id}/pdf", h.bookingPDF)

		r.Get("/currency/convert", h.convert)
		r.Post("/components/extract", h.extractComponents)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// problemFor maps a service error onto a problem body. action reads like
// "create flight" and prefixes unexpected backend failures.
func problemFor(action string, err error) problem {
	var (
		verrs domain.ValidationErrors
		verr  *domain.ValidationError
	)
	switch {
	case errors.As(err, &verrs):
		return problem{Title: "Validation Failed", Status: http.StatusUnprocessableEntity, Detail: err.Error(), Errors: verrs}
	case errors.As(err, &verr):
		return problem{Title: "Validation Failed", Status: http.StatusUnprocessableEntity, Detail: err.Error(),
			Errors: []*domain.ValidationError{verr}}
	case errors.Is(err, domain.ErrNotFound):
		return problem{Title: "Not Found", Status: http.StatusNotFound, Detail: err.Error()}
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrNotAvailable):
		return problem{Title: "Conflict", Status: http.StatusConflict, Detail: err.Error()}
	}
	log.Error().Err(err).Str("action", action).Msg("request failed")
	return problem{Title: "Internal Server Error", Status: http.StatusInternalServerError,
		Detail: fmt.Sprintf("Failed to %s: %s", action, err.Error())}
}

func writeError(w http.ResponseWriter, action string, err error) {
	writeProblemBody(w, problemFor(action, err))
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCachedJSON answers a GET with an ETag and honours If-None-Match.
func writeCachedJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response encoding failed")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writePDF(w http.ResponseWriter, filename string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Error().Err(err).Str("file", filename).Msg("failed to write pdf")
	}
}

// decodeJSON reads a bounded JSON body into dst and reports a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		detail := err.Error()
		if errors.Is(err, io.EOF) {
			detail = "request body is empty"
		}
		writeProblem(w, http.StatusBadRequest, "Invalid Body", detail)
		return false
	}
	return true
}

// ---- quotes ----

func (h *Handlers) listQuotes(w http.ResponseWriter, r *http.Request) {
	status := domain.QuoteStatus(strings.ToLower(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		writeProblem(w, http.StatusBadRequest, "Invalid status", fmt.Sprintf("unknown quote status %q", status))
		return
	}
	ids, err := h.Quotes.ListQuoteIDs(r.Context(), status)
	if err != nil {
		writeError(w, "list quotes", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeCachedJSON(w, r, map[string]any{"ids": ids})
}

func (h *Handlers) getQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.Quotes.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "load quote", err)
		return
	}
	writeCachedJSON(w, r, q)
}

func (h *Handlers) updateQuote(w http.ResponseWriter, r *http.Request) {
	var q domain.Quote
	if !decodeJSON(w, r, &q) {
		return
	}
	q.ID = chi.URLParam(r, "id")
	out, err := h.Quotes.UpdateQuote(r.Context(), q)
	if err != nil {
		writeError(w, "update quote", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) quoteComponents(w http.ResponseWriter, r *http.Request) {
	out, err := h.Quotes.QuoteComponents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "load quote components", err)
		return
	}
	writeCachedJSON(w, r, out)
}

func (h *Handlers) quotePDF(w http.ResponseWriter, r *http.Request) {
	name, pdf, err := h.Documents.QuotePDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "generate quote PDF", err)
		return
	}
	writePDF(w, name, pdf)
}

// ---- bookings ----

func (h *Handlers) bookingForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.Bookings.PrepareBookingForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "prepare booking form", err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateBookingData
	if !decodeJSON(w, r, &in) {
		return
	}
	in.QuoteID = chi.URLParam(r, "id")

	b, err := h.Bookings.CreateFromQuote(r.Context(), in)
	if err != nil {
		p := problemFor("create booking", err)
		switch p.Status {
		case http.StatusConflict:
			p.Detail = app.FriendlyBookingError(err)
			if b != nil {
				p.BookingID = b.ID
			}
		case http.StatusNotFound:
			p.Detail = app.FriendlyBookingError(err)
		case http.StatusInternalServerError:
			p.Detail = "Failed to create booking: " + app.FriendlyBookingError(err)
		}
		writeProblemBody(w, p)
		return
	}
	w.Header().Set("Location", "/v1/bookings/"+b.ID)
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookings.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "load booking", err)
		return
	}
	writeCachedJSON(w, r, b)
}

func (h *Handlers) bookingPDF(w http.ResponseWriter, r *http.Request) {
	name, pdf, err := h.Documents.BookingPDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "generate booking PDF", err)
		return
	}
	writePDF(w, name, pdf)
}

// ---- currency & extraction ----

type conversion struct {
	Amount        float64  `json:"amount"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	Converted     float64  `json:"converted"`
	MarkupPercent *float64 `json:"markupPercent,omitempty"`
	SellPrice     *float64 `json:"sellPrice,omitempty"`
}

func (h *Handlers) convert(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	amount, err := strconv.ParseFloat(qs.Get("amount"), 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid amount", "amount must be a number")
		return
	}
	from := strings.ToUpper(strings.TrimSpace(qs.Get("from")))
	if len(from) != 3 {
		writeProblem(w, http.StatusBadRequest, "Invalid currency", "from must be a 3-letter currency code")
		return
	}
	to := strings.ToUpper(strings.TrimSpace(qs.Get("to")))
	if to == "" {
		to = h.Rates.DisplayCurrency()
	}
	if len(to) != 3 {
		writeProblem(w, http.StatusBadRequest, "Invalid currency", "to must be a 3-letter currency code")
		return
	}

	out := conversion{Amount: amount, From: from, To: to, Converted: h.Rates.Convert(r.Context(), amount, from, to)}
	if ms := qs.Get("markup"); ms != "" {
		m, err := strconv.ParseFloat(ms, 64)
		if err != nil || m < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid markup", "markup must be a non-negative number")
			return
		}
		sell := app.ApplyMarkup(out.Converted, m)
		out.MarkupPercent, out.SellPrice = &m, &sell
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) extractComponents(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Components any `json:"components"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	writeJSON(w, http.StatusOK, h.Quotes.Extract(body.Components))
}
