package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"travel_backoffice/internal/app"
	"travel_backoffice/internal/domain"
)

type inventoryHandlers[T any] struct {
	svc *app.InventoryService[T]
}

func mountInventory[T any](r chi.Router, path string, svc *app.InventoryService[T]) {
	if svc == nil {
		return
	}
	h := inventoryHandlers[T]{svc: svc}
	r.Route(path, func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/bulk-delete", h.bulkDelete)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h inventoryHandlers[T]) label() string { return h.svc.Entity().Label() }

// parseListQuery reads page, pageSize, sort (a leading "-" or order=desc
// sorts descending), q for free text, from_<field>/to_<field> for ranges.
// Every other parameter is an equality filter.
func parseListQuery(v url.Values) (domain.ListQuery, error) {
	q := domain.ListQuery{Filters: map[string]string{}, From: map[string]string{}, To: map[string]string{}}
	for key, vals := range v {
		if len(vals) == 0 {
			continue
		}
		val := strings.TrimSpace(vals[0])
		switch {
		case key == "page" || key == "pageSize":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return q, domain.Invalid(key, key+" must be a positive integer")
			}
			if key == "page" {
				q.Page = n
			} else {
				q.PageSize = n
			}
		case key == "sort":
			if strings.HasPrefix(val, "-") {
				q.Desc, val = true, val[1:]
			}
			q.Sort = val
		case key == "order":
			if strings.EqualFold(val, "desc") {
				q.Desc = true
			}
		case key == "q" || key == "search":
			q.Search = val
		case strings.HasPrefix(key, "from_"):
			q.From[strings.TrimPrefix(key, "from_")] = val
		case strings.HasPrefix(key, "to_"):
			q.To[strings.TrimPrefix(key, "to_")] = val
		case val != "":
			q.Filters[key] = val
		}
	}
	return q, nil
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

func (h inventoryHandlers[T]) list(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, "list "+h.label()+" records", err)
		return
	}
	page, err := h.svc.List(r.Context(), q)
	if err != nil {
		writeError(w, "list "+h.label()+" records", err)
		return
	}
	writeCachedJSON(w, r, page)
}

func (h inventoryHandlers[T]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "load "+h.label(), err)
		return
	}
	writeCachedJSON(w, r, v)
}

func (h inventoryHandlers[T]) create(w http.ResponseWriter, r *http.Request) {
	var v T
	if !decodeJSON(w, r, &v) {
		return
	}
	out, err := h.svc.Create(r.Context(), v)
	if err != nil {
		writeError(w, "create "+h.label(), err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h inventoryHandlers[T]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var v T
	if !decodeJSON(w, r, &v) {
		return
	}
	out, err := h.svc.Update(r.Context(), id, v)
	if err != nil {
		writeError(w, "update "+h.label(), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h inventoryHandlers[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, "delete "+h.label(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bulkDelete reports how many records went before the first failure.
func (h inventoryHandlers[T]) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if len(body.IDs) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "ids must not be empty")
		return
	}
	n, err := h.svc.BulkDelete(r.Context(), body.IDs)
	if err != nil {
		p := problemFor(fmt.Sprintf("delete %d %s records", len(body.IDs), h.label()), err)
		p.Deleted = &n
		writeProblemBody(w, p)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
