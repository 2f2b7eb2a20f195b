package pdf

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"travel_backoffice/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Printer turns a self-contained HTML document into PDF bytes.
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// Renderer lays documents out as HTML and prints them to A4 PDF.
type Renderer struct {
	quote   *template.Template
	booking *template.Template
	printer Printer
}

var funcs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
	"label": func(v any) string {
		s := strings.ReplaceAll(fmt.Sprint(v), "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	// logo only trusts inline raster images produced by the logo inliner
	"logo": func(uri string) template.URL {
		if strings.HasPrefix(uri, "data:image/png;base64,") || strings.HasPrefix(uri, "data:image/jpeg;base64,") {
			return template.URL(uri)
		}
		return ""
	},
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, errors.New("dict: odd number of arguments")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
			}
			m[k] = kv[i+1]
		}
		return m, nil
	},
}

func NewRenderer(p Printer) (*Renderer, error) {
	parse := func(page string) (*template.Template, error) {
		return template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
	}
	q, err := parse("quote.html")
	if err != nil {
		return nil, fmt.Errorf("parse quote template: %w", err)
	}
	b, err := parse("booking.html")
	if err != nil {
		return nil, fmt.Errorf("parse booking template: %w", err)
	}
	return &Renderer{quote: q, booking: b, printer: p}, nil
}

func (r *Renderer) QuoteHTML(doc domain.QuoteDocument) (string, error) {
	var buf bytes.Buffer
	if err := r.quote.ExecuteTemplate(&buf, "quote.html", doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) BookingHTML(doc domain.BookingDocument) (string, error) {
	var buf bytes.Buffer
	if err := r.booking.ExecuteTemplate(&buf, "booking.html", doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) RenderQuote(ctx context.Context, doc domain.QuoteDocument) ([]byte, error) {
	html, err := r.QuoteHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("layout quote: %w", err)
	}
	return r.printer.PrintPDF(ctx, html)
}

func (r *Renderer) RenderBooking(ctx context.Context, doc domain.BookingDocument) ([]byte, error) {
	html, err := r.BookingHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("layout booking: %w", err)
	}
	return r.printer.PrintPDF(ctx, html)
}
