// Package web renders the listing pages from embedded templates.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/rsilvagit/joblist/internal/i18n"
	"github.com/rsilvagit/joblist/internal/listing"
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded static assets (stylesheet and live script).
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Option is one entry of a select control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// PageData is the input of every template. Fragments use the subset they
// need.
type PageData struct {
	Tr      i18n.Translator
	User    *model.User
	View    listing.View
	Applied listing.AppliedView
	// Notice is an already translated one-line message, e.g. a failed withdraw.
	Notice string
	Demo   bool
}

// SearchFieldOptions returns the filter field choices.
func (d PageData) SearchFieldOptions() []Option {
	labels := map[query.SearchField]string{
		query.FieldNone:        "Select a Field",
		query.FieldName:        "Job Name",
		query.FieldCompanyName: "Company Name",
		query.FieldLocation:    "Location",
	}
	opts := make([]Option, 0, len(query.SearchFields))
	for _, f := range query.SearchFields {
		opts = append(opts, Option{
			Value:    string(f),
			Label:    d.Tr.T(labels[f]),
			Selected: d.View.Params.SearchField == f,
		})
	}
	return opts
}

// OrderFieldOptions returns the sort field choices.
func (d PageData) OrderFieldOptions() []Option {
	labels := map[string]string{
		"createdAt":   "Created",
		"name":        "Job Name",
		"companyName": "Company Name",
		"location":    "Location",
		"salary":      "Salary",
	}
	opts := make([]Option, 0, len(query.OrderFields))
	for _, f := range query.OrderFields {
		opts = append(opts, Option{
			Value:    f,
			Label:    d.Tr.T(labels[f]),
			Selected: d.View.Params.OrderByField == f,
		})
	}
	return opts
}

// DirectionOptions returns the sort direction choices.
func (d PageData) DirectionOptions() []Option {
	return []Option{
		{Value: string(query.Asc), Label: d.Tr.T("Ascending"), Selected: d.View.Params.OrderByDirection == query.Asc},
		{Value: string(query.Desc), Label: d.Tr.T("Descending"), Selected: d.View.Params.OrderByDirection == query.Desc},
	}
}

type cardData struct {
	Tr       i18n.Translator
	Job      model.Job
	SignedIn bool
	Return   string
}

var funcs = template.FuncMap{
	"pageURL": PageURL,
	"card": func(d PageData, j model.Job) cardData {
		return cardData{Tr: d.Tr, Job: j, SignedIn: d.User != nil, Return: string(PageURL(d.View.Params))}
	},
}

// PageURL is the server-rendered listing URL for a set of parameters.
func PageURL(p query.Params) template.URL {
	return template.URL("/jobs?" + p.Encode())
}

// Renderer executes the page templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("web").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page renders the full listing page.
func (r *Renderer) Page(w io.Writer, d PageData) error {
	return r.execute(w, "page", d)
}

// Listing renders the listing fragment: loading, error, or cards with
// pagination.
func (r *Renderer) Listing(w io.Writer, d PageData) error {
	return r.execute(w, "listing", d)
}

// Applied renders the applied-jobs panel.
func (r *Renderer) Applied(w io.Writer, d PageData) error {
	return r.execute(w, "applied", d)
}

// String renders a named fragment into a string, for live pushes.
func (r *Renderer) String(name string, d PageData) (string, error) {
	var buf bytes.Buffer
	if err := r.execute(&buf, name, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// execute buffers the output so a failing template never leaves a
// half-written page behind.
func (r *Renderer) execute(w io.Writer, name string, d PageData) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, d); err != nil {
		return fmt.Errorf("web: rendering %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
