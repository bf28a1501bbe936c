// Package query holds the parameters of a job listing request and the
// pagination arithmetic around them.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SearchField names the job field a filter text is matched against.
type SearchField string

const (
	FieldNone        SearchField = ""
	FieldName        SearchField = "name"
	FieldCompanyName SearchField = "companyName"
	FieldLocation    SearchField = "location"
)

// SearchFields lists the selectable fields in display order.
var SearchFields = []SearchField{FieldNone, FieldName, FieldCompanyName, FieldLocation}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderFields lists the fields the listing can be sorted by.
var OrderFields = []string{"createdAt", "name", "companyName", "location", "salary"}

const (
	DefaultPerPage    = 10
	MaxPerPage        = 100
	DefaultOrderField = "createdAt"
)

// Wire keys, shared by the page URL and the jobs API.
const (
	KeyPage             = "page"
	KeyPerPage          = "perPage"
	KeySearchField      = "searchField"
	KeySearchQuery      = "searchQuery"
	KeyOrderByField     = "orderByField"
	KeyOrderByDirection = "orderByDirection"
)

// Params is the full set of inputs of one listing fetch.
type Params struct {
	Page             int         `validate:"min=1"`
	PerPage          int         `validate:"min=1,max=100"`
	SearchField      SearchField `validate:"omitempty,oneof=name companyName location"`
	SearchQuery      string      `validate:"max=200"`
	OrderByField     string      `validate:"oneof=createdAt name companyName location salary"`
	OrderByDirection Direction   `validate:"oneof=asc desc"`
}

var validate = validator.New()

// ErrInvalid wraps every parse and validation failure.
var ErrInvalid = errors.New("query: invalid parameters")

// Default returns the parameters of a freshly opened listing.
func Default() Params {
	return Params{
		Page:             1,
		PerPage:          DefaultPerPage,
		SearchField:      FieldNone,
		OrderByField:     DefaultOrderField,
		OrderByDirection: Asc,
	}
}

// Validate checks the struct constraints.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Parse reads parameters from a query string. Missing keys keep the values
// of base; malformed or out-of-range values are errors.
func Parse(values url.Values, base Params) (Params, error) {
	p := base

	if v := values.Get(KeyPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return base, fmt.Errorf("%w: page %q", ErrInvalid, v)
		}
		p.Page = n
	}
	if v := values.Get(KeyPerPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return base, fmt.Errorf("%w: perPage %q", ErrInvalid, v)
		}
		p.PerPage = n
	}
	if values.Has(KeySearchField) {
		p.SearchField = SearchField(values.Get(KeySearchField))
	}
	if values.Has(KeySearchQuery) {
		p.SearchQuery = values.Get(KeySearchQuery)
	}
	if v := values.Get(KeyOrderByField); v != "" {
		p.OrderByField = v
	}
	if v := values.Get(KeyOrderByDirection); v != "" {
		p.OrderByDirection = Direction(strings.ToLower(v))
	}

	if err := p.Validate(); err != nil {
		return base, err
	}
	return p, nil
}

// Values encodes the parameters with the wire keys.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set(KeyPage, strconv.Itoa(p.Page))
	v.Set(KeyPerPage, strconv.Itoa(p.PerPage))
	v.Set(KeySearchField, string(p.SearchField))
	v.Set(KeySearchQuery, p.SearchQuery)
	v.Set(KeyOrderByField, p.OrderByField)
	v.Set(KeyOrderByDirection, string(p.OrderByDirection))
	return v
}

// Encode is Values().Encode().
func (p Params) Encode() string {
	return p.Values().Encode()
}

// Previous returns the parameters of the previous page. It never goes below 1.
func (p Params) Previous() Params {
	p.Page = max(p.Page-1, 1)
	return p
}

// Next returns the parameters of the next page. There is no upper bound:
// asking past the last page is left to the server, which answers with an
// empty page.
func (p Params) Next() Params {
	p.Page++
	return p
}

// TotalPages is ceil(total / perPage). A non-positive perPage yields 0.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
