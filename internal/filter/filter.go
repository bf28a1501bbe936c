package filter

import (
	"strings"

	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
)

// Options holds the filter criteria of a listing request. An empty Text
// means "no filter".
type Options struct {
	Field query.SearchField // "" matches against all searchable fields
	Text  string            // comma-separated terms, any one may match
}

// FromParams picks the filter criteria out of a listing request.
func FromParams(p query.Params) Options {
	return Options{Field: p.SearchField, Text: p.SearchQuery}
}

// Apply filters a slice of jobs, returning only those that match.
func Apply(jobs []model.Job, opts Options) []model.Job {
	if opts.isEmpty() {
		return jobs
	}

	result := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if Match(j, opts) {
			result = append(result, j)
		}
	}
	return result
}

// Match reports whether a single job satisfies the criteria.
func Match(j model.Job, opts Options) bool {
	if opts.isEmpty() {
		return true
	}

	var text string
	if opts.Field == query.FieldNone {
		text = j.FullText()
	} else {
		text = strings.ToLower(j.Field(string(opts.Field)))
	}
	return containsAny(text, opts.Text)
}

// containsAny checks if text contains any of the comma-separated terms.
func containsAny(text, terms string) bool {
	for _, term := range strings.Split(terms, ",") {
		term = strings.TrimSpace(strings.ToLower(term))
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func (o Options) isEmpty() bool {
	return strings.TrimSpace(strings.ReplaceAll(o.Text, ",", "")) == ""
}
