package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/rsilvagit/joblist/internal/i18n"
	"github.com/rsilvagit/joblist/internal/listing"
)

// PageWriter defines how a loaded listing page is presented or shared.
type PageWriter interface {
	WritePage(ctx context.Context, view listing.View) error
}

// ConsolePrinter writes a page as a table followed by "page/totalPages".
type ConsolePrinter struct {
	out io.Writer
	tr  i18n.Translator
}

func NewConsolePrinter(out io.Writer, tr i18n.Translator) *ConsolePrinter {
	return &ConsolePrinter{out: out, tr: tr}
}

func (cp *ConsolePrinter) WritePage(ctx context.Context, view listing.View) error {
	table := tablewriter.NewWriter(cp.out)
	table.Header(
		cp.tr.T("Company Name"),
		cp.tr.T("Job Name"),
		cp.tr.T("Location"),
		cp.tr.T("Salary"),
		cp.tr.T("Tags"),
	)

	for _, j := range view.Jobs {
		if err := table.Append(j.CompanyName, j.Name, j.Location, j.Salary, strings.Join(j.Tags, ", ")); err != nil {
			return fmt.Errorf("output: table row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("output: rendering table: %w", err)
	}

	_, err := fmt.Fprintf(cp.out, "%d/%d\n", view.Params.Page, view.TotalPages)
	return err
}

// chunk groups entries into messages no longer than limit, starting with
// header. A single oversized entry gets a message of its own.
func chunk(header string, entries []string, limit int) []string {
	var chunks []string
	var current strings.Builder
	current.WriteString(header)

	n := 0
	for _, entry := range entries {
		if n > 0 && current.Len()+len(entry) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			n = 0
		}
		current.WriteString(entry)
		n++
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
