package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// Output formats of the query commands.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
)

var formats = []string{FormatTable, FormatJSON, FormatCSV, FormatMarkdown}

// resultPage is one rendered page of a query result.
type resultPage struct {
	Cols      []string
	Rows      [][]string
	Page      int
	PageCount int
	Total     int64
}

// pageFromDataSet stringifies a data set in column order.
func pageFromDataSet(ds *core.DataSet, page, pageSize int) resultPage {
	rp := resultPage{
		Cols:      ds.Cols,
		Page:      page,
		PageCount: ds.PageCount(pageSize),
		Total:     ds.TotalNumberOfElements,
	}
	for _, rec := range ds.Data {
		row := make([]string, len(ds.Cols))
		for i, col := range ds.Cols {
			row[i] = formatValue(rec[col])
		}
		rp.Rows = append(rp.Rows, row)
	}
	return rp
}

func (rp resultPage) pager() string {
	return fmt.Sprintf("Page %d of %d (%d elements)", rp.Page, rp.PageCount, rp.Total)
}

func (rp resultPage) writer(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)

	header := make(table.Row, len(rp.Cols))
	for i, col := range rp.Cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range rp.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		t.AppendRow(row)
	}
	return t
}

// renderPage writes a page in the given format. JSON keeps the raw data
// set when one is given.
func renderPage(w io.Writer, rp resultPage, ds *core.DataSet, format string) error {
	switch format {
	case FormatJSON:
		if ds != nil {
			return renderJSON(w, ds)
		}
		records := make([]map[string]string, 0, len(rp.Rows))
		for _, r := range rp.Rows {
			rec := make(map[string]string, len(rp.Cols))
			for i, col := range rp.Cols {
				rec[col] = r[i]
			}
			records = append(records, rec)
		}
		return renderJSON(w, records)
	case FormatCSV:
		rp.writer(w).RenderCSV()
		return nil
	case FormatMarkdown, "markdown":
		rp.writer(w).RenderMarkdown()
		_, _ = fmt.Fprintf(w, "\n%s\n", rp.pager())
		return nil
	case FormatTable, "":
		if len(rp.Rows) == 0 {
			_, _ = fmt.Fprintln(w, "(0 rows)")
		} else {
			rp.writer(w).Render()
		}
		_, _ = fmt.Fprintln(w, rp.pager())
		return nil
	default:
		return fmt.Errorf("unknown format %q (want one of %v)", format, formats)
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
