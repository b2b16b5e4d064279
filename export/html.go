/*
html.go - Printable HTML report

PURPOSE:
  Renders a Record as a self-contained HTML document (inline CSS, no
  external assets) that prints cleanly. Status cells are wrapped in badge
  spans: b-ok, b-warn, b-crit. Other values render as plain text and
  empty cells as an em dash.

SEE ALSO:
  - report/issues.go: Classify
  - publish.go: Delivery to a print surface with a download fallback
*/
package export

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"
	"time"

	"github.com/warp/opsreport/report"
)

//go:embed templates/report.html.tmpl
var reportTemplateText string

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"even": func(i int) bool { return i%2 == 0 },
}).Parse(reportTemplateText))

// HTMLOptions tunes the document.
type HTMLOptions struct {
	// AutoPrint adds a script that opens the print dialog on load.
	AutoPrint bool
	// GeneratedAt is stamped in the header and footer. Zero means now.
	GeneratedAt time.Time
}

type cellView struct {
	Text  string
	Badge string
}

type tableView struct {
	Title   string
	Headers []string
	Rows    [][]cellView
}

type pageView struct {
	Date         string
	LongDate     string
	PreparedBy   string
	Generated    string
	Tables       []tableView
	SummaryNotes string
	NextActions  string
	AutoPrint    bool
}

// RenderHTML writes the printable document for rec to w.
func RenderHTML(w io.Writer, rec report.Record, opts HTMLOptions) error {
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	page := pageView{
		Date:         rec.Date,
		LongDate:     report.FormatDate(rec.Date),
		PreparedBy:   orDefault(rec.PreparedBy, "N/A"),
		Generated:    generated.Format("02/01/2006, 15:04:05"),
		SummaryNotes: orDefault(rec.SummaryNotes, "—"),
		NextActions:  orDefault(rec.NextActions, "—"),
		AutoPrint:    opts.AutoPrint,
	}
	for _, schema := range report.Schemas() {
		page.Tables = append(page.Tables, tableFor(schema, rec.Table(schema.Category)))
	}
	return reportTemplate.Execute(w, page)
}

// HTML renders rec into a byte slice.
func HTML(rec report.Record, opts HTMLOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, rec, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tableFor(schema report.TableSchema, rows [][]string) tableView {
	t := tableView{Title: schema.Title, Headers: schema.Headers}
	for _, row := range rows {
		cells := make([]cellView, len(row))
		for i, v := range row {
			cells[i] = cellView{Text: v, Badge: string(report.Classify(v))}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
