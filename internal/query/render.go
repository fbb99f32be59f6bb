package query

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// ContentType returns the HTTP content type for f.
func ContentType(f Format) string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/html; charset=utf-8"
	}
}

// Render writes records to w in format f. All formats carry the same rows in
// the same order.
func Render(w io.Writer, f Format, records []domain.Record) error {
	switch f {
	case FormatCSV:
		return renderCSV(w, records)
	case FormatJSON:
		return renderJSON(w, records)
	default:
		return renderHTML(w, records)
	}
}

func renderCSV(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderJSON(w io.Writer, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

func row(r domain.Record) []string {
	return []string{
		r.UserID,
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		r.State,
		r.Country,
		r.Description,
		string(r.Category),
		formatFloat(r.Temperature),
		formatFloat(r.Humidity),
		formatFloat(r.Rain),
		r.Date,
		r.Time,
		r.Filepath,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var tableTmpl = template.Must(template.New("table").Parse(`<table border="1" class="dataframe">
  <thead>
    <tr style="text-align: right;">
{{- range .Columns}}
      <th>{{.}}</th>
{{- end}}
    </tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr>
{{- range .Cells}}
      <td>{{.}}</td>
{{- end}}
      <td>{{if .Filepath}}<a href="/{{.Filepath}}">{{.Filepath}}</a>{{end}}</td>
    </tr>
{{- end}}
  </tbody>
</table>
`))

type htmlRow struct {
	Cells    []string
	Filepath string
}

func renderHTML(w io.Writer, records []domain.Record) error {
	rows := make([]htmlRow, len(records))
	for i, r := range records {
		cells := row(r)
		rows[i] = htmlRow{Cells: cells[:len(cells)-1], Filepath: r.Filepath}
	}
	return tableTmpl.Execute(w, struct {
		Columns []string
		Rows    []htmlRow
	}{domain.Columns, rows})
}
