// Package export writes scored entities to CSV, JSON, or XLSX. Every
// exporter works off the same flattened row shape, so the formats stay in
// lockstep.
package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/model"
)

// Row is one entity flattened for tabular output.
type Row struct {
	Name         string  `json:"name"`
	Domain       string  `json:"domain"`
	Website      string  `json:"website"`
	Description  string  `json:"description"`
	Location     string  `json:"location"`
	Size         string  `json:"size"`
	Funding      string  `json:"funding"`
	Sources      string  `json:"sources"`
	Composite    int     `json:"composite"`
	Intent       float64 `json:"intent"`
	Fit          float64 `json:"fit"`
	Tech         float64 `json:"tech"`
	Engagement   float64 `json:"engagement"`
	Priority     string  `json:"priority"`
	Tags         string  `json:"tags"`
	Technologies string  `json:"technologies"`
	OpenRoles    int     `json:"open_roles"`
}

// headers is the column order shared by CSV and XLSX.
var headers = []string{
	"name", "domain", "website", "description", "location", "size",
	"funding", "sources", "composite", "intent", "fit", "tech",
	"engagement", "priority", "tags", "technologies", "open_roles",
}

// Flatten converts a scored entity to a row. Entities reaching the export
// boundary always carry a score.
func Flatten(e model.CanonicalEntity) Row {
	row := Row{
		Name:        e.Name,
		Domain:      e.Domain,
		Website:     e.Website(),
		Description: e.Field(model.FieldDescription),
		Location:    e.Field(model.FieldLocation),
		Size:        e.Field(model.FieldSize),
		Funding:     e.Field(model.FieldFunding),
		Sources:     strings.Join(e.Sources, ";"),
	}
	if e.Score != nil {
		row.Composite = e.Score.Composite
		row.Intent = e.Score.Intent
		row.Fit = e.Score.Fit
		row.Tech = e.Score.Tech
		row.Engagement = e.Score.Engagement
		row.Priority = string(e.Score.Priority)
		row.Tags = strings.Join(e.Score.Tags, ";")
	}
	if t := e.TechStackResult(); t != nil {
		row.Technologies = strings.Join(t.Technologies, ";")
	}
	if h := e.HiringResult(); h != nil {
		row.OpenRoles = h.OpenRoles
	}
	return row
}

func (r Row) values() []string {
	return []string{
		r.Name, r.Domain, r.Website, r.Description, r.Location, r.Size,
		r.Funding, r.Sources,
		strconv.Itoa(r.Composite),
		formatFloat(r.Intent), formatFloat(r.Fit), formatFloat(r.Tech),
		formatFloat(r.Engagement),
		r.Priority, r.Tags, r.Technologies,
		strconv.Itoa(r.OpenRoles),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

// Exporter writes a batch of scored entities to w.
type Exporter interface {
	Export(w io.Writer, entities []model.CanonicalEntity) error
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "csv":
		return CSVExporter{}, nil
	case "json":
		return JSONExporter{}, nil
	case "xlsx":
		return XLSXExporter{}, nil
	default:
		return nil, eris.Errorf("export: unknown format %q", format)
	}
}
