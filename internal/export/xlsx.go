package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/openlead/leadscout/internal/model"
)

// XLSXExporter writes a single "Leads" worksheet.
type XLSXExporter struct{}

func (XLSXExporter) Export(w io.Writer, entities []model.CanonicalEntity) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	head := sheet.AddRow()
	for _, h := range headers {
		head.AddCell().SetString(h)
	}

	for _, e := range entities {
		row := Flatten(e)
		xr := sheet.AddRow()
		xr.AddCell().SetString(row.Name)
		xr.AddCell().SetString(row.Domain)
		xr.AddCell().SetString(row.Website)
		xr.AddCell().SetString(row.Description)
		xr.AddCell().SetString(row.Location)
		xr.AddCell().SetString(row.Size)
		xr.AddCell().SetString(row.Funding)
		xr.AddCell().SetString(row.Sources)
		xr.AddCell().SetInt(row.Composite)
		xr.AddCell().SetFloat(row.Intent)
		xr.AddCell().SetFloat(row.Fit)
		xr.AddCell().SetFloat(row.Tech)
		xr.AddCell().SetFloat(row.Engagement)
		xr.AddCell().SetString(row.Priority)
		xr.AddCell().SetString(row.Tags)
		xr.AddCell().SetString(row.Technologies)
		xr.AddCell().SetInt(row.OpenRoles)
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}
