package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/model"
)

// CSVExporter writes a header row followed by one row per entity.
type CSVExporter struct{}

func (CSVExporter) Export(w io.Writer, entities []model.CanonicalEntity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, e := range entities {
		if err := cw.Write(Flatten(e).values()); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}
