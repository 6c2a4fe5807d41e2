package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/model"
)

// JSONExporter writes the full entities, not the flattened rows: JSON
// consumers get provenance, enrichment payloads, and the complete score
// record.
type JSONExporter struct{}

func (JSONExporter) Export(w io.Writer, entities []model.CanonicalEntity) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if entities == nil {
		entities = []model.CanonicalEntity{}
	}
	return eris.Wrap(enc.Encode(entities), "export: encode json")
}
