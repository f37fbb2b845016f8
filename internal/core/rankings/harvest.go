package rankings

import (
	"fmt"

	"qsrankings/internal/platform/dom"
)

// Harvester extracts every ranking row of a rendered document. The "show all"
// control must already be applied, otherwise only the first page is seen.
type Harvester struct {
	RowSelector string
	Extractor   Extractor
}

func DefaultHarvester() Harvester {
	return Harvester{RowSelector: RowSelector, Extractor: DefaultExtractor()}
}

// Harvest returns one Record per row in document order. No rows is not an
// error. A row with a missing field aborts the whole harvest.
func (h Harvester) Harvest(doc dom.Document) ([]Record, error) {
	rows := doc.Select(h.RowSelector)
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := h.Extractor.Extract(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Harvest applies DefaultHarvester to doc.
func Harvest(doc dom.Document) ([]Record, error) {
	return DefaultHarvester().Harvest(doc)
}
