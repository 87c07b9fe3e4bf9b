package persistence

import (
	"context"

	"github.com/sheetplan/backend/internal/infrastructure/sheets"
)

// indexedRow pairs a data row with its 1-based physical position in the
// sheet. The header occupies row 1, so the first data row is position 2.
type indexedRow struct {
	position int
	cells    []string
}

// dataRows strips the header row
func dataRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}

// readIndexed reads all data rows together with their physical positions.
// Mutations go through this path instead of the cache because a write must
// target an exact physical location, and external edits can move rows.
func readIndexed(ctx context.Context, client sheets.Client, title string) ([]indexedRow, error) {
	rows, err := client.ReadRows(ctx, title)
	if err != nil {
		return nil, err
	}
	indexed := make([]indexedRow, 0, len(dataRows(rows)))
	for i, cells := range dataRows(rows) {
		indexed = append(indexed, indexedRow{position: i + 2, cells: cells})
	}
	return indexed, nil
}
