package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Veraticus/business-anzsic-locator/internal/engine"
)

// WriteCSV writes items with a header row.
func WriteCSV(w io.Writer, items []engine.BatchItem) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(Rows(items)); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
