package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Veraticus/business-anzsic-locator/internal/engine"
)

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from a file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Write dispatches to the writer for format.
func Write(w io.Writer, format Format, items []engine.BatchItem) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, items)
	case FormatXLSX:
		return WriteXLSX(w, items)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}
