// Package export writes batch lookup results as CSV or XLSX.
package export

import (
	"strings"

	"github.com/Veraticus/business-anzsic-locator/internal/engine"
)

// Header is the column order shared by every format.
var Header = []string{
	"address",
	"status",
	"error",
	"business_name",
	"detected_type",
	"match_method",
	"anzsic_code",
	"anzsic_title",
	"ai_code",
	"ai_title",
	"raw_types",
}

// Rows flattens items into one row per classified business. Failed lookups produce a
// single row carrying the error.
func Rows(items []engine.BatchItem) [][]string {
	var rows [][]string
	for _, item := range items {
		o := item.Outcome
		if o.Failed() {
			rows = append(rows, []string{item.Address, "error", o.Error, "", "", "", "", "", "", "", ""})
			continue
		}

		for _, r := range o.Results() {
			var aiCode, aiTitle string
			if r.AIClassification != nil {
				aiCode = r.AIClassification.Code
				aiTitle = r.AIClassification.Title
			}
			rows = append(rows, []string{
				item.Address,
				string(o.Status),
				"",
				r.BusinessName,
				r.DetectedType,
				string(r.MatchMethod),
				r.RecommendedClassification.Code,
				r.RecommendedClassification.Title,
				aiCode,
				aiTitle,
				strings.Join(r.RawTypes, ";"),
			})
		}
	}
	return rows
}
