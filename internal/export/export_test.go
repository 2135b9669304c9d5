package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/business-anzsic-locator/internal/engine"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

func sampleItems() []engine.BatchItem {
	cafe := model.ClassificationResult{
		BusinessName:              "Test Cafe",
		DetectedType:              "cafe",
		Address:                   "123 Test St",
		RawTypes:                  []string{"cafe", "restaurant"},
		MatchMethod:               model.MatchDirectMap,
		RecommendedClassification: model.Classification{Code: "4511", Title: "Cafes and Restaurants"},
	}
	zephyr := model.ClassificationResult{
		BusinessName:              "Zephyr Holdings",
		DetectedType:              "corporate_office",
		Address:                   "1 George St",
		RawTypes:                  []string{},
		MatchMethod:               model.MatchFailed,
		RecommendedClassification: model.UnknownClassification(),
		AIClassification:          &model.Classification{Code: "6932", Title: "Accounting Services"},
	}

	return []engine.BatchItem{
		{Address: "123 Test St", Outcome: model.Outcome{Status: model.StatusSingle, Result: &cafe}},
		{Address: "1 George St", Outcome: model.Outcome{Status: model.StatusMultiple, Candidates: []model.ClassificationResult{cafe, zephyr}}},
		{Address: "Nowhere", Outcome: model.ErrorOutcome("No business found at this address.")},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleItems())
	require.Len(t, rows, 4)

	for _, row := range rows {
		assert.Len(t, row, len(Header))
	}

	assert.Equal(t, []string{"123 Test St", "single", "", "Test Cafe", "cafe", "direct_map", "4511", "Cafes and Restaurants", "", "", "cafe;restaurant"}, rows[0])
	assert.Equal(t, "multiple", rows[2][1])
	assert.Equal(t, "6932", rows[2][8])
	assert.Equal(t, "Accounting Services", rows[2][9])
	assert.Equal(t, []string{"Nowhere", "error", "No business found at this address.", "", "", "", "", "", "", "", ""}, rows[3])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleItems()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, "Test Cafe", records[1][3])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleItems()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "Zephyr Holdings", rows[3][3])
	assert.Equal(t, "No business found at this address.", rows[4][2])
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFromPath("out/results.XLSX"))
	assert.Equal(t, FormatCSV, FormatFromPath("results.csv"))
	assert.Equal(t, FormatCSV, FormatFromPath("results"))

	require.Error(t, Write(&bytes.Buffer{}, Format("pdf"), nil))
}
