package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

func cafe() model.ClassificationResult {
	return model.ClassificationResult{
		BusinessName:              "Test Cafe",
		DetectedType:              "cafe",
		Address:                   "123 Test St",
		RawTypes:                  []string{"cafe", "food"},
		MatchMethod:               model.MatchDirectMap,
		RecommendedClassification: model.Classification{Code: "4511", Title: "Cafes and Restaurants"},
	}
}

func TestRenderOutcome(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		out := RenderOutcome("x", model.ErrorOutcome("No business found at this address."))
		assert.Contains(t, out, "No business found at this address.")
		assert.Contains(t, out, ErrorIcon)
	})

	t.Run("single", func(t *testing.T) {
		r := cafe()
		out := RenderOutcome("123 Test St", model.Outcome{Status: model.StatusSingle, Result: &r})
		assert.Contains(t, out, "Test Cafe")
		assert.Contains(t, out, "4511")
		assert.Contains(t, out, "Cafes and Restaurants")
		assert.Contains(t, out, "place type")
		assert.Contains(t, out, "cafe, food")
		assert.NotContains(t, out, "AI suggestion")
	})

	t.Run("multiple with ai", func(t *testing.T) {
		failed := model.ClassificationResult{
			BusinessName:              "Zephyr Holdings",
			DetectedType:              "corporate_office",
			Address:                   "1 Tower Rd",
			MatchMethod:               model.MatchFailed,
			RecommendedClassification: model.UnknownClassification(),
			AIClassification:          &model.Classification{Code: "6932", Title: "Accounting Services"},
		}
		out := RenderOutcome("1 Tower Rd", model.Outcome{
			Status:     model.StatusMultiple,
			Candidates: []model.ClassificationResult{cafe(), failed},
		})
		assert.Contains(t, out, "2 businesses found nearby")
		assert.Contains(t, out, "1. Test Cafe")
		assert.Contains(t, out, "2. Zephyr Holdings")
		assert.Contains(t, out, "AI suggestion")
		assert.Contains(t, out, "6932")
		assert.Contains(t, out, "Classification Not Found")
	})

	t.Run("empty", func(t *testing.T) {
		assert.Contains(t, RenderOutcome("x", model.Outcome{Status: model.StatusSingle}), "No results")
	})
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Code", "Title"}, [][]string{
		{"4511", "Cafes and Restaurants"},
		{"6931"},
	})
	assert.Contains(t, out, "Code")
	assert.Contains(t, out, "Cafes and Restaurants")
	assert.Contains(t, out, "6931")
}

func TestRenderTaxonomy(t *testing.T) {
	assert.Contains(t, RenderTaxonomy(nil), "No matching ANZSIC classes")

	out := RenderTaxonomy([]model.TaxonomyEntry{
		{Code: "4511", Title: "Cafes and Restaurants", Division: "H", DivisionTitle: "Accommodation and Food Services"},
	})
	assert.Contains(t, out, "4511")
	assert.Contains(t, out, "Accommodation and Food Services")
}

func TestProgress(t *testing.T) {
	var out syncBuffer
	p := NewProgress(&out, 3)

	p.Step()
	p.Step()
	assert.Equal(t, 2, p.Done())

	p.Finish()
	assert.Contains(t, out.String(), "Identifying businesses")
}
