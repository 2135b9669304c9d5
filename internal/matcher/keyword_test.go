package matcher

import (
	"testing"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestSignificantWords(t *testing.T) {
	tests := []struct {
		title string
		want  []string
	}{
		{"Legal Services", []string{"legal"}},
		{"Other Store-Based Retailing n.e.c.", []string{"store-based"}},
		{"Pubs, Taverns and Bars", []string{"pubs,", "taverns", "bars"}},
		{"Fuel Retailing", []string{"fuel"}},
		{"Toy and Game Retailing", []string{"game"}},
		{"Goods Shop Centre Not Elsewhere Classified", nil},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, significantWords(tt.title))
		})
	}
}

func TestKeywordMatcher(t *testing.T) {
	entries := []model.TaxonomyEntry{
		{Code: "4000", Title: "Fuel Retailing"},
		{Code: "5309", Title: "Other Warehousing and Storage Services"},
		{Code: "6931", Title: "Legal Services"},
		{Code: "6932", Title: "Accounting Services"},
	}
	km := NewKeywordMatcher(entries)

	t.Run("legal services example", func(t *testing.T) {
		got, ok := km.Match("Smith Legal Services")
		assert.True(t, ok)
		assert.Equal(t, "6931", got.Code)
	})

	t.Run("case insensitive substring", func(t *testing.T) {
		got, ok := km.Match("LUGGAGE STORAGE")
		assert.True(t, ok)
		assert.Equal(t, "5309", got.Code)
	})

	t.Run("first taxonomy match wins", func(t *testing.T) {
		got, ok := km.Match("Fuel and Legal Accounting")
		assert.True(t, ok)
		assert.Equal(t, "4000", got.Code)
	})

	t.Run("stopwords never match", func(t *testing.T) {
		_, ok := km.Match("Other Services")
		assert.False(t, ok)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := km.Match("Bob's Plumbing")
		assert.False(t, ok)
	})

	t.Run("empty name", func(t *testing.T) {
		_, ok := km.Match("")
		assert.False(t, ok)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, _ := km.Match("Downtown Legal Storage")
		for range 10 {
			again, _ := km.Match("Downtown Legal Storage")
			assert.Equal(t, first, again)
		}
		assert.Equal(t, "5309", first.Code)
	})
}

func TestMatchKeywordEmptyTaxonomy(t *testing.T) {
	_, ok := MatchKeyword("Smith Legal Services", nil)
	assert.False(t, ok)
}
