package matcher

import (
	"strings"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// minKeywordLength is the shortest title word considered significant.
const minKeywordLength = 4

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "of": {}, "for": {},
	"services": {}, "retailing": {}, "manufacturing": {}, "other": {},
	"not": {}, "elsewhere": {}, "classified": {}, "n.e.c.": {},
	"goods": {}, "shop": {}, "store": {}, "centre": {},
}

type keywordEntry struct {
	words []string
	entry model.TaxonomyEntry
}

// KeywordMatcher finds the first taxonomy entry, in taxonomy order, with a
// significant title word contained in a business name.
type KeywordMatcher struct {
	entries []keywordEntry
}

// NewKeywordMatcher pre-tokenises entries, keeping their order.
func NewKeywordMatcher(entries []model.TaxonomyEntry) *KeywordMatcher {
	km := &KeywordMatcher{entries: make([]keywordEntry, 0, len(entries))}
	for _, e := range entries {
		km.entries = append(km.entries, keywordEntry{entry: e, words: significantWords(e.Title)})
	}
	return km
}

// Match returns the first entry whose significant word appears in businessName.
func (km *KeywordMatcher) Match(businessName string) (model.TaxonomyEntry, bool) {
	name := strings.ToLower(businessName)
	if name == "" || km == nil {
		return model.TaxonomyEntry{}, false
	}
	for _, ke := range km.entries {
		for _, w := range ke.words {
			if strings.Contains(name, w) {
				return ke.entry, true
			}
		}
	}
	return model.TaxonomyEntry{}, false
}

// MatchKeyword is the one-shot form of KeywordMatcher.Match.
func MatchKeyword(businessName string, entries []model.TaxonomyEntry) (model.TaxonomyEntry, bool) {
	return NewKeywordMatcher(entries).Match(businessName)
}

// significantWords splits a title on whitespace and drops stopwords and short words.
// Punctuation stays attached to the word it follows.
func significantWords(title string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if len(w) < minKeywordLength {
			continue
		}
		words = append(words, w)
	}
	return words
}
