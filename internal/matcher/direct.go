// Package matcher implements the deterministic classification tiers: a fixed
// place-type table and a keyword scan over taxonomy titles.
package matcher

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

//go:embed direct_types.yaml
var directTypesYAML []byte

// DirectTypeMapper maps curated place-type tags to taxonomy classes.
type DirectTypeMapper struct {
	table map[string]model.Classification
}

// NewDirectTypeMapper builds a mapper from the built-in table.
func NewDirectTypeMapper() (*DirectTypeMapper, error) {
	return ParseDirectTypes(directTypesYAML)
}

// ParseDirectTypes builds a mapper from a YAML document of tag -> {code, title}.
func ParseDirectTypes(data []byte) (*DirectTypeMapper, error) {
	var raw map[string]model.Classification
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse direct type table: %w", err)
	}

	table := make(map[string]model.Classification, len(raw))
	for tag, c := range raw {
		if c.Code == "" || c.Title == "" {
			return nil, fmt.Errorf("direct type %q: code and title are required", tag)
		}
		table[strings.ToLower(tag)] = c
	}
	return &DirectTypeMapper{table: table}, nil
}

// Map looks up primaryType first and then each of types in order. The returned match
// method tells whether the hit came from the primary type or the fallback list.
func (m *DirectTypeMapper) Map(primaryType string, types []string) (model.Classification, model.MatchMethod, bool) {
	if primaryType != "" {
		if c, ok := m.table[strings.ToLower(primaryType)]; ok {
			return c, model.MatchDirectMap, true
		}
	}

	for _, t := range types {
		if c, ok := m.table[strings.ToLower(t)]; ok {
			return c, model.MatchDirectMapFallback, true
		}
	}

	return model.Classification{}, "", false
}

// Has reports whether tag is a mapped place type.
func (m *DirectTypeMapper) Has(tag string) bool {
	_, ok := m.table[strings.ToLower(tag)]
	return ok
}

// Len returns the number of mapped tags.
func (m *DirectTypeMapper) Len() int {
	return len(m.table)
}
