// Package taxonomy holds the reference industry classification dataset. A Taxonomy is
// built once and is read-only afterwards; entry order is the order of the source file
// and is significant to the keyword matcher.
package taxonomy

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/Veraticus/business-anzsic-locator/internal/config"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

//go:embed data/anzsic_codes.json
var embedded embed.FS

const embeddedPath = "data/anzsic_codes.json"

// Taxonomy errors.
var (
	ErrDuplicateCode = errors.New("duplicate taxonomy code")
	ErrEmptyCode     = errors.New("taxonomy entry has empty code")
)

// Taxonomy is an immutable, ordered collection of taxonomy entries.
type Taxonomy struct {
	byCode  map[string]int
	entries []model.TaxonomyEntry
}

// New builds a taxonomy from entries, preserving their order.
func New(entries []model.TaxonomyEntry) (*Taxonomy, error) {
	t := &Taxonomy{
		entries: make([]model.TaxonomyEntry, 0, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		e.Code = strings.TrimSpace(e.Code)
		if e.Code == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyCode)
		}
		if _, dup := t.byCode[e.Code]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, e.Code)
		}
		t.byCode[e.Code] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// Empty returns a taxonomy with no entries.
func Empty() *Taxonomy {
	return &Taxonomy{byCode: map[string]int{}}
}

// Parse decodes a JSON array of taxonomy entries.
func Parse(r io.Reader) (*Taxonomy, error) {
	var entries []model.TaxonomyEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy: %w", err)
	}
	return New(entries)
}

// Load reads the taxonomy file at path. An empty path loads the embedded dataset.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open taxonomy file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// Default loads the dataset compiled into the binary.
func Default() (*Taxonomy, error) {
	f, err := embedded.Open(embeddedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded taxonomy: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// LoadOrEmpty loads the taxonomy and degrades to an empty one on failure, which turns
// keyword matching into a no-op for the rest of the process.
func LoadOrEmpty(path string, logger *slog.Logger) *Taxonomy {
	if logger == nil {
		logger = slog.Default()
	}
	t, err := Load(path)
	if err != nil {
		logger.Warn("taxonomy unavailable, keyword matching disabled",
			"path", path,
			"error", err)
		return Empty()
	}
	logger.Debug("taxonomy loaded", "path", path, "entries", t.Len())
	return t
}

// Len returns the number of entries.
func (t *Taxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in file order.
func (t *Taxonomy) Entries() []model.TaxonomyEntry {
	if t == nil {
		return nil
	}
	return slices.Clone(t.entries)
}

// Lookup finds the entry for code.
func (t *Taxonomy) Lookup(code string) (model.TaxonomyEntry, bool) {
	if t == nil {
		return model.TaxonomyEntry{}, false
	}
	idx, ok := t.byCode[strings.TrimSpace(code)]
	if !ok {
		return model.TaxonomyEntry{}, false
	}
	return t.entries[idx], true
}

// Search returns entries whose code has the given prefix or whose title contains
// query, case-insensitively.
func (t *Taxonomy) Search(query string) []model.TaxonomyEntry {
	if t == nil {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []model.TaxonomyEntry
	for _, e := range t.entries {
		if q == "" || strings.HasPrefix(e.Code, q) || strings.Contains(strings.ToLower(e.Title), q) {
			out = append(out, e)
		}
	}
	return out
}

// WriteJSON writes entries in the on-disk format understood by Parse.
func WriteJSON(w io.Writer, entries []model.TaxonomyEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode taxonomy: %w", err)
	}
	return nil
}
