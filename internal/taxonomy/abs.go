package taxonomy

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// ABSCodelistURL is the ABS Data API endpoint for the ANZSIC 2006 codelist.
const ABSCodelistURL = "https://data.api.abs.gov.au/rest/codelist/ABS/CL_ANZSIC_2006"

// Code is a single node of the SDMX codelist at any level of the hierarchy.
type Code struct {
	ID    string
	Title string
}

// divisionRanges maps each division letter to its inclusive subdivision range.
var divisionRanges = []struct {
	letter   string
	from, to int
}{
	{"A", 1, 5}, {"B", 6, 10}, {"C", 11, 25}, {"D", 26, 29}, {"E", 30, 32},
	{"F", 33, 37}, {"G", 38, 43}, {"H", 44, 45}, {"I", 46, 53}, {"J", 54, 61},
	{"K", 62, 64}, {"L", 66, 67}, {"M", 69, 71}, {"N", 72, 73}, {"O", 75, 77},
	{"P", 80, 82}, {"Q", 84, 87}, {"R", 89, 92}, {"S", 94, 96},
}

// FetchCodelist downloads the raw SDMX XML codelist.
func FetchCodelist(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ABS API error (status %d)", resp.StatusCode)
	}
	return body, nil
}

// ParseCodelist extracts every Code element regardless of SDMX namespace.
func ParseCodelist(r io.Reader) ([]Code, error) {
	dec := xml.NewDecoder(r)
	var (
		codes   []Code
		current *Code
		inName  bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse codelist: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "Code":
				current = &Code{}
				for _, attr := range el.Attr {
					if attr.Name.Local == "id" {
						current.ID = attr.Value
					}
				}
			case "Name":
				// Only the first Name of a Code is its title.
				inName = current != nil && current.Title == ""
			}
		case xml.CharData:
			if inName && current != nil {
				current.Title += string(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "Name":
				inName = false
			case "Code":
				if current != nil {
					current.Title = strings.TrimSpace(current.Title)
					codes = append(codes, *current)
					current = nil
				}
			}
		}
	}

	return codes, nil
}

// BuildHierarchy turns the flat codelist into four-digit class entries annotated with
// their division, subdivision and group, sorted by code.
func BuildHierarchy(codes []Code) []model.TaxonomyEntry {
	titles := make(map[string]string, len(codes))
	for _, c := range codes {
		titles[c.ID] = c.Title
	}

	subdivisionToDivision := make(map[string]string)
	for _, r := range divisionRanges {
		for n := r.from; n <= r.to; n++ {
			subdivisionToDivision[fmt.Sprintf("%02d", n)] = r.letter
		}
	}

	var entries []model.TaxonomyEntry
	for _, c := range codes {
		if len(c.ID) != 4 || !isDigits(c.ID) {
			continue
		}
		subdivision := c.ID[:2]
		group := c.ID[:3]
		division := subdivisionToDivision[subdivision]

		entries = append(entries, model.TaxonomyEntry{
			Code:             c.ID,
			Title:            c.Title,
			Division:         division,
			DivisionTitle:    titles[division],
			Subdivision:      subdivision,
			SubdivisionTitle: titles[subdivision],
			Group:            group,
			GroupTitle:       titles[group],
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
	return entries
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
