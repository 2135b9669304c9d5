package model

// TaxonomyEntry is one four-digit class of the reference taxonomy.
type TaxonomyEntry struct {
	Code             string `json:"code"`
	Title            string `json:"title"`
	Division         string `json:"division,omitempty"`
	DivisionTitle    string `json:"division_title,omitempty"`
	Subdivision      string `json:"subdivision,omitempty"`
	SubdivisionTitle string `json:"subdivision_title,omitempty"`
	Group            string `json:"group,omitempty"`
	GroupTitle       string `json:"group_title,omitempty"`
}

// Classification returns the entry as a {code, title} pair.
func (e TaxonomyEntry) Classification() Classification {
	return Classification{Code: e.Code, Title: e.Title}
}
