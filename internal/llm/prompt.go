package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// buildBatchPrompt asks for one JSON object covering every candidate.
func buildBatchPrompt(candidates []model.BatchCandidate) string {
	var list strings.Builder
	for _, c := range candidates {
		typ := c.Type
		if typ == "" {
			typ = model.UnknownCode
		}
		fmt.Fprintf(&list, "- Name: %s, Type: %s\n", c.Name, typ)
	}

	return fmt.Sprintf(`Classify each of the following Australian businesses into the most appropriate ANZSIC 2006 class (four-digit code).

Businesses:
%s
Instructions:
1. Return a strict JSON object mapping each business name, exactly as written above, to an object with "code" (the four-digit ANZSIC class code) and "title" (the class title).
2. If you cannot determine a classification for a business, use "Unknown" as its code.
3. Do not include any text outside the JSON object.

Example:
{"Bob's Plumbing": {"code": "3231", "title": "Plumbing Services"}}`, list.String())
}
