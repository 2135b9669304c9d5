package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
)

// ModelInfo describes a Gemini model that can serve classification prompts.
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type listModelsResponse struct {
	Models []struct {
		ModelInfo
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
	NextPageToken string `json:"nextPageToken"`
}

// maxModelPages bounds pagination against a misbehaving endpoint.
const maxModelPages = 20

// ListGeminiModels returns the models that support generateContent.
func ListGeminiModels(ctx context.Context, cfg Config) ([]ModelInfo, error) {
	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := client.(*geminiClient)

	var models []ModelInfo
	pageToken := ""
	for range maxModelPages {
		query := url.Values{"pageSize": {"100"}}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		raw, err := c.do(ctx, http.MethodGet, "models?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}

		var page listModelsResponse
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("failed to parse model list: %w", err)
		}
		for _, m := range page.Models {
			if slices.Contains(m.SupportedGenerationMethods, "generateContent") {
				models = append(models, m.ModelInfo)
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return models, nil
}
