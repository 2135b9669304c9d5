package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// replyKind tags the shapes a provider uses for one business in a batch reply.
type replyKind int

const (
	replyRawCode replyKind = iota
	replyCodeAndTitle
)

// aiReply is one decoded value of the batch reply: either a bare code string or a
// {code, title} object.
type aiReply struct {
	code  string
	title string
	kind  replyKind
}

func (r *aiReply) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		*r = aiReply{kind: replyRawCode, code: strings.TrimSpace(code)}
		return nil
	}

	var obj struct {
		Code  json.RawMessage `json:"code"`
		Title string          `json:"title"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: unsupported classification value %s", common.ErrMalformedResponse, truncate(string(data), 80))
	}
	parsed, err := decodeCode(obj.Code)
	if err != nil {
		return err
	}
	*r = aiReply{kind: replyCodeAndTitle, code: parsed, title: strings.TrimSpace(obj.Title)}
	return nil
}

// decodeCode accepts a code given as a string or a number. Numeric codes are
// zero-padded back to four digits.
func decodeCode(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: missing code", common.ErrMalformedResponse)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", fmt.Errorf("%w: empty code", common.ErrMalformedResponse)
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := strconv.ParseInt(n.String(), 10, 64); err == nil && v >= 0 {
			return fmt.Sprintf("%04d", v), nil
		}
	}
	return "", fmt.Errorf("%w: unsupported code %s", common.ErrMalformedResponse, truncate(string(raw), 40))
}

// classification normalizes the variant into the canonical {code, title} shape.
func (r aiReply) classification() model.Classification {
	switch r.kind {
	case replyCodeAndTitle:
		return model.Classification{Code: r.code, Title: r.title}
	default:
		return model.Classification{Code: r.code}
	}
}

// parseBatchResponse decodes a provider reply into business name -> classification.
// Any value that cannot be decoded, or carries no code, rejects the whole reply.
func parseBatchResponse(content string) (map[string]model.Classification, error) {
	content = cleanMarkdownWrapper(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response", common.ErrMalformedResponse)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}

	out := make(map[string]model.Classification, len(raw))
	for name, value := range raw {
		var reply aiReply
		if err := json.Unmarshal(value, &reply); err != nil {
			return nil, fmt.Errorf("%w: value for %q: %w", common.ErrMalformedResponse, name, err)
		}
		if reply.code == "" {
			return nil, fmt.Errorf("%w: missing code for %q", common.ErrMalformedResponse, name)
		}
		out[name] = reply.classification()
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
