package llm

import (
	"encoding/json"
	"strings"
)

// Sanitize strips Markdown code fences from raw model output and verifies
// the remainder parses as JSON. Models wrap JSON in ```json fences often
// enough that this runs on every structured response; already-clean input
// passes through unchanged. Non-JSON output is an ErrMalformedOutput
// carrying the original text.
func Sanitize(raw string) (json.RawMessage, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	var probe any
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, &ErrMalformedOutput{Raw: raw, Err: err}
	}
	return json.RawMessage(s), nil
}
