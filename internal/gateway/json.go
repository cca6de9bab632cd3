package gateway

import (
	"encoding/json"
	"strings"
)

// DecodeJSON parses a JSON response from the model into v, handling markdown
// code fences that models sometimes wrap around structured output.
func DecodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	return json.Unmarshal([]byte(text), v)
}
