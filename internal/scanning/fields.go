package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// parseFieldsJSON parses the JSON reply from a vision model into Fields
func parseFieldsJSON(text string) (*Fields, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Models occasionally wrap the JSON in prose; keep only the outermost object
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var fields Fields
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	fields.Date = normalizeDate(fields.Date)
	fields.Vendor = strings.TrimSpace(fields.Vendor)

	return &fields, nil
}

// normalizeDate coerces a model-supplied date into YYYY-MM-DD, falling back to
// today when the value is missing or unparseable
func normalizeDate(value string) string {
	if value == "" {
		return time.Now().Format("2006-01-02")
	}

	if d, err := time.Parse("2006-01-02", value); err == nil {
		return d.Format("2006-01-02")
	}

	formats := []string{
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, value); err == nil {
			return d.Format("2006-01-02")
		}
	}

	return time.Now().Format("2006-01-02")
}
