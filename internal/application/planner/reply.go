package planner

import (
	"encoding/json"
	"errors"
	"strings"
)

// reply is the loosely-typed generator response; fields are checked by parseReply.
type reply struct {
	KPI  json.RawMessage `json:"kpi"`
	Dims json.RawMessage `json:"dims"`
	SQL  json.RawMessage `json:"sql"`
}

var errMalformed = errors.New("malformed generator reply")

// parseReply decodes the strict JSON intent. A fenced ```json block or prose around
// the object is tolerated; missing or mistyped fields are not.
func parseReply(raw string) (intent, error) {
	body := extractJSON(raw)
	if body == "" {
		return intent{}, errMalformed
	}
	var r reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return intent{}, errMalformed
	}

	var out intent
	if err := json.Unmarshal(r.KPI, &out.KPI); err != nil || strings.TrimSpace(out.KPI) == "" {
		return intent{}, errMalformed
	}
	if len(r.SQL) == 0 || string(r.SQL) == "null" {
		return intent{}, errMalformed
	}
	if err := json.Unmarshal(r.SQL, &out.SQL); err != nil || strings.TrimSpace(out.SQL) == "" {
		return intent{}, errMalformed
	}
	if len(r.Dims) > 0 && string(r.Dims) != "null" {
		if err := json.Unmarshal(r.Dims, &out.Dims); err != nil {
			return intent{}, errMalformed
		}
	}
	out.KPI = strings.TrimSpace(out.KPI)
	out.SQL = strings.TrimSpace(out.SQL)
	return out, nil
}

// extractJSON finds the JSON object in a response that might contain markdown.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if start := strings.Index(response, "```json"); start != -1 {
		start += len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}
	if start := strings.Index(response, "```"); start != -1 {
		start += len("```")
		if end := strings.Index(response[start:], "```"); end != -1 {
			content := strings.TrimSpace(response[start : start+end])
			if strings.HasPrefix(content, "{") {
				return content
			}
		}
	}
	if start := strings.Index(response, "{"); start != -1 {
		return extractJSONObject(response, start)
	}
	return ""
}

// extractJSONObject returns the balanced object starting at start, skipping braces
// inside strings. Unbalanced input yields "".
func extractJSONObject(s string, start int) string {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
