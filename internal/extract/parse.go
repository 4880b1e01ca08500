package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Candidate is a single unvalidated record parsed from backend output.
type Candidate map[string]any

// String returns the named field as a trimmed string, or "" when the
// field is absent or not a string.
func (c Candidate) String(field string) string {
	if v, ok := c[field].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// arrayRE isolates the largest bracketed span that looks like a JSON
// array of objects. Backends reliably wrap valid payloads in prose or
// markdown fences; this recovers the payload without repairing broken
// JSON.
var arrayRE = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

// ParseCandidates converts raw backend output into candidate records.
//
// Strategy, in priority order:
//  1. Parse the entire text as JSON. A single object is wrapped as a
//     one-element slice; an array of objects is used directly.
//  2. On failure, salvage the largest "[ {...} ]" span and parse that.
//  3. If both fail, return nil.
//
// It never returns an error and never panics: a malformed response is
// treated the same as an empty one. No semantic repair (trailing
// commas, single quotes) is attempted — on double failure the result
// is empty, not guessed.
func ParseCandidates(raw string) []Candidate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if records, ok := decodeRecords(raw); ok {
		return records
	}

	if span := arrayRE.FindString(raw); span != "" {
		if records, ok := decodeRecords(strings.TrimSpace(span)); ok {
			return records
		}
	}

	return nil
}

// decodeRecords parses s strictly and reports whether it was
// record-shaped: a JSON object, or an array whose elements are all
// objects. Scalars, mixed arrays, and invalid JSON return false.
func decodeRecords(s string) ([]Candidate, bool) {
	var value any
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, false
	}

	switch v := value.(type) {
	case map[string]any:
		return []Candidate{Candidate(v)}, true
	case []any:
		records := make([]Candidate, 0, len(v))
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			records = append(records, Candidate(obj))
		}
		return records, true
	default:
		return nil, false
	}
}

// CandidateList converts a decoded JSON array value into candidates,
// skipping non-object elements. Used to unpack nested record lists out
// of envelope responses (e.g. {"mc_questions": [...]}).
func CandidateList(value any) []Candidate {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	records := make([]Candidate, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, Candidate(obj))
		}
	}
	return records
}
