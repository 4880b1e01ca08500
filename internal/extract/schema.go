package extract

import (
	"fmt"
	"strings"
)

// Schema describes one record kind: which fields a candidate must
// carry, which field identifies it for deduplication, and how many
// records of this kind a run should collect.
type Schema struct {
	// Kind names the record type ("vocabulary", "multiple_choice", ...).
	Kind string

	// Required lists the field names a candidate must carry.
	Required []string

	// Identity is the field whose normalized value keys deduplication.
	Identity string

	// VerifySource requires the identity value to occur
	// case-insensitively in the source text the record was extracted
	// from. Records that fail this check are fabricated.
	VerifySource bool

	// Target is the quota of records to collect for this kind.
	Target int

	// Check optionally enforces kind-specific constraints
	// (option keys, answer enumerations) after the generic checks pass.
	Check func(Candidate) error
}

// Validate reports why a candidate fails the schema, or nil when it is
// acceptable. source is the segment (or full document) the candidate
// was extracted from. Candidates are never mutated.
func (s Schema) Validate(c Candidate, source string) error {
	for _, field := range s.Required {
		if _, ok := c[field]; !ok {
			return fmt.Errorf("missing field %q", field)
		}
	}

	identity := c.String(s.Identity)
	if identity == "" {
		return fmt.Errorf("empty identity field %q", s.Identity)
	}

	if s.VerifySource && !strings.Contains(strings.ToLower(source), strings.ToLower(identity)) {
		return fmt.Errorf("%s %q not found in source", s.Identity, identity)
	}

	if s.Check != nil {
		return s.Check(c)
	}
	return nil
}

// NormalizeIdentity lower-cases and trims an identity value for use as
// a deduplication key.
func NormalizeIdentity(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
