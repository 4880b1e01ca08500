package extract

// ResultSet accumulates validated records for one kind, deduplicated by
// normalized identity, capped at a target quota, preserving insertion
// order. The first record seen for an identity wins; later duplicates
// are discarded without merging fields, so re-running aggregation over
// the same records is idempotent.
type ResultSet struct {
	target int
	order  []string
	byKey  map[string]Candidate
}

// NewResultSet creates an empty ResultSet with the given target quota.
func NewResultSet(target int) *ResultSet {
	if target < 0 {
		target = 0
	}
	return &ResultSet{
		target: target,
		byKey:  make(map[string]Candidate, target),
	}
}

// Add inserts the record under the normalized identity if the identity
// is new and the quota is unmet. Reports whether the record was kept.
func (rs *ResultSet) Add(identity string, record Candidate) bool {
	key := NormalizeIdentity(identity)
	if key == "" {
		return false
	}
	if _, dup := rs.byKey[key]; dup {
		return false
	}
	if rs.Remaining() <= 0 {
		return false
	}
	rs.byKey[key] = record
	rs.order = append(rs.order, key)
	return true
}

// Len returns the number of records collected so far.
func (rs *ResultSet) Len() int { return len(rs.order) }

// Target returns the configured quota.
func (rs *ResultSet) Target() int { return rs.target }

// Remaining returns how many records are still missing, never negative.
func (rs *ResultSet) Remaining() int {
	if r := rs.target - len(rs.order); r > 0 {
		return r
	}
	return 0
}

// Records returns the collected records in insertion order.
func (rs *ResultSet) Records() []Candidate {
	out := make([]Candidate, 0, len(rs.order))
	for _, key := range rs.order {
		out = append(out, rs.byKey[key])
	}
	return out
}
