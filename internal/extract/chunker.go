// Package extract implements the structured-extraction pipeline that
// turns long-form text into a fixed-size, deduplicated set of workbook
// records by repeatedly prompting a generation backend.
//
// The pipeline is single-threaded and cooperative: a run processes one
// segment or backfill attempt at a time, because the remaining quota
// must be read before each request. Backend latency dominates runtime
// anyway. Concurrent runs are independent — each gets its own result
// sets and attempt budget.
package extract

import "strings"

// Chunk splits source text into ordered, bounded-size segments.
//
// The source is trimmed first. If the trimmed text fits within maxChars
// (counted in runes) the whole of it becomes a single segment.
// Otherwise the text is partitioned greedily from the start: every
// segment is exactly maxChars runes except possibly the last.
// Concatenating the segments in order reproduces the trimmed source.
//
// Empty input yields one empty segment; the validator rejects anything
// extracted from it downstream. maxChars < 1 falls back to a single
// segment.
func Chunk(text string, maxChars int) []string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if maxChars < 1 || len(runes) <= maxChars {
		return []string{trimmed}
	}

	segments := make([]string, 0, len(runes)/maxChars+1)
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}
