package workbook

import (
	"context"
	"strings"

	"github.com/obyrned/LLM-workbookAutomation/internal/llm"
)

const (
	synonymCount = 4
	synonymBlank = "_____"
)

// Synonyms enriches each entry with exactly four synonyms for its
// word. A failed or malformed lookup yields four blank placeholders so
// downstream worksheets keep a uniform shape; enrichment never fails
// the whole batch over one word.
func (g *Generator) Synonyms(ctx context.Context, entries []VocabEntry) []VocabEntry {
	out := make([]VocabEntry, len(entries))
	for i, entry := range entries {
		entry.Synonyms = g.lookupSynonyms(ctx, entry.Word)
		out[i] = entry
	}
	return out
}

func (g *Generator) lookupSynonyms(ctx context.Context, word string) []string {
	raw, err := g.provider.Complete(ctx, synonymsPrompt(word), llm.CompletionOpts{
		Temperature: 0.3,
	})
	if err != nil {
		g.log.Warnw("synonym lookup failed", "word", word, "error", err)
		return blankSynonyms()
	}
	return parseSynonyms(raw)
}

// parseSynonyms splits a comma-separated reply, stripping whitespace
// and markdown bold markers. Anything other than exactly four entries
// is treated as unusable.
func parseSynonyms(raw string) []string {
	var syns []string
	for _, part := range strings.Split(raw, ",") {
		s := strings.TrimSpace(part)
		s = strings.Trim(s, "*")
		s = strings.TrimSpace(s)
		if s != "" {
			syns = append(syns, s)
		}
	}
	if len(syns) != synonymCount {
		return blankSynonyms()
	}
	return syns
}

func blankSynonyms() []string {
	return []string{synonymBlank, synonymBlank, synonymBlank, synonymBlank}
}
