package workbook

import (
	"context"

	"github.com/obyrned/LLM-workbookAutomation/internal/extract"
	"github.com/obyrned/LLM-workbookAutomation/internal/llm"
)

// VocabEntry is one collected vocabulary word with its in-context
// quote. Synonyms is populated only after enrichment.
type VocabEntry struct {
	Word     string   `json:"word"`
	Quote    string   `json:"quote"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// VocabResult is the outcome of a vocabulary run.
type VocabResult struct {
	Entries   []VocabEntry
	Requested int
	Stats     RunStats
}

// Empty reports whether the run produced nothing at all.
func (r *VocabResult) Empty() bool { return len(r.Entries) == 0 }

// Degraded reports whether the run ended below its quota.
func (r *VocabResult) Degraded() bool { return len(r.Entries) < r.Requested }

func vocabSchema(target int) extract.Schema {
	return extract.Schema{
		Kind:         KindVocabulary,
		Required:     []string{"word", "quote"},
		Identity:     "word",
		VerifySource: true,
		Target:       target,
	}
}

// vocabExtractor issues one vocabulary prompt per pipeline request.
type vocabExtractor struct {
	provider llm.Provider
}

func (e vocabExtractor) Extract(ctx context.Context, source string, needs map[string]int) (map[string][]extract.Candidate, error) {
	n := needs[KindVocabulary]
	if n <= 0 {
		return nil, nil
	}
	raw, err := e.provider.Complete(ctx, vocabPrompt(source, n), llm.CompletionOpts{
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}
	return map[string][]extract.Candidate{
		KindVocabulary: extract.ParseCandidates(raw),
	}, nil
}

// Vocabulary collects up to the configured number of vocabulary words
// from text. A partial result is still returned when the context is
// cancelled mid-run.
func (g *Generator) Vocabulary(ctx context.Context, text string) (*VocabResult, error) {
	p := g.pipeline(
		[]extract.Schema{vocabSchema(g.opts.VocabTarget)},
		vocabExtractor{provider: g.provider},
	)
	res, err := p.Run(ctx, text)
	out := &VocabResult{
		Requested: g.opts.VocabTarget,
		Entries:   vocabEntries(res.Records(KindVocabulary)),
		Stats: RunStats{
			Outcome:       res.Outcome,
			Segments:      res.Segments,
			FinalAttempts: res.FinalAttempts,
		},
	}
	return out, err
}

func vocabEntries(records []extract.Candidate) []VocabEntry {
	entries := make([]VocabEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, VocabEntry{
			Word:  rec.String("word"),
			Quote: rec.String("quote"),
		})
	}
	return entries
}
