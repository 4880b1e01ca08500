// Package workbook turns long-form text into study material: vocabulary
// entries with in-context quotes, multiple-choice and true/false
// comprehension questions, and synonym sets for collected words.
//
// Each use case configures the extraction pipeline with its own record
// schemas and prompt; the pipeline handles chunking, tolerant parsing,
// validation, deduplication, and whole-document backfill.
package workbook

import (
	"go.uber.org/zap"

	"github.com/obyrned/LLM-workbookAutomation/internal/extract"
	"github.com/obyrned/LLM-workbookAutomation/internal/llm"
)

// Record kinds tracked by the pipeline.
const (
	KindVocabulary     = "vocabulary"
	KindMultipleChoice = "multiple_choice"
	KindTrueFalse      = "true_false"
)

// Default generation targets.
const (
	DefaultVocabTarget = 5
	DefaultMCTarget    = 5
	DefaultTFTarget    = 5
)

// Options holds the tunable quotas and pipeline settings for a
// Generator.
type Options struct {
	VocabTarget      int // vocabulary words to collect (default 5)
	MCTarget         int // multiple-choice questions (default 5)
	TFTarget         int // true/false questions (default 5)
	ChunkChars       int // segment size in runes (default 6000)
	MaxFinalAttempts int // whole-document backfill budget (default 3)
}

func (o Options) withDefaults() Options {
	if o.VocabTarget <= 0 {
		o.VocabTarget = DefaultVocabTarget
	}
	if o.MCTarget <= 0 {
		o.MCTarget = DefaultMCTarget
	}
	if o.TFTarget <= 0 {
		o.TFTarget = DefaultTFTarget
	}
	if o.ChunkChars <= 0 {
		o.ChunkChars = extract.DefaultChunkChars
	}
	if o.MaxFinalAttempts <= 0 {
		o.MaxFinalAttempts = extract.DefaultMaxFinalAttempts
	}
	return o
}

// RunStats carries how a pipeline run terminated, for reporting.
type RunStats struct {
	Outcome       extract.Outcome
	Segments      int
	FinalAttempts int
}

// Generator produces workbook material from raw text through a
// generation backend.
type Generator struct {
	provider llm.Provider
	opts     Options
	observer extract.Observer
	log      *zap.SugaredLogger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger injects a logger; defaults to a nop logger.
func WithLogger(log *zap.SugaredLogger) GeneratorOption {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithObserver injects a progress observer passed through to the
// pipeline.
func WithObserver(o extract.Observer) GeneratorOption {
	return func(g *Generator) { g.observer = o }
}

// NewGenerator creates a Generator using the given backend provider.
func NewGenerator(provider llm.Provider, opts Options, gopts ...GeneratorOption) *Generator {
	g := &Generator{
		provider: provider,
		opts:     opts.withDefaults(),
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range gopts {
		opt(g)
	}
	return g
}

func (g *Generator) pipeline(schemas []extract.Schema, ex extract.Extractor) *extract.Pipeline {
	return extract.NewPipeline(
		extract.Config{ChunkChars: g.opts.ChunkChars, MaxFinalAttempts: g.opts.MaxFinalAttempts},
		schemas,
		ex,
		extract.WithObserver(g.observer),
		extract.WithLogger(g.log),
	)
}
