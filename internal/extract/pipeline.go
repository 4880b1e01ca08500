package extract

import (
	"context"

	"go.uber.org/zap"
)

// Default pipeline tuning. These are plain configuration values: the
// chunk size is not derived from any backend token limit.
const (
	DefaultChunkChars       = 6000
	DefaultMaxFinalAttempts = 3
)

// Extractor issues one backend request against the given source text,
// asking for exactly the still-missing counts per record kind, and
// returns the parsed candidates grouped by kind. Kinds absent from
// needs must not be requested.
type Extractor interface {
	Extract(ctx context.Context, source string, needs map[string]int) (map[string][]Candidate, error)
}

// Observer receives advisory progress events after each segment and
// each backfill attempt. It is not part of the correctness contract.
type Observer interface {
	SegmentProcessed(segment, total int, remaining map[string]int)
	AttemptProcessed(attempt, budget int, remaining map[string]int)
}

type nopObserver struct{}

func (nopObserver) SegmentProcessed(int, int, map[string]int) {}
func (nopObserver) AttemptProcessed(int, int, map[string]int) {}

// Outcome is the terminal state of a pipeline run.
type Outcome string

const (
	// Satisfied means every kind reached its target quota.
	Satisfied Outcome = "satisfied"
	// Exhausted means the attempt budget ran out with quota remaining.
	// Partial results are valid output, not an error.
	Exhausted Outcome = "exhausted"
)

// Config tunes a pipeline run. A zero MaxFinalAttempts disables
// whole-document backfill entirely; callers wanting the recommended
// budget pass DefaultMaxFinalAttempts.
type Config struct {
	ChunkChars       int // max segment length in runes (default 6000)
	MaxFinalAttempts int // whole-document backfill budget (0 = none)
}

func (c Config) withDefaults() Config {
	if c.ChunkChars <= 0 {
		c.ChunkChars = DefaultChunkChars
	}
	if c.MaxFinalAttempts < 0 {
		c.MaxFinalAttempts = 0
	}
	return c
}

// Result is the finalized output of a run. Sets are read-only once the
// pipeline terminates.
type Result struct {
	Sets          map[string]*ResultSet
	Outcome       Outcome
	Segments      int // segments actually processed
	FinalAttempts int // whole-document attempts actually consumed
}

// Records returns the collected records for a kind, in insertion order.
func (r *Result) Records(kind string) []Candidate {
	if set, ok := r.Sets[kind]; ok {
		return set.Records()
	}
	return nil
}

// Total returns the number of records collected across all kinds.
func (r *Result) Total() int {
	n := 0
	for _, set := range r.Sets {
		n += set.Len()
	}
	return n
}

// Empty reports whether the run produced nothing usable. Callers should
// treat an empty Exhausted result as a hard failure, and a non-empty
// one as a degraded success.
func (r *Result) Empty() bool { return r.Total() == 0 }

// Pipeline orchestrates chunk-by-chunk extraction followed by bounded
// whole-document backfill. A Pipeline is cheap to construct and safe to
// reuse across runs; each Run gets independent result sets.
type Pipeline struct {
	cfg       Config
	schemas   []Schema
	extractor Extractor
	observer  Observer
	log       *zap.SugaredLogger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver injects a progress observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithLogger injects a logger for dropped records and backend failures.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPipeline creates a pipeline collecting records for the given
// schemas through the given extractor.
func NewPipeline(cfg Config, schemas []Schema, extractor Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg.withDefaults(),
		schemas:   schemas,
		extractor: extractor,
		observer:  nopObserver{},
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full extraction policy against the source text:
//
//   - ChunkPass: iterate segments in order, requesting only the
//     still-missing counts per kind, stopping early once every quota
//     reaches zero.
//   - FinalAttempts: while quota remains, re-issue requests against the
//     entire document, at most MaxFinalAttempts times. An attempt is
//     consumed whether or not it yields new records.
//
// Backend failures cost the segment or attempt they occurred in and
// never abort the run; the worst outcome is an under-filled result.
// Run returns a non-nil Result even when ctx is cancelled — the error
// is then ctx.Err() and the Result holds whatever was collected.
func (p *Pipeline) Run(ctx context.Context, text string) (*Result, error) {
	sets := make(map[string]*ResultSet, len(p.schemas))
	for _, schema := range p.schemas {
		sets[schema.Kind] = NewResultSet(schema.Target)
	}
	result := &Result{Sets: sets}

	segments := Chunk(text, p.cfg.ChunkChars)
	for i, segment := range segments {
		needs := remaining(sets)
		if len(needs) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			result.Outcome = Exhausted
			return result, err
		}
		p.collect(ctx, segment, needs, sets)
		result.Segments++
		p.observer.SegmentProcessed(i+1, len(segments), remaining(sets))
	}

	fullText := segmentsJoined(segments)
	for attempt := 1; attempt <= p.cfg.MaxFinalAttempts; attempt++ {
		needs := remaining(sets)
		if len(needs) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			result.Outcome = Exhausted
			return result, err
		}
		p.collect(ctx, fullText, needs, sets)
		result.FinalAttempts++
		p.observer.AttemptProcessed(attempt, p.cfg.MaxFinalAttempts, remaining(sets))
	}

	if len(remaining(sets)) == 0 {
		result.Outcome = Satisfied
	} else {
		result.Outcome = Exhausted
	}
	return result, nil
}

// collect issues one extraction call and aggregates whatever validates.
// Failures are logged and swallowed: the caller has already paid for
// this segment or attempt.
func (p *Pipeline) collect(ctx context.Context, source string, needs map[string]int, sets map[string]*ResultSet) {
	batches, err := p.extractor.Extract(ctx, source, needs)
	if err != nil {
		p.log.Warnw("extraction call failed", "error", err)
		return
	}

	for _, schema := range p.schemas {
		set := sets[schema.Kind]
		for _, candidate := range batches[schema.Kind] {
			if set.Remaining() == 0 {
				break
			}
			if err := schema.Validate(candidate, source); err != nil {
				p.log.Debugw("candidate rejected", "kind", schema.Kind, "reason", err)
				continue
			}
			set.Add(candidate.String(schema.Identity), candidate)
		}
	}
}

// remaining maps each kind to its unmet quota, omitting satisfied kinds.
func remaining(sets map[string]*ResultSet) map[string]int {
	needs := make(map[string]int, len(sets))
	for kind, set := range sets {
		if r := set.Remaining(); r > 0 {
			needs[kind] = r
		}
	}
	if len(needs) == 0 {
		return nil
	}
	return needs
}

// segmentsJoined reconstructs the trimmed source for whole-document
// backfill. Segments partition the trimmed text without overlap, so
// plain concatenation is exact.
func segmentsJoined(segments []string) string {
	if len(segments) == 1 {
		return segments[0]
	}
	total := 0
	for _, s := range segments {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for _, s := range segments {
		buf = append(buf, s...)
	}
	return string(buf)
}
