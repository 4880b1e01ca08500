package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/obyrned/LLM-workbookAutomation/internal/config"
	"github.com/obyrned/LLM-workbookAutomation/internal/extract"
	"github.com/obyrned/LLM-workbookAutomation/internal/llm"
	"github.com/obyrned/LLM-workbookAutomation/internal/mcp"
	"github.com/obyrned/LLM-workbookAutomation/internal/store"
	"github.com/obyrned/LLM-workbookAutomation/internal/workbook"
)

// cmdFlags holds the flags shared across subcommands plus the
// remaining positional arguments.
type cmdFlags struct {
	llm      string
	out      string
	db       string
	config   string
	count    int
	mc       int
	tf       int
	limit    int
	synonyms bool
	noSave   bool
	args     []string
}

func parseFlags(args []string) (cmdFlags, error) {
	f := cmdFlags{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		takeValue := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag %s needs a value", arg)
			}
			i++
			return args[i], nil
		}
		takeInt := func() (int, error) {
			v, err := takeValue()
			if err != nil {
				return 0, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return 0, fmt.Errorf("flag %s needs a positive number, got %q", arg, v)
			}
			return n, nil
		}

		var err error
		switch arg {
		case "--llm":
			f.llm, err = takeValue()
		case "--out":
			f.out, err = takeValue()
		case "--db":
			f.db, err = takeValue()
		case "--config":
			f.config, err = takeValue()
		case "--count":
			f.count, err = takeInt()
		case "--mc":
			f.mc, err = takeInt()
		case "--tf":
			f.tf, err = takeInt()
		case "--limit":
			f.limit, err = takeInt()
		case "--synonyms":
			f.synonyms = true
		case "--no-save":
			f.noSave = true
		default:
			if strings.HasPrefix(arg, "-") {
				return f, fmt.Errorf("unknown flag: %s", arg)
			}
			f.args = append(f.args, arg)
		}
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

// env is everything a subcommand needs after config resolution.
type env struct {
	resolved config.ResolvedConfig
	log      *zap.SugaredLogger
}

func setup(f cmdFlags) (*env, error) {
	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: f.config,
		CLILLM:     f.llm,
		CLIDBPath:  f.db,
		CLISaveDir: f.out,
	})
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.OutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return &env{resolved: resolved, log: logger.Sugar()}, nil
}

func (e *env) provider() (llm.Provider, error) {
	var cfg llm.Config
	value := e.resolved.LLM.Value
	if value == "" || strings.Contains(value, "/") {
		parsed, err := llm.ParseLLMFlag(value)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	} else {
		// Bare provider name; NewProvider fills the default model.
		cfg = llm.Config{Provider: value}
	}
	cfg.APIKey = e.resolved.APIKeyForProvider(cfg.Provider).Value
	cfg.TimeoutSecs = e.resolved.TimeoutSecs.IntOr(llm.DefaultTimeoutSecs)
	return llm.NewProvider(cfg)
}

func (e *env) generator(f cmdFlags) (*workbook.Generator, error) {
	provider, err := e.provider()
	if err != nil {
		return nil, err
	}
	opts := workbook.Options{
		VocabTarget:      e.resolved.VocabTarget.IntOr(workbook.DefaultVocabTarget),
		MCTarget:         e.resolved.MCTarget.IntOr(workbook.DefaultMCTarget),
		TFTarget:         e.resolved.TFTarget.IntOr(workbook.DefaultTFTarget),
		ChunkChars:       e.resolved.ChunkChars.IntOr(extract.DefaultChunkChars),
		MaxFinalAttempts: e.resolved.MaxAttempts.IntOr(extract.DefaultMaxFinalAttempts),
	}
	if f.count > 0 {
		opts.VocabTarget = f.count
	}
	if f.mc > 0 {
		opts.MCTarget = f.mc
	}
	if f.tf > 0 {
		opts.TFTarget = f.tf
	}
	return workbook.NewGenerator(provider, opts,
		workbook.WithLogger(e.log),
		workbook.WithObserver(progressObserver{}),
	), nil
}

// progressObserver prints per-segment progress to stderr.
type progressObserver struct{}

func (progressObserver) SegmentProcessed(segment, total int, remaining map[string]int) {
	fmt.Fprintf(os.Stderr, "  [segment %d/%d] remaining: %s\n", segment, total, formatNeeds(remaining))
}

func (progressObserver) AttemptProcessed(attempt, budget int, remaining map[string]int) {
	fmt.Fprintf(os.Stderr, "  [retry %d/%d] remaining: %s\n", attempt, budget, formatNeeds(remaining))
}

func formatNeeds(needs map[string]int) string {
	if len(needs) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(needs))
	for kind, n := range needs {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, n))
	}
	return strings.Join(parts, " ")
}

func readSource(f cmdFlags, usage string) (name, text string, err error) {
	if len(f.args) == 0 {
		return "", "", fmt.Errorf("usage: %s", usage)
	}
	path := f.args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", "", fmt.Errorf("%s is empty", path)
	}
	return path, string(data), nil
}

func runVocab(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	sourceName, text, err := readSource(f, "workbook vocab <file> [--count n] [--synonyms] [--llm provider/model]")
	if err != nil {
		return err
	}

	e, err := setup(f)
	if err != nil {
		return err
	}
	gen, err := e.generator(f)
	if err != nil {
		return err
	}

	fmt.Printf("Extracting vocabulary from %s...\n", sourceName)
	res, err := gen.Vocabulary(context.Background(), text)
	if err != nil {
		return fmt.Errorf("vocabulary run aborted: %w", err)
	}
	if res.Empty() {
		return fmt.Errorf("no valid vocabulary words found")
	}
	if res.Degraded() {
		fmt.Fprintf(os.Stderr, "Warning: collected %d of %d requested words\n", len(res.Entries), res.Requested)
	}

	entries := res.Entries
	if f.synonyms {
		fmt.Println("Looking up synonyms...")
		entries = gen.Synonyms(context.Background(), entries)
	}

	for i, entry := range entries {
		fmt.Printf("%d. %s\n", i+1, entry.Word)
	}

	if f.noSave {
		return nil
	}

	writer, err := store.NewArtifactWriter(e.resolved.SaveDir.Value)
	if err != nil {
		return err
	}
	jsonPath, err := writer.WriteVocab(sourceName, res.Entries)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", jsonPath)
	if f.synonyms {
		jsonPath, err = writer.WriteVocabWithSynonyms(sourceName, entries)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", jsonPath)
	}

	return recordRun(e, func(ctx context.Context, s store.Store) error {
		_, err := s.SaveVocabRun(ctx, sourceName, res)
		return err
	})
}

func runQuestions(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	sourceName, text, err := readSource(f, "workbook questions <file> [--mc n] [--tf n] [--llm provider/model]")
	if err != nil {
		return err
	}

	e, err := setup(f)
	if err != nil {
		return err
	}
	gen, err := e.generator(f)
	if err != nil {
		return err
	}

	fmt.Printf("Generating questions for %s...\n", sourceName)
	res, err := gen.Questions(context.Background(), text)
	if err != nil {
		return fmt.Errorf("question run aborted: %w", err)
	}
	if res.Empty() {
		return fmt.Errorf("no valid questions generated")
	}
	if res.Degraded() {
		fmt.Fprintf(os.Stderr, "Warning: produced %d MC (wanted %d) and %d TF (wanted %d)\n",
			len(res.MC), res.RequestedMC, len(res.TF), res.RequestedTF)
	}
	fmt.Printf("Generated %d multiple-choice and %d true/false questions\n", len(res.MC), len(res.TF))

	if f.noSave {
		return nil
	}

	writer, err := store.NewArtifactWriter(e.resolved.SaveDir.Value)
	if err != nil {
		return err
	}
	jsonPath, err := writer.WriteQuestions(sourceName, res)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", jsonPath)

	return recordRun(e, func(ctx context.Context, s store.Store) error {
		_, err := s.SaveQuestionRun(ctx, sourceName, res)
		return err
	})
}

// runSynonyms reads a vocab10 JSON artifact and writes the vocab20
// pair with synonyms filled in.
func runSynonyms(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) == 0 {
		return fmt.Errorf("usage: workbook synonyms <vocab10 json file> [--llm provider/model]")
	}
	path := f.args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var entries []workbook.VocabEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s holds no vocabulary entries", path)
	}

	e, err := setup(f)
	if err != nil {
		return err
	}
	gen, err := e.generator(f)
	if err != nil {
		return err
	}

	fmt.Printf("Looking up synonyms for %d words...\n", len(entries))
	enriched := gen.Synonyms(context.Background(), entries)

	// vocab20 keeps the base name of the vocab10 file it came from.
	sourceName := filepath.Base(path)
	sourceName = strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	sourceName = strings.TrimPrefix(sourceName, "vocab10_")

	writer, err := store.NewArtifactWriter(e.resolved.SaveDir.Value)
	if err != nil {
		return err
	}
	jsonPath, err := writer.WriteVocabWithSynonyms(sourceName, enriched)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", jsonPath)
	return nil
}

func runRuns(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	e, err := setup(f)
	if err != nil {
		return err
	}

	s, err := store.NewStore(e.resolved.DBPath.Value)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer s.Close()

	limit := f.limit
	if limit <= 0 {
		limit = 10
	}
	runs, err := s.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %-15s %-25s %s (%d/%d)\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Kind, r.SourceName, r.Outcome, r.Produced, r.Requested)
	}
	return nil
}

func runMCP(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	e, err := setup(f)
	if err != nil {
		return err
	}
	gen, err := e.generator(f)
	if err != nil {
		return err
	}

	s, err := store.NewStore(e.resolved.DBPath.Value)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer s.Close()

	srv := mcp.NewServer(mcp.ServerConfig{
		Generator: gen,
		Store:     s,
		Version:   version,
	})
	e.log.Infow("serving MCP over stdio", "db", e.resolved.DBPath.Value)
	return server.ServeStdio(srv)
}

// recordRun opens the run history, applies fn, and treats history
// failures as warnings: the artifacts are already on disk.
func recordRun(e *env, fn func(context.Context, store.Store) error) error {
	s, err := store.NewStore(e.resolved.DBPath.Value)
	if err != nil {
		e.log.Warnw("run history unavailable", "error", err)
		return nil
	}
	defer s.Close()
	if err := fn(context.Background(), s); err != nil {
		e.log.Warnw("recording run failed", "error", err)
	}
	return nil
}
