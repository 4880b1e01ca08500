// Package mcp provides a Model Context Protocol server for the
// workbook generator.
//
// It exposes generation (vocabulary, questions, synonyms) and run
// history as MCP tools, plus recent runs as an MCP resource, over
// stdio transport.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/obyrned/LLM-workbookAutomation/internal/store"
	"github.com/obyrned/LLM-workbookAutomation/internal/workbook"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Generator *workbook.Generator
	Store     store.Store // optional; run recording is skipped when nil
	Version   string      // version string for MCP server info
}

// dbMu serializes tool calls that touch the database. The mcp-go
// library dispatches handlers concurrently via goroutines, and SQLite
// supports only one writer at a time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all workbook tools
// and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Workbook",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerVocabTool(s, cfg.Generator, cfg.Store)
	registerQuestionsTool(s, cfg.Generator, cfg.Store)
	registerSynonymsTool(s, cfg.Generator)
	if cfg.Store != nil {
		registerRunsTool(s, cfg.Store)
		registerRecentRunsResource(s, cfg.Store)
	}

	return s
}

// --- Tools ---

func registerVocabTool(s *server.MCPServer, gen *workbook.Generator, st store.Store) {
	tool := mcp.NewTool("workbook_vocab",
		mcp.WithDescription("Extract challenging vocabulary words with in-context quotes from text. Returns the collected entries plus whether the requested count was reached."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The source text to extract vocabulary from"),
		),
		mcp.WithString("source",
			mcp.Description("Source name used for run history (default: 'mcp-input')"),
		),
		mcp.WithBoolean("synonyms",
			mcp.Description("Also look up four synonyms per word (default: false)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil || strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("text is required"), nil
		}

		res, err := gen.Vocabulary(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("vocabulary run aborted: %v", err)), nil
		}
		if res.Empty() {
			return mcp.NewToolResultError("no valid vocabulary words found"), nil
		}

		entries := res.Entries
		if syn, err := req.RequireBool("synonyms"); err == nil && syn {
			entries = gen.Synonyms(ctx, entries)
		}

		sourceName := argOr(req, "source", "mcp-input")
		if st != nil {
			dbMu.Lock()
			_, saveErr := st.SaveVocabRun(ctx, sourceName, res)
			dbMu.Unlock()
			if saveErr != nil {
				return mcp.NewToolResultError(fmt.Sprintf("recording run: %v", saveErr)), nil
			}
		}

		payload := map[string]any{
			"entries":   entries,
			"requested": res.Requested,
			"produced":  len(entries),
			"outcome":   res.Stats.Outcome,
			"degraded":  res.Degraded(),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerQuestionsTool(s *server.MCPServer, gen *workbook.Generator, st store.Store) {
	tool := mcp.NewTool("workbook_questions",
		mcp.WithDescription("Generate multiple-choice and true/false comprehension questions about text. Returns both question sets plus whether the requested counts were reached."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The source text to generate questions about"),
		),
		mcp.WithString("source",
			mcp.Description("Source name used for run history (default: 'mcp-input')"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil || strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("text is required"), nil
		}

		res, err := gen.Questions(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("question run aborted: %v", err)), nil
		}
		if res.Empty() {
			return mcp.NewToolResultError("no valid questions generated"), nil
		}

		sourceName := argOr(req, "source", "mcp-input")
		if st != nil {
			dbMu.Lock()
			_, saveErr := st.SaveQuestionRun(ctx, sourceName, res)
			dbMu.Unlock()
			if saveErr != nil {
				return mcp.NewToolResultError(fmt.Sprintf("recording run: %v", saveErr)), nil
			}
		}

		payload := map[string]any{
			"mc_questions": res.MC,
			"tf_questions": res.TF,
			"requested_mc": res.RequestedMC,
			"requested_tf": res.RequestedTF,
			"outcome":      res.Stats.Outcome,
			"degraded":     res.Degraded(),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerSynonymsTool(s *server.MCPServer, gen *workbook.Generator) {
	tool := mcp.NewTool("workbook_synonyms",
		mcp.WithDescription("Look up exactly four synonyms for a word. Returns four blank placeholders when no usable synonyms come back."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("word",
			mcp.Required(),
			mcp.Description("The word to find synonyms for"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		word, err := req.RequireString("word")
		if err != nil || strings.TrimSpace(word) == "" {
			return mcp.NewToolResultError("word is required"), nil
		}

		entries := gen.Synonyms(ctx, []workbook.VocabEntry{{Word: strings.TrimSpace(word)}})
		payload := map[string]any{
			"word":     entries[0].Word,
			"synonyms": entries[0].Synonyms,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerRunsTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("workbook_runs",
		mcp.WithDescription("List recent generation runs with their outcome and produced counts."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return (default: 10, max: 50)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := 10
		if v, err := req.RequireFloat("limit"); err == nil {
			if n := int(v); n > 0 {
				limit = n
			}
		}
		if limit > 50 {
			limit = 50
		}

		dbMu.Lock()
		runs, err := st.ListRuns(ctx, limit)
		dbMu.Unlock()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing runs: %v", err)), nil
		}

		data, _ := json.MarshalIndent(runs, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// --- Resources ---

func registerRecentRunsResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"workbook://runs/recent",
		"Recent Runs",
		mcp.WithResourceDescription("The 20 most recent generation runs with outcomes and counts."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		runs, err := st.ListRuns(ctx, 20)
		dbMu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("querying recent runs: %w", err)
		}

		payload := map[string]any{
			"runs":  runs,
			"count": len(runs),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func argOr(req mcp.CallToolRequest, key, fallback string) string {
	if v, err := req.RequireString(key); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
