package main

import (
	"fmt"
	"os"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "vocab":
		if err := runVocab(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "questions":
		if err := runQuestions(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "synonyms":
		if err := runSynonyms(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "runs":
		if err := runRuns(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := runMCP(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("workbook %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`workbook %s — Generate study workbooks from text with an LLM

Usage:
  workbook <command> [arguments]

Commands:
  vocab <file>        Extract vocabulary words with quotes (vocab10 artifacts)
  questions <file>    Generate MC and true/false questions (tfmc artifacts)
  synonyms <file>     Enrich a vocab10 JSON file with synonyms (vocab20 artifacts)
  runs                List recent generation runs
  mcp                 Serve workbook tools over MCP stdio
  version             Print version

Common Flags:
  --llm <p/m>         Backend as provider/model (e.g. openai/gpt-4o, ollama/llama3)
  --out <dir>         Output directory for artifacts (default: data)
  --db <path>         Run history database path
  --config <path>     Config file path (default: ~/.workbook/config.yaml)

Vocab Flags:
  --count <n>         Number of words to collect (default: 5)
  --synonyms          Also look up synonyms and write vocab20 artifacts
  --no-save           Print results without writing artifacts or history

Questions Flags:
  --mc <n>            Number of multiple-choice questions (default: 5)
  --tf <n>            Number of true/false questions (default: 5)

Runs Flags:
  --limit <n>         Number of runs to show (default: 10)

Environment:
  OPENAI_API_KEY        API key for the openai provider
  WORKBOOK_LLM          Backend override (provider/model)
  WORKBOOK_SAVE_DIR     Artifact directory override
  WORKBOOK_DB           Database path override
`, version)
}
