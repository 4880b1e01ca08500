package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfig_Precedence_ConfigEnvCLI(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `save_dir: from-config
db_path: ~/.workbook/from-config.db
llm:
  provider: ollama
  model: llama3
pipeline:
  chunk_chars: 4000
  vocab_target: 7
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("WORKBOOK_DB", "~/from-env.db")
	t.Setenv("WORKBOOK_LLM", "openai/gpt-4o-mini")
	t.Setenv("WORKBOOK_CHUNK_CHARS", "5000")

	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: cfgPath,
		CLILLM:     "ollama/mistral",
		CLIDBPath:  "~/from-cli.db",
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}

	if resolved.DBPath.Source != SourceCLI {
		t.Fatalf("expected DB path source cli, got %s", resolved.DBPath.Source)
	}
	if resolved.LLM.Value != "ollama/mistral" || resolved.LLM.Source != SourceCLI {
		t.Fatalf("expected llm from cli, got %q (%s)", resolved.LLM.Value, resolved.LLM.Source)
	}
	if resolved.ChunkChars.Source != SourceEnv || resolved.ChunkChars.IntOr(0) != 5000 {
		t.Fatalf("expected chunk chars 5000 from env, got %q (%s)", resolved.ChunkChars.Value, resolved.ChunkChars.Source)
	}
	if resolved.VocabTarget.Source != SourceConfig || resolved.VocabTarget.IntOr(0) != 7 {
		t.Fatalf("expected vocab target 7 from config, got %q (%s)", resolved.VocabTarget.Value, resolved.VocabTarget.Source)
	}
	if resolved.SaveDir.Value != "from-config" {
		t.Fatalf("expected save dir from config, got %q", resolved.SaveDir.Value)
	}
}

func TestResolveConfig_DefaultsWhenNothingSet(t *testing.T) {
	tmp := t.TempDir()
	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: filepath.Join(tmp, "missing.yaml")})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.SaveDir.Value != "data" || resolved.SaveDir.Source != SourceDefault {
		t.Fatalf("save dir = %q (%s), want built-in default", resolved.SaveDir.Value, resolved.SaveDir.Source)
	}
	if resolved.DBPath.Value == "" || resolved.DBPath.Source != SourceDefault {
		t.Fatalf("db path = %q (%s), want built-in default", resolved.DBPath.Value, resolved.DBPath.Source)
	}
	if resolved.ChunkChars.IntOr(6000) != 6000 {
		t.Fatalf("unset chunk chars should fall back, got %q", resolved.ChunkChars.Value)
	}
}

func TestAPIKeyForProvider_EnvOverridesConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `llm:
  provider: openai
  model: gpt-4o
  api_key: config-key
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "env-key")

	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	k := resolved.APIKeyForProvider("openai/gpt-4o")
	if k.Value != "env-key" {
		t.Fatalf("expected env key, got %q", k.Value)
	}
	if k.Source != SourceEnv {
		t.Fatalf("expected source env, got %s", k.Source)
	}
}

func TestAPIKeyForProvider_DefaultKeyFallback(t *testing.T) {
	t.Setenv("WORKBOOK_LLM_API_KEY", "shared-key")
	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	k := resolved.APIKeyForProvider("custom/some-model")
	if k.Value != "shared-key" {
		t.Fatalf("expected default key fallback, got %q", k.Value)
	}
}

func TestIntOr_Malformed(t *testing.T) {
	if got := (ResolvedValue{Value: "abc"}).IntOr(9); got != 9 {
		t.Fatalf("IntOr = %d, want fallback 9", got)
	}
	if got := (ResolvedValue{Value: " 42 "}).IntOr(9); got != 42 {
		t.Fatalf("IntOr = %d, want 42", got)
	}
}
