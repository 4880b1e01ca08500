// Package config resolves runtime settings from a YAML file,
// environment variables, and CLI flags, in that order of precedence.
// Every resolved value remembers where it came from so surfaces can
// report provenance.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// IntOr parses the value as an integer, falling back when it is empty
// or malformed.
func (v ResolvedValue) IntOr(fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v.Value))
	if err != nil {
		return fallback
	}
	return n
}

type ResolveOptions struct {
	ConfigPath string
	CLILLM     string
	CLIDBPath  string
	CLISaveDir string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	SaveDir ResolvedValue `json:"save_dir"`
	DBPath  ResolvedValue `json:"db_path"`
	LLM     ResolvedValue `json:"llm"`

	ChunkChars  ResolvedValue `json:"chunk_chars"`
	VocabTarget ResolvedValue `json:"vocab_target"`
	MCTarget    ResolvedValue `json:"mc_target"`
	TFTarget    ResolvedValue `json:"tf_target"`
	MaxAttempts ResolvedValue `json:"max_attempts"`
	TimeoutSecs ResolvedValue `json:"timeout_secs"`

	LLMKeys map[string]ResolvedValue `json:"llm_keys,omitempty"`
}

type fileConfig struct {
	SaveDir string `yaml:"save_dir"`
	DBPath  string `yaml:"db_path"`
	LLM     struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"llm"`
	Pipeline struct {
		ChunkChars  int `yaml:"chunk_chars"`
		VocabTarget int `yaml:"vocab_target"`
		MCTarget    int `yaml:"mc_target"`
		TFTarget    int `yaml:"tf_target"`
		MaxAttempts int `yaml:"max_attempts"`
		TimeoutSecs int `yaml:"timeout_secs"`
	} `yaml:"pipeline"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".workbook", "config.yaml")
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".workbook", "workbook.db")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		LLMKeys:    map[string]ResolvedValue{},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.SaveDir, cfg.SaveDir, SourceConfig, path)
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.LLM, joinProviderModel(cfg.LLM.Provider, cfg.LLM.Model), SourceConfig, path)
		applyInt(&out.ChunkChars, cfg.Pipeline.ChunkChars, SourceConfig, path)
		applyInt(&out.VocabTarget, cfg.Pipeline.VocabTarget, SourceConfig, path)
		applyInt(&out.MCTarget, cfg.Pipeline.MCTarget, SourceConfig, path)
		applyInt(&out.TFTarget, cfg.Pipeline.TFTarget, SourceConfig, path)
		applyInt(&out.MaxAttempts, cfg.Pipeline.MaxAttempts, SourceConfig, path)
		applyInt(&out.TimeoutSecs, cfg.Pipeline.TimeoutSecs, SourceConfig, path)

		if key := strings.TrimSpace(cfg.LLM.APIKey); key != "" {
			provider := providerOf(cfg.LLM.Provider)
			if provider == "" {
				provider = "default"
			}
			out.LLMKeys[provider] = ResolvedValue{Value: key, Source: SourceConfig, From: path}
		}
	}

	applyEnv(&out.SaveDir, "WORKBOOK_SAVE_DIR")
	applyEnv(&out.DBPath, "WORKBOOK_DB")
	applyEnv(&out.LLM, "WORKBOOK_LLM")
	applyEnv(&out.ChunkChars, "WORKBOOK_CHUNK_CHARS")
	applyEnv(&out.VocabTarget, "WORKBOOK_VOCAB_TARGET")
	applyEnv(&out.MCTarget, "WORKBOOK_MC_TARGET")
	applyEnv(&out.TFTarget, "WORKBOOK_TF_TARGET")
	applyEnv(&out.MaxAttempts, "WORKBOOK_MAX_ATTEMPTS")
	applyEnv(&out.TimeoutSecs, "WORKBOOK_TIMEOUT_SECS")

	for env, provider := range map[string]string{
		"OPENAI_API_KEY":       "openai",
		"WORKBOOK_LLM_API_KEY": "default",
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			out.LLMKeys[provider] = ResolvedValue{Value: v, Source: SourceEnv, From: env}
		}
	}

	apply(&out.LLM, opts.CLILLM, SourceCLI, "--llm")
	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.SaveDir, opts.CLISaveDir, SourceCLI, "--out")

	if out.SaveDir.Value == "" {
		out.SaveDir = ResolvedValue{Value: "data", Source: SourceDefault, From: "built-in default"}
	}
	if out.DBPath.Value == "" {
		out.DBPath = ResolvedValue{Value: defaultDBPath(), Source: SourceDefault, From: "built-in default"}
	}
	out.SaveDir.Value = expandUserPath(out.SaveDir.Value)
	out.DBPath.Value = expandUserPath(out.DBPath.Value)

	return out, nil
}

// APIKeyForProvider returns the key configured for the provider named
// by providerOrModel ("openai" or "openai/gpt-4o"), falling back to a
// default key when no per-provider key is set.
func (r ResolvedConfig) APIKeyForProvider(providerOrModel string) ResolvedValue {
	provider := providerOf(providerOrModel)
	if provider == "" {
		return ResolvedValue{}
	}
	if v, ok := r.LLMKeys[provider]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	if v, ok := r.LLMKeys["default"]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	return ResolvedValue{}
}

func providerOf(providerOrModel string) string {
	v := strings.ToLower(strings.TrimSpace(providerOrModel))
	if v == "" {
		return ""
	}
	if idx := strings.Index(v, "/"); idx > 0 {
		return v[:idx]
	}
	return v
}

func joinProviderModel(provider, model string) string {
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)
	switch {
	case provider == "":
		return ""
	case model == "":
		return provider
	default:
		return provider + "/" + model
	}
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyInt(dst *ResolvedValue, raw int, source ValueSource, from string) {
	if raw <= 0 {
		return
	}
	*dst = ResolvedValue{Value: strconv.Itoa(raw), Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
