package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OLLAMA_API_KEY", "LMSTUDIO_API_KEY"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultProvider != "anthropic:claude-sonnet-4-5" {
		t.Errorf("default_provider=%q", cfg.DefaultProvider)
	}
	if cfg.Render.CodeFlushThreshold != 20 {
		t.Errorf("code_flush_threshold=%d, want 20", cfg.Render.CodeFlushThreshold)
	}
	if cfg.Log.RetentionDays != 7 {
		t.Errorf("retention_days=%d, want 7", cfg.Log.RetentionDays)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("ollama base_url=%q", cfg.Ollama.BaseURL)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.yaml")); err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}
}

func TestLoadFileAndEnvExpansion(t *testing.T) {
	dir := isolate(t)
	t.Setenv("MY_KEY", "sk-from-env")
	t.Setenv("OPENAI_API_KEY", "sk-openai-fallback")

	path := filepath.Join(dir, "config.yaml")
	content := `default_provider: openai:gpt-4o
anthropic:
  api_key: ${MY_KEY}
render:
  color: never
  code_flush_threshold: 64
  theme:
    bold: "#ff0000"
replay:
  chunking: fixed
  chunk_size: 3
capture:
  enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-from-env" {
		t.Errorf("anthropic api_key=%q, want expanded value", cfg.Anthropic.APIKey)
	}
	if cfg.OpenAI.APIKey != "sk-openai-fallback" {
		t.Errorf("openai api_key=%q, want env fallback", cfg.OpenAI.APIKey)
	}
	if cfg.Render.Color != "never" || cfg.Render.CodeFlushThreshold != 64 {
		t.Errorf("render=%+v", cfg.Render)
	}
	if cfg.Render.Theme.Bold != "#ff0000" {
		t.Errorf("theme bold=%q", cfg.Render.Theme.Bold)
	}
	if cfg.Replay.Chunking != "fixed" || cfg.Replay.ChunkSize != 3 {
		t.Errorf("replay=%+v", cfg.Replay)
	}
	if !cfg.Capture.Enabled {
		t.Error("capture should be enabled")
	}
}

func TestLoadGoogleKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "g-key" {
		t.Errorf("gemini api_key=%q, want g-key", cfg.Gemini.APIKey)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{DefaultProvider: "anthropic:claude-sonnet-4-5"}

	cfg.ApplyOverrides("openai", "gpt-4o")
	if cfg.DefaultProvider != "openai:gpt-4o" {
		t.Fatalf("provider=%q, want %q", cfg.DefaultProvider, "openai:gpt-4o")
	}

	cfg.ApplyOverrides("", "gpt-4.1")
	if cfg.DefaultProvider != "openai:gpt-4.1" {
		t.Fatalf("provider=%q, want %q", cfg.DefaultProvider, "openai:gpt-4.1")
	}

	cfg.ApplyOverrides("ollama", "")
	if cfg.DefaultProvider != "ollama" {
		t.Fatalf("provider=%q, want %q", cfg.DefaultProvider, "ollama")
	}
}

func TestSplitProviderModel(t *testing.T) {
	tests := []struct {
		in, provider, model string
	}{
		{"anthropic:claude-sonnet-4-5", "anthropic", "claude-sonnet-4-5"},
		{"ollama", "ollama", ""},
		{"ollama:llama3.2:3b", "ollama", "llama3.2:3b"},
		{" openai : gpt-4o ", "openai", "gpt-4o"},
	}
	for _, tt := range tests {
		p, m := SplitProviderModel(tt.in)
		if p != tt.provider || m != tt.model {
			t.Errorf("SplitProviderModel(%q) = (%q, %q), want (%q, %q)", tt.in, p, m, tt.provider, tt.model)
		}
	}
}

func TestDataPaths(t *testing.T) {
	dir := isolate(t)
	cfg := &Config{}

	capture, err := cfg.CapturePath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "fencestream", "captures.db"); capture != want {
		t.Errorf("CapturePath=%q, want %q", capture, want)
	}
	traces, err := cfg.TraceDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "fencestream", "traces"); traces != want {
		t.Errorf("TraceDir=%q, want %q", traces, want)
	}

	cfg.Capture.Path = "/tmp/x.db"
	if p, _ := cfg.CapturePath(); p != "/tmp/x.db" {
		t.Errorf("CapturePath override=%q", p)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{Anthropic: ProviderConfig{APIKey: "sk-ant-1234567890"}, OpenAI: ProviderConfig{APIKey: "short"}}
	r := cfg.Redacted()
	if r.Anthropic.APIKey != "sk-a…7890" {
		t.Errorf("anthropic redacted=%q", r.Anthropic.APIKey)
	}
	if r.OpenAI.APIKey != "****" {
		t.Errorf("openai redacted=%q", r.OpenAI.APIKey)
	}
	if cfg.Anthropic.APIKey != "sk-ant-1234567890" {
		t.Error("Redacted modified the receiver")
	}
}
