package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/samsaffron/fencestream/internal/config"
)

func TestConfigPath(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "", "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	want := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "fencestream", "config.yaml")
	if strings.TrimSpace(out) != want {
		t.Errorf("path = %q, want %q", out, want)
	}

	custom := filepath.Join(t.TempDir(), "other.yaml")
	out, _, err = runCLI(t, "", "--config", custom, "config", "path")
	if err != nil {
		t.Fatalf("config path --config: %v", err)
	}
	if strings.TrimSpace(out) != custom {
		t.Errorf("path = %q, want %q", out, custom)
	}
}

func TestConfigShowMasksKeys(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-abcdefghijklmnop")

	out, _, err := runCLI(t, "", "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if strings.Contains(out, "sk-abcdefghijklmnop") {
		t.Errorf("key not masked:\n%s", out)
	}
	for _, want := range []string{"not found, showing defaults", "sk-a…mnop", "default_provider: anthropic:claude-sonnet-4-5", "code_flush_threshold: 20"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "c.yaml", "render:\n  color: never\n  code_flush_threshold: 5\n")

	out, _, err := runCLI(t, "", "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "code_flush_threshold: 5") || !strings.Contains(out, "# "+path+"\n") {
		t.Errorf("output:\n%s", out)
	}
}

func TestColorFlags(t *testing.T) {
	isolate(t)
	if _, _, err := runCLI(t, "", "--color", "always", "config", "path"); err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Color != "always" {
		t.Errorf("color = %q, want always", cfg.Render.Color)
	}
	if _, _, err := runCLI(t, "", "--color", "always", "--no-color", "config", "path"); err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Color != "never" {
		t.Errorf("color = %q, want never", cfg.Render.Color)
	}
}

func TestNewLogger(t *testing.T) {
	defer log.SetDefault(log.Default())

	var buf bytes.Buffer
	l := newLogger(&buf, config.LogConfig{Level: "info", Format: "json"}, false)
	if l.GetLevel() != log.InfoLevel {
		t.Errorf("level = %v, want info", l.GetLevel())
	}
	l.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("json output = %q", buf.String())
	}

	l = newLogger(&buf, config.LogConfig{Level: "bogus"}, false)
	if l.GetLevel() != log.WarnLevel {
		t.Errorf("bogus level = %v, want warn", l.GetLevel())
	}
	l = newLogger(&buf, config.LogConfig{Level: "error"}, true)
	if l.GetLevel() != log.DebugLevel {
		t.Errorf("debug level = %v, want debug", l.GetLevel())
	}
}

func TestManPage(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "", "man")
	if err != nil {
		t.Fatalf("man: %v", err)
	}
	if !strings.Contains(out, ".TH") || !strings.Contains(out, "render") {
		t.Errorf("man output does not look like a man page:\n%.200s", out)
	}
}

func TestProviderCompletions(t *testing.T) {
	isolate(t)
	c, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	got := providerCompletions("open", c)
	if len(got) != 2 || got[0] != "openai" || got[1] != "openai:gpt-4o-mini" {
		t.Errorf("completions = %v", got)
	}
	if got := providerCompletions("ollama:", c); len(got) != 0 {
		t.Errorf("ollama has no configured model, got %v", got)
	}
}

func TestConfigCompletion(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "", "config", "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, "fencestream") {
		t.Errorf("bash completion does not mention the program:\n%.200s", out)
	}
}
