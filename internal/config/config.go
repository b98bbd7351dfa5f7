package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

const appName = "fencestream"

type Config struct {
	DefaultProvider string         `mapstructure:"default_provider" yaml:"default_provider"`
	Anthropic       ProviderConfig `mapstructure:"anthropic" yaml:"anthropic"`
	OpenAI          ProviderConfig `mapstructure:"openai" yaml:"openai"`
	Gemini          ProviderConfig `mapstructure:"gemini" yaml:"gemini"`
	Ollama          ProviderConfig `mapstructure:"ollama" yaml:"ollama"`
	LMStudio        ProviderConfig `mapstructure:"lmstudio" yaml:"lmstudio"`
	Render          RenderConfig   `mapstructure:"render" yaml:"render"`
	Replay          ReplayConfig   `mapstructure:"replay" yaml:"replay"`
	Capture         CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Log             LogConfig      `mapstructure:"log" yaml:"log"`
}

// ProviderConfig holds connection settings for one model provider.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model   string `mapstructure:"model" yaml:"model,omitempty"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// ThemeConfig allows customization of render colors.
// Colors can be ANSI color numbers (0-255) or hex codes (#RRGGBB)
type ThemeConfig struct {
	Text       string `mapstructure:"text" yaml:"text,omitempty"`
	Bold       string `mapstructure:"bold" yaml:"bold,omitempty"`
	Code       string `mapstructure:"code" yaml:"code,omitempty"`
	CodeBg     string `mapstructure:"code_bg" yaml:"code_bg,omitempty"`
	CodeHeader string `mapstructure:"code_header" yaml:"code_header,omitempty"`
	Muted      string `mapstructure:"muted" yaml:"muted,omitempty"`
}

type RenderConfig struct {
	Theme              ThemeConfig `mapstructure:"theme" yaml:"theme"`
	HighlightStyle     string      `mapstructure:"highlight_style" yaml:"highlight_style"`
	Color              string      `mapstructure:"color" yaml:"color"` // auto, always, never
	CodeFlushThreshold int         `mapstructure:"code_flush_threshold" yaml:"code_flush_threshold"`
}

// ReplayConfig controls how recorded or file input is cut into fragments.
type ReplayConfig struct {
	Chunking  string  `mapstructure:"chunking" yaml:"chunking"`
	ChunkSize int     `mapstructure:"chunk_size" yaml:"chunk_size"`
	Seed      int64   `mapstructure:"seed" yaml:"seed"`
	Rate      float64 `mapstructure:"rate" yaml:"rate"` // fragments per second, 0 = unthrottled
}

type CaptureConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

type LogConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`
	Format        string `mapstructure:"format" yaml:"format"` // text or json
	Trace         bool   `mapstructure:"trace" yaml:"trace"`
	TraceDir      string `mapstructure:"trace_dir" yaml:"trace_dir,omitempty"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// credentialEnv lists the environment variables consulted when a provider
// has no api_key in the config file.
type credentialEnv struct {
	Anthropic string `env:"ANTHROPIC_API_KEY"`
	OpenAI    string `env:"OPENAI_API_KEY"`
	Gemini    string `env:"GEMINI_API_KEY"`
	Google    string `env:"GOOGLE_API_KEY"`
	Ollama    string `env:"OLLAMA_API_KEY"`
	LMStudio  string `env:"LMSTUDIO_API_KEY"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_provider", "anthropic:claude-sonnet-4-5")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("ollama.base_url", "http://localhost:11434/v1")
	v.SetDefault("lmstudio.base_url", "http://localhost:1234/v1")
	v.SetDefault("render.highlight_style", "monokai")
	v.SetDefault("render.color", "auto")
	v.SetDefault("render.code_flush_threshold", 20)
	v.SetDefault("replay.chunking", "random")
	v.SetDefault("replay.chunk_size", 16)
	v.SetDefault("replay.seed", 1)
	v.SetDefault("replay.rate", 0)
	v.SetDefault("capture.enabled", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.trace", false)
	v.SetDefault("log.retention_days", 7)
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		configDir, err := GetConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config dir: %w", err)
		}
		v.SetConfigName("config")
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !(path != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := resolveCredentials(&cfg); err != nil {
		return nil, err
	}
	cfg.Capture.Path = expandEnv(cfg.Capture.Path)
	cfg.Log.TraceDir = expandEnv(cfg.Log.TraceDir)
	return &cfg, nil
}

// resolveCredentials expands ${VAR} references and falls back to the
// standard API key variables.
func resolveCredentials(cfg *Config) error {
	envKeys, err := env.ParseAs[credentialEnv]()
	if err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	geminiKey := envKeys.Gemini
	if geminiKey == "" {
		geminiKey = envKeys.Google
	}

	resolve := func(p *ProviderConfig, fallback string) {
		p.APIKey = expandEnv(p.APIKey)
		if p.APIKey == "" {
			p.APIKey = fallback
		}
		p.BaseURL = expandEnv(p.BaseURL)
	}
	resolve(&cfg.Anthropic, envKeys.Anthropic)
	resolve(&cfg.OpenAI, envKeys.OpenAI)
	resolve(&cfg.Gemini, geminiKey)
	resolve(&cfg.Ollama, envKeys.Ollama)
	resolve(&cfg.LMStudio, envKeys.LMStudio)
	return nil
}

// Provider returns the settings block for a provider name, or false if the
// name is not a configurable provider.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	switch name {
	case "anthropic":
		return c.Anthropic, true
	case "openai":
		return c.OpenAI, true
	case "gemini":
		return c.Gemini, true
	case "ollama":
		return c.Ollama, true
	case "lmstudio":
		return c.LMStudio, true
	}
	return ProviderConfig{}, false
}

// ApplyOverrides applies a "provider:model" override to the config.
// An empty provider keeps the default provider and only swaps its model.
func (c *Config) ApplyOverrides(provider, model string) {
	current, currentModel := SplitProviderModel(c.DefaultProvider)
	if provider == "" {
		provider = current
		if model == "" {
			model = currentModel
		}
	}
	if model != "" {
		c.DefaultProvider = provider + ":" + model
	} else {
		c.DefaultProvider = provider
	}
}

// SplitProviderModel splits "provider:model". The model half may be empty.
func SplitProviderModel(s string) (string, string) {
	provider, model, _ := strings.Cut(s, ":")
	return strings.TrimSpace(provider), strings.TrimSpace(model)
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigDir returns the XDG config directory for fencestream.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, appName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetDataDir returns the directory holding captures and traces.
func GetDataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appName), nil
	}
	dirs, err := gap.NewScope(gap.User, appName).DataDirs()
	if err != nil {
		return "", fmt.Errorf("failed to resolve data dir: %w", err)
	}
	if len(dirs) == 0 {
		return "", fmt.Errorf("no data dir for %s", appName)
	}
	return dirs[0], nil
}

// CapturePath returns the capture database location.
func (c *Config) CapturePath() (string, error) {
	if c.Capture.Path != "" {
		return c.Capture.Path, nil
	}
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "captures.db"), nil
}

// TraceDir returns the directory for JSONL trace sessions.
func (c *Config) TraceDir() (string, error) {
	if c.Log.TraceDir != "" {
		return c.Log.TraceDir, nil
	}
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "traces"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Redacted returns a copy with API keys masked, suitable for display.
func (c Config) Redacted() Config {
	mask := func(p *ProviderConfig) {
		if len(p.APIKey) > 8 {
			p.APIKey = p.APIKey[:4] + "…" + p.APIKey[len(p.APIKey)-4:]
		} else if p.APIKey != "" {
			p.APIKey = "****"
		}
	}
	mask(&c.Anthropic)
	mask(&c.OpenAI)
	mask(&c.Gemini)
	mask(&c.Ollama)
	mask(&c.LMStudio)
	return c
}
