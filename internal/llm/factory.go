package llm

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/samsaffron/fencestream/internal/config"
)

// ProviderNames lists the provider names accepted by NewProvider.
func ProviderNames() []string {
	return []string{"anthropic", "openai", "gemini", "ollama", "lmstudio"}
}

// ParseProviderModel parses "provider" or "provider:model".
func ParseProviderModel(s string) (string, string, error) {
	provider, model := config.SplitProviderModel(s)
	if provider == "" {
		return "", "", fmt.Errorf("invalid provider format: %q", s)
	}
	for _, name := range ProviderNames() {
		if provider == name {
			return provider, model, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
}

// NewProvider creates a provider for providerModel ("provider:model"), falling back to
// the configured default when providerModel is empty. Providers are wrapped with
// automatic retry for rate limits and transient errors.
func NewProvider(cfg *config.Config, providerModel string, logger *log.Logger) (Provider, error) {
	if providerModel == "" {
		providerModel = cfg.DefaultProvider
	}
	name, model, err := ParseProviderModel(providerModel)
	if err != nil {
		return nil, err
	}
	provider, err := createProvider(cfg, name, model)
	if err != nil {
		return nil, err
	}
	return WrapWithRetry(provider, DefaultRetryConfig(), logger), nil
}

func createProvider(cfg *config.Config, name, model string) (Provider, error) {
	pc, ok := cfg.Provider(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	model = chooseModel(model, pc.Model)

	switch name {
	case "anthropic":
		return NewAnthropicProvider(pc.APIKey, model, pc.BaseURL)
	case "openai":
		return NewOpenAIProvider(pc.APIKey, model, pc.BaseURL)
	case "gemini":
		return NewGeminiProvider(pc.APIKey, model, pc.BaseURL)
	case "ollama", "lmstudio":
		return NewCompatProvider(name, pc.BaseURL, pc.APIKey, model)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// Collect drains a stream and returns its concatenated text.
func Collect(s Stream) (string, *Usage, error) {
	defer s.Close()
	var text []byte
	var use *Usage
	for {
		ev, err := s.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return string(text), use, nil
			}
			return string(text), use, err
		}
		switch ev.Type {
		case EventTextDelta:
			text = append(text, ev.Text...)
		case EventUsage:
			use = ev.Use
		case EventError:
			if ev.Err != nil {
				return string(text), use, ev.Err
			}
		}
	}
}
