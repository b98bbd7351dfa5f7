package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CompatProvider speaks the OpenAI-compatible /chat/completions SSE protocol
// served by Ollama and LM Studio.
type CompatProvider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewCompatProvider(name, baseURL, apiKey, model string) (*CompatProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("provider %q requires base_url", name)
	}
	if model == "" {
		return nil, fmt.Errorf("provider %q requires a model (use %s:<model>)", name, name)
	}
	return &CompatProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  http.DefaultClient,
	}, nil
}

func (p *CompatProvider) Name() string {
	return fmt.Sprintf("%s (%s)", displayName(p.name), p.model)
}

type compatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type compatRequest struct {
	Model         string               `json:"model"`
	Messages      []compatMessage      `json:"messages"`
	Stream        bool                 `json:"stream"`
	MaxTokens     *int                 `json:"max_tokens,omitempty"`
	StreamOptions *compatStreamOptions `json:"stream_options,omitempty"`
}

type compatResponse struct {
	Choices []struct {
		Delta *struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *CompatProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		var messages []compatMessage
		if req.System != "" {
			messages = append(messages, compatMessage{Role: "system", Content: req.System})
		}
		messages = append(messages, compatMessage{Role: "user", Content: req.Prompt})

		chatReq := compatRequest{
			Model:         chooseModel(req.Model, p.model),
			Messages:      messages,
			Stream:        true,
			StreamOptions: &compatStreamOptions{IncludeUsage: true},
		}
		if req.MaxTokens > 0 {
			v := req.MaxTokens
			chatReq.MaxTokens = &v
		}

		body, err := json.Marshal(chatReq)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")
		if p.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
		}

		resp, err := p.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("%s API request failed: %w", p.name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("%s API error (status %d): %s", p.name, resp.StatusCode, strings.TrimSpace(string(body)))
		}

		scanner := bufio.NewScanner(resp.Body)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		var lastUsage *Usage
		var lastEventType string
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "event: ") {
				lastEventType = strings.TrimPrefix(line, "event: ")
				continue
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				break
			}

			var chatResp compatResponse
			if err := json.Unmarshal([]byte(data), &chatResp); err != nil {
				continue
			}
			if lastEventType == "error" || chatResp.Error != nil {
				errMsg := "unknown error"
				if chatResp.Error != nil {
					errMsg = chatResp.Error.Message
				}
				return fmt.Errorf("%s API error: %s", p.name, errMsg)
			}
			if chatResp.Usage != nil {
				lastUsage = &Usage{
					InputTokens:  chatResp.Usage.PromptTokens,
					OutputTokens: chatResp.Usage.CompletionTokens,
				}
			}
			for _, choice := range chatResp.Choices {
				if choice.Delta == nil || choice.Delta.Content == "" {
					continue
				}
				if err := send(ctx, events, Event{Type: EventTextDelta, Text: choice.Delta.Content}); err != nil {
					return err
				}
			}
			lastEventType = ""
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("%s streaming error: %w", p.name, err)
		}

		if lastUsage != nil {
			if err := send(ctx, events, Event{Type: EventUsage, Use: lastUsage}); err != nil {
				return err
			}
		}
		return send(ctx, events, Event{Type: EventDone})
	}), nil
}

func displayName(name string) string {
	switch name {
	case "lmstudio":
		return "LM Studio"
	case "":
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
