package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultEndpoint = "https://api.openai.com/v1"
	defaultModel    = "gpt-4o-mini"
)

// Config holds generation-service settings.
// The API key rides outside the config file; see cmd wiring.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"`
}

// OpenAI implements Generator against an OpenAI-compatible chat-completions
// endpoint. Temperature is pinned to 0 and the response format to a single
// JSON object; translation determinism depends on both.
type OpenAI struct {
	config Config
	client *http.Client
}

// NewOpenAI creates a generator with defaults filled in.
func NewOpenAI(cfg Config) *OpenAI {

	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	return &OpenAI{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Generate sends one rendered prompt and returns the model's JSON object.
// Single attempt; callers own any retry or deadline policy via ctx.
func (gen *OpenAI) Generate(ctx context.Context, rendered string) (raw json.RawMessage, err error) {

	reqBody := chatRequest{
		Model: gen.config.Model,
		Messages: []chatMessage{
			{Role: "user", Content: rendered},
		},
		Temperature:    0,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		err = errors.Wrapf(err, "failed to marshal generation request")
		return
	}

	url := strings.TrimSuffix(gen.config.Endpoint, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		err = errors.Wrapf(err, "failed to create generation request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if gen.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+gen.config.APIKey)
	}

	resp, err := gen.client.Do(req)
	if err != nil {
		err = errors.Wrapf(err, "generation request failed")
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrapf(err, "failed to read generation response")
		return
	}

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("generation service returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		return
	}

	var chatResp chatResponse
	err = json.Unmarshal(respBody, &chatResp)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse generation response")
		return
	}

	if chatResp.Error != nil {
		err = errors.Errorf("generation service error (%s): %s", chatResp.Error.Type, chatResp.Error.Message)
		return
	}

	if len(chatResp.Choices) == 0 {
		err = errors.Errorf("generation service returned no choices")
		return
	}

	content := stripFences(chatResp.Choices[0].Message.Content)
	if !json.Valid([]byte(content)) {
		err = errors.Errorf("generation service returned invalid JSON: %s", truncate(content, 200))
		return
	}

	raw = json.RawMessage(content)
	return
}

// unexported

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// stripFences removes a markdown code fence around a JSON body; models wrap
// output this way even in JSON mode.
func stripFences(content string) string {

	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func truncate(str string, maxLen int) string {

	if len(str) <= maxLen {
		return str
	}
	return str[:maxLen] + "..."
}
