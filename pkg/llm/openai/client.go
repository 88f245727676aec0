// Package openai implements llm.Provider for any OpenAI-compatible
// Chat Completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"whodunnit/pkg/config"
	"whodunnit/pkg/llm"
	"whodunnit/pkg/request"
)

// Client implements llm.Provider for any OpenAI-compatible API.
type Client struct {
	rc        *request.Client
	apiKey    string
	baseURL   string
	modelName string
	profiles  map[string]string

	mu sync.RWMutex
}

// Request follows the standard OpenAI Chat Completions format.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

// Response follows the standard Chat Completions response format.
type Response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a new OpenAI client.
func NewClient(cfg config.LLMConfig, rc *request.Client) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    cfg.Key,
		modelName: cfg.Model,
		profiles:  cfg.Profiles,
		rc:        rc,
	}, nil
}

// GenerateText sends a system+user prompt pair and returns the text response.
func (c *Client) GenerateText(ctx context.Context, name, system, prompt string) (string, error) {
	model := c.resolveModel(name)

	req := Request{
		Model:       model,
		Messages:    buildMessages(system, prompt),
		Temperature: 0.7,
	}

	return c.Execute(ctx, req)
}

// GenerateJSON sends a system+user prompt pair and unmarshals the JSON
// response into the target struct.
func (c *Client) GenerateJSON(ctx context.Context, name, system, prompt string, target any) error {
	model := c.resolveModel(name)

	// OpenAI-compatible providers require "json" in the prompt for json_object mode.
	if !strings.Contains(strings.ToLower(prompt), "json") {
		prompt += " Respond in JSON."
	}

	req := Request{
		Model:          model,
		Messages:       buildMessages(system, prompt),
		ResponseFormat: &ResponseFormat{Type: "json_object"},
		Temperature:    0.7,
	}

	respText, err := c.Execute(ctx, req)
	if err != nil {
		return err
	}

	respText = llm.CleanJSONBlock(respText)

	if err := json.Unmarshal([]byte(respText), target); err != nil {
		return fmt.Errorf("failed to unmarshal openai json: %w (raw: %s)", err, respText)
	}

	return nil
}

// HealthCheck verifies the key works and the configured models exist
// via the /models endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("api key is missing")
	}

	u := c.baseURL + "/models"
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	respBody, err := c.rc.GetWithHeaders(ctx, u, headers, "")
	if err != nil {
		return fmt.Errorf("failed to fetch models from %s: %w", u, err)
	}

	var mresp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &mresp); err != nil {
		return fmt.Errorf("failed to parse models response: %w", err)
	}

	available := make(map[string]bool)
	for _, m := range mresp.Data {
		available[m.ID] = true
	}

	var missing []string
	for _, model := range c.profiles {
		if model != "" && !available[model] {
			missing = append(missing, model)
		}
	}
	if c.modelName != "" && !available[c.modelName] {
		missing = append(missing, c.modelName)
	}

	if len(missing) > 0 {
		return fmt.Errorf("configured models %v not found at %s", missing, u)
	}

	return nil
}

// HasProfile checks if a model is configured for the given intent.
func (c *Client) HasProfile(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles[name] != ""
}

func (c *Client) Close() {}

// Execute sends a chat completions request and returns the message content.
func (c *Client) Execute(ctx context.Context, oreq Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("api key is missing")
	}

	body, err := json.Marshal(oreq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}

	u := c.baseURL + "/chat/completions"

	respBody, err := c.rc.PostWithHeaders(ctx, u, body, headers)
	if err != nil {
		return "", err
	}

	var oresp Response
	if err := json.Unmarshal(respBody, &oresp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if oresp.Error != nil {
		return "", fmt.Errorf("openai api error: %s (%s)", oresp.Error.Message, oresp.Error.Type)
	}

	if len(oresp.Choices) == 0 {
		return "", fmt.Errorf("api returned no choices")
	}

	return oresp.Choices[0].Message.Content, nil
}

func (c *Client) resolveModel(intent string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if model, ok := c.profiles[intent]; ok && model != "" {
		return model
	}
	return c.modelName
}

func buildMessages(system, prompt string) []Message {
	var msgs []Message
	if system != "" {
		msgs = append(msgs, Message{Role: "system", Content: system})
	}
	return append(msgs, Message{Role: "user", Content: prompt})
}
