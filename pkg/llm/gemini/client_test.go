package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"whodunnit/pkg/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(config.LLMConfig{
		Model: "gemini-2.5-flash-lite",
		Profiles: map[string]string{
			"mystery": "gemini-2.5-flash",
		},
	}, "", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestResolveModel(t *testing.T) {
	c := newTestClient(t)

	model, cfg := c.resolveModel("mystery", "be nice")
	if model != "gemini-2.5-flash" {
		t.Errorf("profile model = %q, want gemini-2.5-flash", model)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "be nice" {
		t.Error("system instruction not applied")
	}

	model, cfg = c.resolveModel("unknown", "")
	if model != "gemini-2.5-flash-lite" {
		t.Errorf("default model = %q, want gemini-2.5-flash-lite", model)
	}
	if cfg.SystemInstruction != nil {
		t.Error("expected no system instruction for empty system prompt")
	}
}

func TestHasProfile(t *testing.T) {
	c := newTestClient(t)
	if !c.HasProfile("mystery") {
		t.Error("expected mystery profile")
	}
	if c.HasProfile("narration") {
		t.Error("unexpected narration profile")
	}
}

func TestUnconfiguredClient(t *testing.T) {
	c := newTestClient(t) // no API key, genaiClient stays nil

	if _, err := c.GenerateText(context.Background(), "mystery", "", "hi"); err == nil {
		t.Error("expected error from unconfigured client")
	}
	if err := c.GenerateJSON(context.Background(), "mystery", "", "hi", &struct{}{}); err == nil {
		t.Error("expected error from unconfigured client")
	}
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check failure without key")
	}
}

func TestGetResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: "hello "}, {Text: "world"}},
				},
			},
		},
	}
	text, err := getResponseText(resp)
	if err != nil {
		t.Fatalf("getResponseText: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q", text)
	}

	if _, err := getResponseText(&genai.GenerateContentResponse{}); err == nil {
		t.Error("expected error for empty candidates")
	}
}
