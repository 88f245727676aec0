// Package mock implements llm.Provider with canned responses, for tests
// and for running the server without an API key.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Provider is a canned-response llm.Provider. The zero value answers
// every request with a fixed placeholder.
type Provider struct {
	mu sync.Mutex

	// TextResponse is returned by GenerateText when set.
	TextResponse string
	// JSONResponse is unmarshalled into the target by GenerateJSON when set.
	JSONResponse string
	// Err, when set, is returned by every generation call.
	Err error

	// Calls records the prompts seen, newest last.
	Calls []Call
}

// Call is one recorded generation request.
type Call struct {
	Name   string
	System string
	Prompt string
}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) record(name, system, prompt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, Call{Name: name, System: system, Prompt: prompt})
}

func (p *Provider) GenerateText(ctx context.Context, name, system, prompt string) (string, error) {
	p.record(name, system, prompt)
	if p.Err != nil {
		return "", p.Err
	}
	if p.TextResponse != "" {
		return p.TextResponse, nil
	}
	return "mock response", nil
}

func (p *Provider) GenerateJSON(ctx context.Context, name, system, prompt string, target any) error {
	p.record(name, system, prompt)
	if p.Err != nil {
		return p.Err
	}
	raw := p.JSONResponse
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("mock json response invalid: %w", err)
	}
	return nil
}

func (p *Provider) HealthCheck(ctx context.Context) error { return nil }

func (p *Provider) HasProfile(name string) bool { return true }
