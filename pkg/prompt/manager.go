// Package prompt renders the LLM prompts for script generation from
// embedded templates.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Manager handles loading and rendering of prompt templates.
type Manager struct {
	root *template.Template
}

// NewManager parses the embedded templates.
func NewManager() (*Manager, error) {
	root, err := template.New("root").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing prompt templates: %w", err)
	}
	return &Manager{root: root}, nil
}

// Render executes the named template with the provided data.
func (m *Manager) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := m.root.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// System returns the system prompt for script generation.
func (m *Manager) System() (string, error) {
	return m.Render("system.tmpl", nil)
}

// Mystery renders the user prompt for one generation request.
func (m *Manager) Mystery(data MysteryData) (string, error) {
	return m.Render("mystery.tmpl", data)
}
