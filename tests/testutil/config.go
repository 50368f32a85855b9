// Package testutil provides test utilities and helpers for loginrotate tests.
//
// This package contains shared test infrastructure including a settings file
// builder, a captured logger and environment helpers.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestSettingsBuilder provides a fluent API for writing appsettings files.
//
// Example usage:
//
//	path := NewTestSettings(t).
//	    WithConnection("postgres://admin:secret@db:5432/postgres").
//	    WithLogin("app_user").
//	    WithGenerate(true).
//	    WriteJSON()
type TestSettingsBuilder struct {
	sections map[string]map[string]any
	tempDir  string
	t        *testing.T
}

// NewTestSettings creates a builder with empty ConnectionStrings and
// SqlSettings sections.
func NewTestSettings(t *testing.T) *TestSettingsBuilder {
	t.Helper()

	return &TestSettingsBuilder{
		sections: map[string]map[string]any{
			"ConnectionStrings": {},
			"SqlSettings":       {},
		},
		tempDir: t.TempDir(),
		t:       t,
	}
}

// WithConnection sets ConnectionStrings:SqlConnection.
func (b *TestSettingsBuilder) WithConnection(descriptor string) *TestSettingsBuilder {
	b.sections["ConnectionStrings"]["SqlConnection"] = descriptor
	return b
}

// WithLogin sets SqlSettings:LoginToUpdate.
func (b *TestSettingsBuilder) WithLogin(login string) *TestSettingsBuilder {
	return b.WithSetting("LoginToUpdate", login)
}

// WithGenerate sets SqlSettings:GenerateRandomPassword.
func (b *TestSettingsBuilder) WithGenerate(generate bool) *TestSettingsBuilder {
	return b.WithSetting("GenerateRandomPassword", generate)
}

// WithPassword sets SqlSettings:NewPassword.
func (b *TestSettingsBuilder) WithPassword(pw string) *TestSettingsBuilder {
	return b.WithSetting("NewPassword", pw)
}

// WithSetting sets an arbitrary key in the SqlSettings section.
func (b *TestSettingsBuilder) WithSetting(key string, value any) *TestSettingsBuilder {
	b.sections["SqlSettings"][key] = value
	return b
}

// WriteJSON writes appsettings.json into a temporary directory and returns its path.
func (b *TestSettingsBuilder) WriteJSON() string {
	b.t.Helper()

	data, err := json.MarshalIndent(b.sections, "", "  ")
	if err != nil {
		b.t.Fatalf("Failed to marshal test settings: %v", err)
	}
	return b.write("appsettings.json", data)
}

// WriteYAML writes appsettings.yaml into a temporary directory and returns its path.
func (b *TestSettingsBuilder) WriteYAML() string {
	b.t.Helper()

	data, err := yaml.Marshal(b.sections)
	if err != nil {
		b.t.Fatalf("Failed to marshal test settings: %v", err)
	}
	return b.write("appsettings.yaml", data)
}

func (b *TestSettingsBuilder) write(name string, data []byte) string {
	b.t.Helper()

	path := filepath.Join(b.tempDir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		b.t.Fatalf("Failed to write test settings: %v", err)
	}
	return path
}

// WriteTestSettings writes raw content to name in a temporary directory.
//
// Useful for hand-written malformed documents.
func WriteTestSettings(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test settings: %v", err)
	}
	return path
}
