package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"hookchat/storage"
)

func testSession() *storage.Session {
	ts := time.Date(2025, 3, 14, 9, 26, 0, 0, time.UTC)
	return &storage.Session{
		ID:        "0f8b6c1e-2d4a-4b9e-9c1f-123456789abc",
		Title:     "Trip **plans**",
		CreatedAt: ts,
		UpdatedAt: ts,
		Messages: []storage.Message{
			{ID: "m1", Content: "where to?", IsUser: true, Timestamp: ts, Type: storage.MessageTypeAudio, AudioBase64: "GkXfo"},
			{ID: "m2", Content: "Try **Lima**", Timestamp: ts.Add(time.Minute), Type: storage.MessageTypeText, IsAudioTranscription: true},
			{ID: "m3", Content: "...", IsLoading: true, Timestamp: ts.Add(time.Minute)},
		},
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"json", "json", false},
		{"yaml", "yaml", false},
		{"yml", "yaml", false},
		{"md", "md", false},
		{"Markdown", "md", false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExporter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err == nil && exp.Extension() != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", exp.Extension(), tt.wantExt)
			}
		})
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var got storage.Session
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.ID != testSession().ID || len(got.Messages) != 3 {
		t.Errorf("decoded session = %+v", got)
	}
	if !strings.Contains(buf.String(), `"isUser": true`) {
		t.Error("expected camelCase keys in JSON output")
	}
}

func TestYAMLExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "GkXfo") {
		t.Error("audio payload should not be exported to YAML")
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if got["title"] != "Trip **plans**" {
		t.Errorf("title = %v", got["title"])
	}
	if _, ok := got["created_at"]; !ok {
		t.Error("expected snake_case created_at key")
	}
}

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	out := buf.String()
	want := []string{
		"# Trip **plans**",
		"**Messages:** 2",
		"**user:** (09:26) _(audio transcription)_",
		"where to?",
		"**assistant:** (09:27) _(audio transcription)_",
		`Try \*\*Lima\*\*`,
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n%s", w, out)
		}
	}
	if strings.Contains(out, "\n...\n") {
		t.Error("loading placeholder should be skipped")
	}
}

func TestEscapeMarkdownKeepsCodeBlocks(t *testing.T) {
	in := "**bold**\n```\n**raw**\n```"
	got := escapeMarkdown(in)
	want := "\\*\\*bold\\*\\*\n```\n**raw**\n```"
	if got != want {
		t.Errorf("escapeMarkdown() = %q, want %q", got, want)
	}
}

func TestFilename(t *testing.T) {
	exp := &MarkdownExporter{}
	s := testSession()
	if got := Filename(s, exp); got != "trip-plans-0f8b6c1e.md" {
		t.Errorf("Filename() = %q", got)
	}

	s.Title = "!!!"
	if got := Filename(s, exp); got != "session-0f8b6c1e.md" {
		t.Errorf("Filename() with empty slug = %q", got)
	}
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "s.json")
	if err := ToFile(testSession(), &JSONExporter{}, path); err != nil {
		t.Fatalf("ToFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !json.Valid(data) {
		t.Error("file content is not valid JSON")
	}
}
