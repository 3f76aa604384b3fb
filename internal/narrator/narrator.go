// Package narrator writes the short story shown after each simulated round.
package narrator

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"text/template"
)

//go:embed prompts/round_story.txt
var roundStoryPrompt string

//go:embed prompts/fallback_story.txt
var fallbackStory string

// Scene is what the narrator knows about a round.
type Scene struct {
	Year       int
	GHG        float64
	InitialGHG float64
	Tier       string // empty until the final round
}

// Severity buckets the scene by how far GHG moved from its starting level.
func (s Scene) Severity() string {
	if s.InitialGHG <= 0 {
		return "unknown"
	}
	switch ratio := s.GHG / s.InitialGHG; {
	case ratio <= 0.9:
		return "improving"
	case ratio <= 1.1:
		return "holding"
	case ratio <= 1.5:
		return "worsening"
	default:
		return "critical"
	}
}

// Narrator turns a scene into a few sentences of story.
type Narrator interface {
	Narrate(ctx context.Context, scene Scene) (string, error)
}

// Template renders a deterministic story without any remote calls.
type Template struct {
	tmpl *template.Template
}

func NewTemplate() *Template {
	return &Template{tmpl: template.Must(template.New("fallback_story").Parse(fallbackStory))}
}

func (t *Template) Narrate(_ context.Context, scene Scene) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, scene); err != nil {
		return "", fmt.Errorf("render story: %w", err)
	}
	return string(bytes.TrimSpace(buf.Bytes())), nil
}

// Fallback tries primary and uses secondary when primary fails.
type Fallback struct {
	Primary   Narrator
	Secondary Narrator
	Log       *slog.Logger
}

func (f *Fallback) Narrate(ctx context.Context, scene Scene) (string, error) {
	story, err := f.Primary.Narrate(ctx, scene)
	if err == nil && story != "" {
		return story, nil
	}
	if f.Log != nil {
		f.Log.Warn("primary narrator failed, using fallback", "year", scene.Year, "error", err)
	}
	return f.Secondary.Narrate(ctx, scene)
}

func renderPrompt(scene Scene) (string, error) {
	tmpl, err := template.New("round_story").Parse(roundStoryPrompt)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, scene); err != nil {
		return "", err
	}
	return buf.String(), nil
}
