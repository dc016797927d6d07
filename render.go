package main

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Renderer turns model output into styled terminal text. Markdown goes
// through glamour; reasoning asides bypass it and get a faint style so
// they read as secondary to the answer.
type Renderer struct {
	width int
	md    *glamour.TermRenderer
}

// NewRenderer builds a renderer wrapped at width columns.
func NewRenderer(width int) *Renderer {
	r := &Renderer{}
	r.SetWidth(width)
	return r
}

// SetWidth rebuilds the markdown renderer for a new terminal width.
func (r *Renderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	r.width = width
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		slog.Warn("failed to build markdown renderer", "error", err)
		r.md = nil
		return
	}
	r.md = md
}

// Markdown renders markdown to ANSI. On failure the raw text comes back
// so nothing the model said is ever dropped.
func (r *Renderer) Markdown(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		slog.Warn("markdown render failed", "error", err)
		return text
	}
	return strings.Trim(out, "\n")
}

// ThinkingAside styles a reformatted reasoning block.
func (r *Renderer) ThinkingAside(thinking string) string {
	aside := formatThinkingAside(thinking)
	return lipgloss.NewStyle().Faint(true).Render(aside)
}

// Rule returns a horizontal separator spanning the current width.
func (r *Renderer) Rule() string {
	return lipgloss.NewStyle().Faint(true).Render(strings.Repeat("─", r.width))
}

// AssistantBlock assembles a full assistant turn framed by horizontal
// rules: optional reasoning aside, then the rendered answer.
func (r *Renderer) AssistantBlock(thinking, answer string) string {
	parts := []string{r.Rule()}
	if strings.TrimSpace(thinking) != "" {
		parts = append(parts, r.ThinkingAside(thinking))
	}
	parts = append(parts, r.Markdown(answer), r.Rule())
	return strings.Join(parts, "\n")
}
