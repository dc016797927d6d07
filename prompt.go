package main

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PromptComponent is the single-line input at the bottom of the screen.
// It owns prompt history recall and renders the suggestion engine's ghost
// text after the typed input.
type PromptComponent struct {
	Input textinput.Model
	Width int
	Style lipgloss.Style
	ghost string

	history      []string
	historyIndex int    // len(history) means "past the end", editing fresh input
	draft        string // input stashed while browsing history
}

// NewPromptComponent creates a new prompt component
func NewPromptComponent(width int) PromptComponent {
	ti := textinput.New()
	ti.Placeholder = "Type a message or / for commands"
	ti.Prompt = "> "
	ti.Focus()
	ti.Width = width - 4

	return PromptComponent{
		Input: ti,
		Width: width,
		Style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F952F9")).
			Width(width),
	}
}

// SetWidth updates the width of the prompt component
func (p *PromptComponent) SetWidth(width int) {
	p.Width = width
	p.Style = p.Style.Width(width)
	p.Input.Width = width - 4
}

// SetHistory seeds the recall list with persisted prompts, oldest first.
func (p *PromptComponent) SetHistory(prompts []string) {
	p.history = append([]string(nil), prompts...)
	p.historyIndex = len(p.history)
}

// PushHistory records a submitted prompt for recall.
func (p *PromptComponent) PushHistory(prompt string) {
	if len(p.history) > 0 && p.history[len(p.history)-1] == prompt {
		p.historyIndex = len(p.history)
		return
	}
	p.history = append(p.history, prompt)
	p.historyIndex = len(p.history)
}

// RecallPrev steps back through history. Returns false at the oldest entry.
func (p *PromptComponent) RecallPrev() bool {
	if p.historyIndex == 0 || len(p.history) == 0 {
		return false
	}
	if p.historyIndex == len(p.history) {
		p.draft = p.Input.Value()
	}
	p.historyIndex--
	p.Input.SetValue(p.history[p.historyIndex])
	p.Input.CursorEnd()
	return true
}

// RecallNext steps forward, restoring the stashed draft past the newest
// entry. Returns false when already on the draft.
func (p *PromptComponent) RecallNext() bool {
	if p.historyIndex >= len(p.history) {
		return false
	}
	p.historyIndex++
	if p.historyIndex == len(p.history) {
		p.Input.SetValue(p.draft)
	} else {
		p.Input.SetValue(p.history[p.historyIndex])
	}
	p.Input.CursorEnd()
	return true
}

// SetValue sets the text value of the prompt
func (p *PromptComponent) SetValue(value string) {
	p.Input.SetValue(value)
	p.Input.CursorEnd()
}

// Value returns the current text value
func (p PromptComponent) Value() string {
	return p.Input.Value()
}

// Reset clears the input and leaves history positioned at the end.
func (p *PromptComponent) Reset() {
	p.Input.Reset()
	p.historyIndex = len(p.history)
	p.draft = ""
	p.ghost = ""
}

// Focus gives focus to the prompt
func (p *PromptComponent) Focus() {
	p.Input.Focus()
}

// Blur removes focus from the prompt
func (p *PromptComponent) Blur() {
	p.Input.Blur()
}

// SetGhost sets the inline completion shown after the typed text.
func (p *PromptComponent) SetGhost(ghost string) {
	p.ghost = ghost
}

// CursorAtEnd reports whether the cursor sits after the last character.
func (p PromptComponent) CursorAtEnd() bool {
	return p.Input.Position() >= len([]rune(p.Input.Value()))
}

// Update handles messages for the prompt component
func (p PromptComponent) Update(msg tea.Msg) (PromptComponent, tea.Cmd) {
	var cmd tea.Cmd
	p.Input, cmd = p.Input.Update(msg)
	return p, cmd
}

// View renders the prompt with any ghost text appended after the input.
func (p PromptComponent) View() string {
	view := p.Input.View()
	if p.ghost != "" && p.CursorAtEnd() {
		view += lipgloss.NewStyle().Faint(true).Render(p.ghost)
	}
	return p.Style.Render(view)
}
