package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StatusComponent represents the status bar component
type StatusComponent struct {
	Provider  string
	Model     string
	Connected bool
	SessionID string
	Turns     int
	Width     int
	Style     lipgloss.Style

	waitingForResponse bool
	waitingSince       time.Time
}

// NewStatusComponent creates a new status component
func NewStatusComponent(width int) StatusComponent {
	return StatusComponent{
		Width: width,
		Style: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#01FAFA")).
			Padding(0),
	}
}

// SetProvider sets the current provider and model
func (s *StatusComponent) SetProvider(provider, model string, connected bool) {
	s.Provider = provider
	s.Model = model
	s.Connected = connected
}

// SetSession records the active session for display
func (s *StatusComponent) SetSession(id string, turns int) {
	s.SessionID = id
	s.Turns = turns
}

// StartWaiting marks the status component as waiting for a model response
func (s *StatusComponent) StartWaiting() {
	s.waitingForResponse = true
	s.waitingSince = time.Now()
}

// StopWaiting clears the waiting indicator
func (s *StatusComponent) StopWaiting() {
	s.waitingForResponse = false
}

// SetWidth updates the width of the status component
func (s *StatusComponent) SetWidth(width int) {
	s.Width = width
}

func (s StatusComponent) renderLeftSection() string {
	if s.SessionID == "" {
		return "no session"
	}
	return fmt.Sprintf("%s (%d turns)", s.SessionID, s.Turns)
}

func (s StatusComponent) renderRightSection() string {
	icon := "🔌"
	if s.Connected {
		icon = "✅"
	}
	name := s.Provider
	if s.Model != "" {
		name = fmt.Sprintf("%s (%s)", s.Provider, s.Model)
	}
	if s.waitingForResponse {
		elapsed := time.Since(s.waitingSince).Round(time.Second)
		return fmt.Sprintf("⏳ %s %s %s", elapsed, icon, name)
	}
	return fmt.Sprintf("%s %s", icon, name)
}

// View renders the status component
func (s StatusComponent) View() string {
	left := s.renderLeftSection()
	right := s.renderRightSection()

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return s.Style.Render(left + strings.Repeat(" ", gap) + right)
}
