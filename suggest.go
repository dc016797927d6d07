package main

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	commandLeader = "/"
	suggestDelay  = 500 * time.Millisecond
)

// suggestRevealMsg fires when a pending suggestion's debounce timer
// elapses. The seq ties it to the input state it was computed for.
type suggestRevealMsg struct{ seq int }

// SuggestionEngine computes inline ghost-text completions for command
// input. A prefix longer than the bare leader reveals its completion
// immediately; the bare leader alone waits out a quiet period first. Any
// keystroke bumps seq, which makes an older timer's message a no-op.
type SuggestionEngine struct {
	commands []string
	delay    time.Duration

	seq     int
	pending string // completion remainder awaiting reveal
	text    string // revealed completion remainder, "" when hidden
}

// NewSuggestionEngine builds an engine over the given command names, in
// the order they should win prefix matches.
func NewSuggestionEngine(commands []string) SuggestionEngine {
	return SuggestionEngine{
		commands: append([]string(nil), commands...),
		delay:    suggestDelay,
	}
}

// Refresh recomputes the suggestion for input. A non-empty prefix reveals
// its completion right away and returns nil; the bare leader returns the
// timer that will reveal the first command, so typing "/" and pausing is
// what surfaces a hint. Either way any older timer is invalidated.
func (se *SuggestionEngine) Refresh(input string) tea.Cmd {
	se.seq++
	se.text = ""
	se.pending = se.complete(input)
	if se.pending == "" {
		return nil
	}

	if input != commandLeader {
		se.text = se.pending
		return nil
	}

	seq := se.seq
	return tea.Tick(se.delay, func(time.Time) tea.Msg {
		return suggestRevealMsg{seq: seq}
	})
}

// Reveal shows the pending suggestion if msg belongs to the latest
// Refresh. Stale timers are ignored.
func (se *SuggestionEngine) Reveal(msg suggestRevealMsg) {
	if msg.seq != se.seq {
		return
	}
	se.text = se.pending
}

// Text returns the currently visible completion remainder.
func (se *SuggestionEngine) Text() string {
	return se.text
}

// Accept consumes the visible suggestion and returns it. It returns ""
// when nothing is revealed yet.
func (se *SuggestionEngine) Accept() string {
	text := se.text
	se.text = ""
	se.pending = ""
	return text
}

// Clear drops any pending or visible suggestion.
func (se *SuggestionEngine) Clear() {
	se.seq++
	se.text = ""
	se.pending = ""
}

// complete returns the remainder that would extend input to the first
// matching command name. Only bare command input is completed; once a
// space follows the name the user is typing arguments.
func (se *SuggestionEngine) complete(input string) string {
	if !strings.HasPrefix(input, commandLeader) || strings.ContainsRune(input, ' ') {
		return ""
	}
	for _, name := range se.commands {
		if len(input) < len(name) && strings.HasPrefix(name, input) {
			return name[len(input):]
		}
	}
	return ""
}
