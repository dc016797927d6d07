package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MemoryEntry is a single remembered fact.
type MemoryEntry struct {
	ID   string
	Text string
}

// MemoryLog is an append-only list of user facts that get injected into
// the system prompt of every new conversation. Entries live one per line
// in a tab-separated file, id first.
type MemoryLog struct {
	path string
}

// NewMemoryLog opens the memory file under the data directory, creating
// parent directories as needed.
func NewMemoryLog() (*MemoryLog, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dataDir := filepath.Join(homeDir, ".local", "share", "tern")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &MemoryLog{path: filepath.Join(dataDir, "memory.log")}, nil
}

// Append records a new fact and returns its entry.
func (m *MemoryLog) Append(text string) (MemoryEntry, error) {
	entry := MemoryEntry{
		ID:   uuid.NewString(),
		Text: strings.TrimSpace(text),
	}
	if entry.Text == "" {
		return MemoryEntry{}, fmt.Errorf("nothing to remember")
	}

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return MemoryEntry{}, fmt.Errorf("failed to open memory log: %w", err)
	}
	defer f.Close()

	line := entry.ID + "\t" + strings.ReplaceAll(entry.Text, "\n", " ") + "\n"
	if _, err := f.WriteString(line); err != nil {
		return MemoryEntry{}, fmt.Errorf("failed to append memory entry: %w", err)
	}
	return entry, nil
}

// All returns every entry in insertion order. A missing file means an
// empty log.
func (m *MemoryLog) All() ([]MemoryEntry, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read memory log: %w", err)
	}

	var entries []MemoryEntry
	for _, line := range strings.Split(string(data), "\n") {
		id, text, found := strings.Cut(line, "\t")
		if !found || strings.TrimSpace(text) == "" {
			continue
		}
		entries = append(entries, MemoryEntry{ID: id, Text: text})
	}
	return entries, nil
}

// Search returns entries whose text contains the query, case-insensitively.
// An empty query matches everything.
func (m *MemoryLog) Search(query string) ([]MemoryEntry, error) {
	entries, err := m.All()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return entries, nil
	}

	needle := strings.ToLower(query)
	var matched []MemoryEntry
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Text), needle) {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

// Forget removes the entry with the given id.
func (m *MemoryLog) Forget(id string) error {
	entries, err := m.All()
	if err != nil {
		return err
	}

	var kept []MemoryEntry
	removed := false
	for _, entry := range entries {
		if entry.ID == id {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		return fmt.Errorf("no memory entry with id %s", id)
	}
	return m.rewrite(kept)
}

// Replace rewrites the text of the entry with the given id, keeping its
// id and position.
func (m *MemoryLog) Replace(id, text string) (MemoryEntry, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return MemoryEntry{}, fmt.Errorf("nothing to remember")
	}

	entries, err := m.All()
	if err != nil {
		return MemoryEntry{}, err
	}
	var updated MemoryEntry
	for i := range entries {
		if entries[i].ID == id {
			entries[i].Text = text
			updated = entries[i]
			break
		}
	}
	if updated.ID == "" {
		return MemoryEntry{}, fmt.Errorf("no memory entry with id %s", id)
	}
	if err := m.rewrite(entries); err != nil {
		return MemoryEntry{}, err
	}
	return updated, nil
}

// rewrite replaces the whole file through a temporary sibling so a crash
// cannot truncate the log.
func (m *MemoryLog) rewrite(entries []MemoryEntry) error {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(entry.ID + "\t" + entry.Text + "\n")
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to rewrite memory log: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("failed to replace memory log: %w", err)
	}
	return nil
}

// SystemPromptSection renders the log as a block for the system prompt,
// or "" when the log is empty.
func (m *MemoryLog) SystemPromptSection() string {
	entries, err := m.All()
	if err != nil || len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Things the user has asked you to remember:\n")
	for _, entry := range entries {
		b.WriteString("- " + entry.Text + "\n")
	}
	return b.String()
}

// FormatMemoryList renders entries for the /memory command.
func FormatMemoryList(entries []MemoryEntry) string {
	if len(entries) == 0 {
		return "Nothing remembered yet. Use /remember <fact> to add one."
	}
	var b strings.Builder
	b.WriteString("Remembered facts:\n\n")
	for i, entry := range entries {
		b.WriteString(fmt.Sprintf("%2d. %s\n", i+1, entry.Text))
	}
	return b.String()
}
