package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const sessionFileExt = ".json"

// ErrSessionNotFound is returned when a lookup matches neither a storage
// key nor a record id.
var ErrSessionNotFound = errors.New("session not found")

// Chat message roles as persisted in session records.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

// ChatMessage is a single transcript turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is a durable conversation record. Its ID always equals the
// filename stem of the file it is stored in; Rename keeps the two in sync.
type Session struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Messages  []ChatMessage `json:"messages"`
}

// FirstPrompt returns the first user turn, truncated for display.
func (s *Session) FirstPrompt() string {
	for _, msg := range s.Messages {
		if msg.Role != roleUser {
			continue
		}
		prompt := strings.TrimSpace(msg.Content)
		// Truncate on runes so multibyte input cannot be cut mid-character.
		if runes := []rune(prompt); len(runes) > 60 {
			prompt = string(runes[:57]) + "..."
		}
		return prompt
	}
	return ""
}

// SessionStore maps session ids to JSON files under a single directory
// and tracks which session currently receives appended turns.
type SessionStore struct {
	storageDir string
	activeID   string
}

// NewSessionStore creates the storage directory if needed.
func NewSessionStore() (*SessionStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	storageDir := filepath.Join(homeDir, ".local", "share", "tern", "sessions")
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session storage directory: %w", err)
	}

	return &SessionStore{storageDir: storageDir}, nil
}

// ActiveID returns the id of the session currently receiving turns, or ""
// when no session is active.
func (s *SessionStore) ActiveID() string {
	return s.activeID
}

func (s *SessionStore) path(id string) string {
	return filepath.Join(s.storageDir, id+sessionFileExt)
}

// newSessionID derives an id from the current time; a collision within the
// same second gets a numeric suffix so that id == storage key stays unique.
func (s *SessionStore) newSessionID() string {
	base := time.Now().Format("2006-01-02-150405")
	id := base
	for n := 2; ; n++ {
		if _, err := os.Stat(s.path(id)); os.IsNotExist(err) {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

// Create writes an empty-transcript record, makes it the active session
// and returns its id.
func (s *SessionStore) Create() (string, error) {
	sess := &Session{
		ID:        s.newSessionID(),
		CreatedAt: time.Now(),
		Messages:  []ChatMessage{},
	}
	if err := s.write(sess); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	s.activeID = sess.ID
	return sess.ID, nil
}

// Append overwrites the active record's transcript with the full supplied
// sequence. With no active session there is nothing to persist.
func (s *SessionStore) Append(transcript []ChatMessage) error {
	if s.activeID == "" {
		return nil
	}
	sess, err := s.read(s.activeID)
	if err != nil {
		// The file went missing or got corrupted underneath us; rebuild
		// the record rather than losing the transcript.
		slog.Warn("recreating session record", "id", s.activeID, "error", err)
		sess = &Session{ID: s.activeID, CreatedAt: time.Now()}
	}
	sess.Messages = append([]ChatMessage(nil), transcript...)
	if err := s.write(sess); err != nil {
		return fmt.Errorf("failed to persist transcript: %w", err)
	}
	return nil
}

// List returns every well-formed record, newest first. Malformed files are
// skipped, never surfaced as errors.
func (s *SessionStore) List() []*Session {
	entries, err := os.ReadDir(s.storageDir)
	if err != nil {
		slog.Warn("failed to read session directory", "dir", s.storageDir, "error", err)
		return nil
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sessionFileExt) {
			continue
		}
		sess, err := s.read(strings.TrimSuffix(entry.Name(), sessionFileExt))
		if err != nil {
			slog.Warn("skipping malformed session file", "file", entry.Name(), "error", err)
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions
}

// Load resolves identifier as either the literal storage key or the bare
// id, makes the matching record active and returns it. On a miss the
// store's state is left untouched.
func (s *SessionStore) Load(identifier string) (*Session, error) {
	key := strings.TrimSuffix(identifier, sessionFileExt)
	if sess, err := s.read(key); err == nil {
		s.activeID = sess.ID
		return sess, nil
	}
	for _, sess := range s.List() {
		if sess.ID == identifier || sess.ID == key {
			s.activeID = sess.ID
			return sess, nil
		}
	}
	return nil, ErrSessionNotFound
}

// Rename gives the record a new name. The sanitized name becomes both the
// record's id and its storage key, so id-based lookups keep resolving
// after the file moves.
func (s *SessionStore) Rename(identifier, newName string) (*Session, error) {
	key := strings.TrimSuffix(identifier, sessionFileExt)
	sess, err := s.read(key)
	if err != nil {
		sess = nil
		for _, candidate := range s.List() {
			if candidate.ID == identifier || candidate.ID == key {
				sess = candidate
				break
			}
		}
		if sess == nil {
			return nil, ErrSessionNotFound
		}
	}

	oldID := sess.ID
	slug := slugify(newName)
	if slug == "" {
		return nil, fmt.Errorf("invalid session name %q", newName)
	}
	if slug == oldID {
		return sess, nil
	}
	if _, err := os.Stat(s.path(slug)); err == nil {
		return nil, fmt.Errorf("session %q already exists", slug)
	}

	// Rewrite under the old key before the file moves, so an interrupted
	// rename still leaves a complete record behind.
	if err := s.write(sess); err != nil {
		return nil, fmt.Errorf("rename failed: %w", err)
	}
	if err := os.Rename(s.path(oldID), s.path(slug)); err != nil {
		return nil, fmt.Errorf("rename failed: %w", err)
	}
	sess.ID = slug
	if err := s.write(sess); err != nil {
		return nil, fmt.Errorf("rename failed: %w", err)
	}

	if s.activeID == oldID || s.activeID == key || s.activeID == identifier {
		s.activeID = slug
	}
	return sess, nil
}

func (s *SessionStore) read(id string) (*Session, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}
	if sess.ID == "" {
		return nil, fmt.Errorf("session file %s%s has no id", id, sessionFileExt)
	}
	return &sess, nil
}

func (s *SessionStore) write(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", sess.ID, err)
	}
	if err := os.WriteFile(s.path(sess.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// slugify reduces a display name to a filesystem-safe storage key:
// characters outside letters, digits, hyphen, underscore and whitespace
// are dropped, then whitespace runs collapse to single hyphens.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == ' ', r == '\t':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}

func formatRelativeTime(t time.Time) string {
	now := time.Now()

	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return fmt.Sprintf("Today %s", t.Format("15:04"))
	}

	yesterday := now.AddDate(0, 0, -1)
	if t.Year() == yesterday.Year() && t.YearDay() == yesterday.YearDay() {
		return fmt.Sprintf("Yesterday %s", t.Format("15:04"))
	}

	if t.Year() == now.Year() {
		return t.Format("Jan 2, 15:04")
	}

	return t.Format("Jan 2 2006, 15:04")
}

// FormatSessionList renders up to limit records for the /history command.
func FormatSessionList(sessions []*Session, limit int) string {
	if len(sessions) == 0 {
		return "No previous sessions found. Start chatting to create a new session!"
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	var b strings.Builder
	b.WriteString("Recent sessions:\n\n")
	for i, sess := range sessions {
		prompt := sess.FirstPrompt()
		if prompt == "" {
			prompt = "(empty session)"
		}
		b.WriteString(fmt.Sprintf("%2d. %s  [%s]\n", i+1, sess.ID, formatRelativeTime(sess.CreatedAt)))
		b.WriteString(fmt.Sprintf("    %d messages • %s\n", len(sess.Messages), prompt))
	}
	b.WriteString("\nUse /load <id> to resume a session.")
	return b.String()
}
