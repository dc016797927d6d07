package main

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Command represents a slash command
type Command struct {
	Name        string
	Description string
	Handler     func(*AppModel, []string) tea.Cmd
}

// CommandRegistry holds all available commands
type CommandRegistry struct {
	Commands map[string]Command
	order    []string
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() CommandRegistry {
	registry := CommandRegistry{
		Commands: make(map[string]Command),
	}

	// Registration order is the order /help and completion show them in.
	registry.RegisterCommand("/help", "Show available commands", handleHelpCommand)
	registry.RegisterCommand("/config", "Re-run the endpoint setup wizard", handleConfigCommand)
	registry.RegisterCommand("/clear", "Clear the screen and start a new session", handleClearCommand)
	registry.RegisterCommand("/history", "List recent sessions", handleHistoryCommand)
	registry.RegisterCommand("/load", "Resume a session: /load <id>", handleLoadCommand)
	registry.RegisterCommand("/rename", "Rename the current session: /rename <name>", handleRenameCommand)
	registry.RegisterCommand("/exit", "Quit", handleQuitCommand)
	registry.RegisterCommand("/quit", "Quit", handleQuitCommand)
	registry.RegisterCommand("/remember", "Remember a fact: /remember <fact>", handleRememberCommand)
	registry.RegisterCommand("/memory", "List remembered facts, optionally filtered", handleMemoryCommand)
	registry.RegisterCommand("/forget", "Forget a fact by its /memory number: /forget <n>", handleForgetCommand)
	registry.RegisterCommand("/amend", "Rewrite a fact: /amend <n> <new text>", handleAmendCommand)

	return registry
}

// RegisterCommand registers a new command
func (cr *CommandRegistry) RegisterCommand(name, description string, handler func(*AppModel, []string) tea.Cmd) {
	if _, exists := cr.Commands[name]; !exists {
		cr.order = append(cr.order, name)
	}
	cr.Commands[name] = Command{
		Name:        name,
		Description: description,
		Handler:     handler,
	}
}

// GetCommand gets a command by name
func (cr CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := cr.Commands[name]
	return cmd, exists
}

// GetAllCommands returns all registered commands in registration order
func (cr CommandRegistry) GetAllCommands() []Command {
	var commands []Command
	for _, name := range cr.order {
		if cmd, ok := cr.Commands[name]; ok {
			commands = append(commands, cmd)
		}
	}
	return commands
}

// Names returns command names in registration order.
func (cr CommandRegistry) Names() []string {
	return append([]string(nil), cr.order...)
}

// Messages delivered by command handlers. Handlers mutate stores
// synchronously inside Update and only hand results back through these.

type showHelpMsg struct{ commands []Command }
type sessionListMsg struct{ content string }
type sessionLoadedMsg struct{ session *Session }
type sessionRenamedMsg struct{ session *Session }
type commandErrMsg struct{ err error }
type reconfigureMsg struct{}
type newSessionMsg struct{}
type memoryNoticeMsg struct{ content string }

func handleHelpCommand(model *AppModel, args []string) tea.Cmd {
	commands := model.registry.GetAllCommands()
	return func() tea.Msg {
		return showHelpMsg{commands: commands}
	}
}

func handleConfigCommand(model *AppModel, args []string) tea.Cmd {
	return func() tea.Msg {
		return reconfigureMsg{}
	}
}

func handleClearCommand(model *AppModel, args []string) tea.Cmd {
	return func() tea.Msg {
		return newSessionMsg{}
	}
}

func handleHistoryCommand(model *AppModel, args []string) tea.Cmd {
	limit := model.config.History.ListLimit
	if len(args) > 0 && args[0] == "all" {
		limit = 0
	}
	content := FormatSessionList(model.store.List(), limit)
	return func() tea.Msg {
		return sessionListMsg{content: content}
	}
}

func handleLoadCommand(model *AppModel, args []string) tea.Cmd {
	if len(args) == 0 {
		return commandErr(fmt.Errorf("usage: /load <session-id>"))
	}
	sess, err := model.store.Load(args[0])
	if err != nil {
		return commandErr(fmt.Errorf("failed to load %q: %w", args[0], err))
	}
	return func() tea.Msg {
		return sessionLoadedMsg{session: sess}
	}
}

func handleRenameCommand(model *AppModel, args []string) tea.Cmd {
	if len(args) == 0 {
		return commandErr(fmt.Errorf("usage: /rename <new-name>"))
	}
	active := model.store.ActiveID()
	if active == "" {
		return commandErr(fmt.Errorf("no active session to rename"))
	}
	sess, err := model.store.Rename(active, strings.Join(args, " "))
	if err != nil {
		return commandErr(err)
	}
	return func() tea.Msg {
		return sessionRenamedMsg{session: sess}
	}
}

func handleQuitCommand(model *AppModel, args []string) tea.Cmd {
	return tea.Quit
}

func handleRememberCommand(model *AppModel, args []string) tea.Cmd {
	if len(args) == 0 {
		return commandErr(fmt.Errorf("usage: /remember <fact>"))
	}
	entry, err := model.memory.Append(strings.Join(args, " "))
	if err != nil {
		return commandErr(err)
	}
	return func() tea.Msg {
		return memoryNoticeMsg{content: fmt.Sprintf("Remembered: %s", entry.Text)}
	}
}

func handleMemoryCommand(model *AppModel, args []string) tea.Cmd {
	entries, err := model.memory.Search(strings.Join(args, " "))
	if err != nil {
		return commandErr(err)
	}
	content := FormatMemoryList(entries)
	return func() tea.Msg {
		return memoryNoticeMsg{content: content}
	}
}

func handleForgetCommand(model *AppModel, args []string) tea.Cmd {
	if len(args) == 0 {
		return commandErr(fmt.Errorf("usage: /forget <number>"))
	}
	entry, err := resolveMemoryIndex(model.memory, args[0])
	if err != nil {
		return commandErr(err)
	}
	if err := model.memory.Forget(entry.ID); err != nil {
		return commandErr(err)
	}
	return func() tea.Msg {
		return memoryNoticeMsg{content: fmt.Sprintf("Forgot: %s", entry.Text)}
	}
}

func handleAmendCommand(model *AppModel, args []string) tea.Cmd {
	if len(args) < 2 {
		return commandErr(fmt.Errorf("usage: /amend <number> <new text>"))
	}
	entry, err := resolveMemoryIndex(model.memory, args[0])
	if err != nil {
		return commandErr(err)
	}
	updated, err := model.memory.Replace(entry.ID, strings.Join(args[1:], " "))
	if err != nil {
		return commandErr(err)
	}
	return func() tea.Msg {
		return memoryNoticeMsg{content: fmt.Sprintf("Amended: %s", updated.Text)}
	}
}

// resolveMemoryIndex maps a 1-based number from the /memory listing to
// its entry.
func resolveMemoryIndex(memory *MemoryLog, arg string) (MemoryEntry, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return MemoryEntry{}, fmt.Errorf("expected an entry number from /memory, got %q", arg)
	}
	entries, err := memory.All()
	if err != nil {
		return MemoryEntry{}, err
	}
	if n > len(entries) {
		return MemoryEntry{}, fmt.Errorf("no memory entry %d, the log has %d", n, len(entries))
	}
	return entries[n-1], nil
}

func commandErr(err error) tea.Cmd {
	return func() tea.Msg {
		return commandErrMsg{err: err}
	}
}

// FormatHelp renders the command list for /help.
func FormatHelp(commands []Command) string {
	var b strings.Builder
	b.WriteString("Available commands:\n\n")
	for _, cmd := range commands {
		b.WriteString(fmt.Sprintf("  %-10s %s\n", cmd.Name, cmd.Description))
	}
	b.WriteString("\nAnything else you type is sent to the model.")
	return b.String()
}
