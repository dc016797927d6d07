package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tmc/langchaingo/llms"
)

// Application states. Setup runs the wizard, connect probes the endpoint,
// chat is the conversation loop.
type appState int

const (
	stateSetup appState = iota
	stateConnect
	stateChat
)

const baseSystemPrompt = "You are a helpful assistant running in a terminal. Answer in markdown."

type probeResultMsg struct{ err error }

type tickMsg time.Time

// AppModel is the bubbletea model for the whole application.
type AppModel struct {
	config *Config
	state  appState
	width  int
	height int

	theme    *Theme
	status   StatusComponent
	prompt   PromptComponent
	chat     ChatComponent
	spinner  spinner.Model
	suggest  SuggestionEngine
	registry CommandRegistry
	toasts   ToastManager
	wizard   SetupWizard
	renderer *Renderer

	store         *SessionStore
	memory        *MemoryLog
	promptHistory *HistoryStore

	llm          llms.Model
	systemPrompt string
	transcript   []ChatMessage
	waiting      bool
	connectErr   error
}

// NewAppModel wires the stores and components together. The caller decides
// the starting state: setup when the config is incomplete, connect
// otherwise.
func NewAppModel(config *Config, store *SessionStore, memory *MemoryLog, promptHistory *HistoryStore) *AppModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &AppModel{
		config:        config,
		theme:         NewTheme(),
		status:        NewStatusComponent(80),
		prompt:        NewPromptComponent(80),
		chat:          NewChatComponent(80, 20),
		spinner:       sp,
		registry:      NewCommandRegistry(),
		toasts:        NewToastManager(),
		renderer:      NewRenderer(76),
		store:         store,
		memory:        memory,
		promptHistory: promptHistory,
	}
	m.suggest = NewSuggestionEngine(m.registry.Names())

	if entries, err := promptHistory.Load(); err == nil {
		prompts := make([]string, 0, len(entries))
		for _, entry := range entries {
			prompts = append(prompts, entry.Prompt)
		}
		m.prompt.SetHistory(prompts)
	}

	if config.IsComplete() {
		m.state = stateConnect
	} else {
		m.state = stateSetup
		m.wizard = NewSetupWizard(config.LLM)
	}
	return m
}

func (m *AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tickCmd()}
	if m.state == stateConnect {
		cmds = append(cmds, m.probeCmd(), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *AppModel) probeCmd() tea.Cmd {
	config := m.config
	return func() tea.Msg {
		return probeResultMsg{err: probeEndpoint(context.Background(), config)}
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		if m.state == stateChat {
			var cmd tea.Cmd
			m.chat, cmd = m.chat.Update(msg)
			return m, cmd
		}
		return m, nil
	case tickMsg:
		m.toasts = m.toasts.Update()
		return m, tickCmd()
	case spinner.TickMsg:
		if !m.waiting && m.state != stateConnect {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m.handleCustomMessages(msg)
}

func (m *AppModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.chat.SetWidth(width - 2)
	m.chat.SetHeight(height - 7)
	m.prompt.SetWidth(width - 2)
	m.status.SetWidth(width)
	m.renderer.SetWidth(width - 6)
}

func (m *AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case stateSetup:
		var cmd tea.Cmd
		m.wizard, cmd = m.wizard.Update(msg)
		return m, cmd
	case stateConnect:
		return m.handleConnectKey(msg)
	default:
		return m.handleChatKey(msg)
	}
}

// handleConnectKey only matters once the probe failed: retry, change the
// configuration, or quit.
func (m *AppModel) handleConnectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.connectErr == nil {
		return m, nil
	}
	switch msg.String() {
	case "r":
		m.connectErr = nil
		return m, tea.Batch(m.probeCmd(), m.spinner.Tick)
	case "c":
		m.connectErr = nil
		m.state = stateSetup
		m.wizard = NewSetupWizard(m.config.LLM)
		return m, textinput.Blink
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *AppModel) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.handleEnterKey()
	case "tab":
		if m.prompt.CursorAtEnd() {
			if remainder := m.suggest.Accept(); remainder != "" {
				m.prompt.SetValue(m.prompt.Value() + remainder)
				m.prompt.SetGhost("")
			}
		}
		return m, nil
	case "right":
		// Right at the end of the line accepts the suggestion; anywhere
		// else it stays cursor movement.
		if m.prompt.CursorAtEnd() {
			if remainder := m.suggest.Accept(); remainder != "" {
				m.prompt.SetValue(m.prompt.Value() + remainder)
				m.prompt.SetGhost("")
				return m, nil
			}
		}
	case "up":
		if m.prompt.RecallPrev() {
			m.clearSuggestion()
		}
		return m, nil
	case "down":
		if m.prompt.RecallNext() {
			m.clearSuggestion()
		}
		return m, nil
	case "esc":
		m.prompt.Reset()
		m.clearSuggestion()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	refresh := m.suggest.Refresh(m.prompt.Value())
	m.prompt.SetGhost(m.suggest.Text())
	return m, tea.Batch(cmd, refresh)
}

func (m *AppModel) clearSuggestion() {
	m.suggest.Clear()
	m.prompt.SetGhost("")
}

func (m *AppModel) handleEnterKey() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.prompt.Value())
	if input == "" {
		return m, nil
	}

	// Bare exit words work like their slash forms.
	if input == "exit" || input == "quit" {
		return m, tea.Quit
	}

	if m.waiting {
		m.toasts.AddToast("Still waiting for the model", toastWarning, 3*time.Second)
		return m, nil
	}

	if err := m.promptHistory.Append(input); err != nil {
		slog.Warn("failed to persist prompt history", "error", err)
	}
	m.prompt.PushHistory(input)
	m.prompt.Reset()
	m.clearSuggestion()

	if strings.HasPrefix(input, commandLeader) {
		fields := strings.Fields(input)
		if cmd, ok := m.registry.GetCommand(fields[0]); ok {
			m.chat.AddRendered(m.theme.RenderUser("You: " + input).String())
			return m, cmd.Handler(m, fields[1:])
		}
		// Unknown commands go to the model like any other message.
	}
	return m, m.sendChat(input)
}

// sendChat persists the user turn before the model call so an interrupted
// generation never loses it.
func (m *AppModel) sendChat(text string) tea.Cmd {
	m.transcript = append(m.transcript, ChatMessage{Role: roleUser, Content: text})
	if err := m.store.Append(m.transcript); err != nil {
		slog.Warn("failed to persist user turn", "error", err)
	}
	m.chat.AddRendered(m.theme.RenderUser("You: " + text).String())
	m.waiting = true
	m.status.StartWaiting()
	m.status.SetSession(m.store.ActiveID(), len(m.transcript))
	return tea.Batch(m.spinner.Tick, askCmd(m.llm, m.systemPrompt, m.transcript))
}

// startSession creates the LLM client and a fresh session record, then
// enters the chat loop.
func (m *AppModel) startSession() (tea.Model, tea.Cmd) {
	llm, err := newLLMClient(m.config)
	if err != nil {
		m.connectErr = err
		m.state = stateConnect
		return m, nil
	}
	m.llm = llm
	m.refreshSystemPrompt()

	if _, err := m.store.Create(); err != nil {
		slog.Error("failed to create session", "error", err)
		m.toasts.AddToast(fmt.Sprintf("Sessions unavailable: %v", err), toastError, 5*time.Second)
	}
	m.transcript = nil
	m.state = stateChat
	m.status.SetProvider(m.config.LLM.Provider, m.config.LLM.Model, true)
	m.status.SetSession(m.store.ActiveID(), 0)
	m.prompt.Focus()
	return m, textinput.Blink
}

func (m *AppModel) refreshSystemPrompt() {
	prompt := baseSystemPrompt
	if section := m.memory.SystemPromptSection(); section != "" {
		prompt += "\n\n" + section
	}
	m.systemPrompt = prompt
}

func (m *AppModel) handleCustomMessages(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wizardDoneMsg:
		m.config.LLM = msg.config
		if err := SaveConfig(m.config); err != nil {
			slog.Error("failed to save config", "error", err)
			m.toasts.AddToast(fmt.Sprintf("Failed to save config: %v", err), toastError, 5*time.Second)
		}
		m.state = stateConnect
		m.connectErr = nil
		return m, tea.Batch(m.probeCmd(), m.spinner.Tick)

	case probeResultMsg:
		if msg.err != nil {
			m.connectErr = msg.err
			return m, nil
		}
		return m.startSession()

	case reconfigureMsg:
		m.state = stateSetup
		m.wizard = NewSetupWizard(m.config.LLM)
		return m, textinput.Blink

	case newSessionMsg:
		m.chat.Clear()
		m.transcript = nil
		m.refreshSystemPrompt()
		if _, err := m.store.Create(); err != nil {
			slog.Error("failed to create session", "error", err)
		}
		m.status.SetSession(m.store.ActiveID(), 0)
		return m, nil

	case sessionLoadedMsg:
		m.replaySession(msg.session)
		return m, nil

	case sessionRenamedMsg:
		m.status.SetSession(msg.session.ID, len(m.transcript))
		m.toasts.AddToast("Renamed to "+msg.session.ID, toastSuccess, 3*time.Second)
		return m, nil

	case sessionListMsg:
		m.chat.AddMessage(msg.content)
		return m, nil

	case showHelpMsg:
		m.chat.AddMessage(FormatHelp(msg.commands))
		return m, nil

	case memoryNoticeMsg:
		m.chat.AddMessage(msg.content)
		return m, nil

	case commandErrMsg:
		m.toasts.AddToast(msg.err.Error(), toastError, 5*time.Second)
		return m, nil

	case generationResultMsg:
		m.waiting = false
		m.status.StopWaiting()
		m.transcript = append(m.transcript, ChatMessage{Role: roleAssistant, Content: msg.answer})
		if err := m.store.Append(m.transcript); err != nil {
			slog.Warn("failed to persist assistant turn", "error", err)
		}
		m.chat.AddRendered(m.renderer.AssistantBlock(msg.thinking, msg.answer))
		m.status.SetSession(m.store.ActiveID(), len(m.transcript))
		return m, nil

	case generationErrMsg:
		m.waiting = false
		m.status.StopWaiting()
		slog.Error("generation failed", "error", msg.err)
		m.chat.AddMessage("Error: " + msg.err.Error())
		return m, nil

	case suggestRevealMsg:
		m.suggest.Reveal(msg)
		m.prompt.SetGhost(m.suggest.Text())
		return m, nil
	}
	return m, nil
}

// replaySession swaps the live transcript for a stored one and re-renders
// every turn.
func (m *AppModel) replaySession(sess *Session) {
	m.chat.Clear()
	m.transcript = append([]ChatMessage(nil), sess.Messages...)
	m.refreshSystemPrompt()
	for _, turn := range m.transcript {
		if turn.Role == roleUser {
			m.chat.AddRendered(m.theme.RenderUser("You: " + turn.Content).String())
		} else {
			m.chat.AddRendered(m.renderer.Markdown(turn.Content))
		}
	}
	m.status.SetSession(sess.ID, len(m.transcript))
	m.toasts.AddToast("Resumed session "+sess.ID, toastSuccess, 3*time.Second)
}

func (m *AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var view string
	switch m.state {
	case stateSetup:
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.wizard.View())
	case stateConnect:
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.connectView())
	default:
		view = lipgloss.JoinVertical(
			lipgloss.Left,
			m.chat.View(),
			m.prompt.View(),
			m.status.View(),
		)
	}

	if toastView := m.toasts.View(); toastView != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, view, toastView)
	}
	return view
}

func (m *AppModel) connectView() string {
	endpoint := m.config.LLM.BaseURL
	if endpoint == "" {
		endpoint = defaultBaseURL(m.config.LLM.Provider)
	}
	if m.connectErr == nil {
		return fmt.Sprintf("%s Connecting to %s ...", m.spinner.View(), endpoint)
	}
	errLine := lipgloss.NewStyle().Foreground(m.theme.Error).Render(m.connectErr.Error())
	return errLine + "\n\nPress r to retry, c to change the configuration, q to quit."
}
