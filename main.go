package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/tmc/langchaingo/llms"
	"gopkg.in/natefinch/lumberjack.v2"
)

type runCmd struct{}

type versionCmd struct{}

var cli struct {
	Version versionCmd `cmd:"version" help:"Print version information"`
	Prompt  string     `short:"p" help:"Send a single prompt and print the reply"`
	Run     runCmd     `cmd:"" default:"1" help:"Run the interactive chat"`
}

func initLogger(level string) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("failed to get user home directory: %w", err))
	}

	logDir := filepath.Join(homeDir, ".local", "share", "tern")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		panic(fmt.Errorf("failed to create log directory %s: %w", logDir, err))
	}

	// Log rotation via lumberjack; stdout stays free for the TUI.
	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "tern.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, opts)))
}

func (v versionCmd) Run() error {
	fmt.Println("tern v0.1.0")
	return nil
}

func (r *runCmd) Run() error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Println("This program requires a terminal to run.")
		return nil
	}

	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := NewSessionStore()
	if err != nil {
		return fmt.Errorf("failed to open session storage: %w", err)
	}
	memory, err := NewMemoryLog()
	if err != nil {
		return fmt.Errorf("failed to open memory log: %w", err)
	}
	promptHistory, err := NewHistoryStore(config.History.MaxPrompts)
	if err != nil {
		return fmt.Errorf("failed to open prompt history: %w", err)
	}

	model := NewAppModel(config, store, memory, promptHistory)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}

// runOneShot sends a single prompt and prints the answer to stdout. The
// exchange lands in the session store like any interactive turn, so
// /load can pick it up later.
func runOneShot(prompt string) error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !config.IsComplete() {
		return fmt.Errorf("no endpoint configured; run interactively first to set one up")
	}

	llm, err := newLLMClient(config)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	store, err := NewSessionStore()
	if err != nil {
		return fmt.Errorf("failed to open session storage: %w", err)
	}

	return oneShot(os.Stdout, llm, store, prompt, isatty.IsTerminal(os.Stdout.Fd()))
}

// oneShot runs the exchange against an already wired client and store.
// Reasoning blocks are dropped. When stdout is a terminal the answer is
// rendered as markdown; pipes get the plain text.
func oneShot(w io.Writer, llm llms.Model, store *SessionStore, prompt string, pretty bool) error {
	if _, err := store.Create(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	transcript := []ChatMessage{{Role: roleUser, Content: prompt}}
	if err := store.Append(transcript); err != nil {
		return fmt.Errorf("failed to persist prompt: %w", err)
	}

	msg := askCmd(llm, baseSystemPrompt, transcript)()
	switch result := msg.(type) {
	case generationResultMsg:
		if err := store.Append(append(transcript, ChatMessage{Role: roleAssistant, Content: result.answer})); err != nil {
			return fmt.Errorf("failed to persist answer: %w", err)
		}
		out := result.answer
		if pretty {
			out = NewRenderer(80).Markdown(result.answer)
		}
		fmt.Fprintln(w, strings.TrimRight(out, "\n"))
		return nil
	case generationErrMsg:
		return result.err
	default:
		return fmt.Errorf("unexpected result type %T", msg)
	}
}

func main() {
	ctx := kong.Parse(&cli)

	level := "info"
	if cfg, err := LoadConfig(); err == nil {
		level = cfg.Logging.Level
	}
	initLogger(level)

	if cli.Prompt != "" {
		if err := runOneShot(cli.Prompt); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
