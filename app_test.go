package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"
)

func newChatApp(t *testing.T, responses []string) *AppModel {
	t.Helper()
	app := newTestApp(t)

	// Skip the probe and enter the chat state directly.
	model, _ := app.startSession()
	app = model.(*AppModel)
	require.Equal(t, stateChat, app.state)
	if len(responses) > 0 {
		app.llm = fake.NewFakeLLM(responses)
	}
	app.resize(100, 30)
	return app
}

func TestNewAppModel_StartsInSetupWithoutConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewSessionStore()
	require.NoError(t, err)
	memory, err := NewMemoryLog()
	require.NoError(t, err)
	history, err := NewHistoryStore(100)
	require.NoError(t, err)

	config := defaultConfig()
	app := NewAppModel(&config, store, memory, history)
	assert.Equal(t, stateSetup, app.state)

	config.LLM = LLMConfig{Provider: "fake", Model: "fake"}
	app = NewAppModel(&config, store, memory, history)
	assert.Equal(t, stateConnect, app.state)
}

func TestHandleEnterKey_EmptyInputIsIgnored(t *testing.T) {
	app := newChatApp(t, nil)

	app.prompt.SetValue("   ")
	_, cmd := app.handleEnterKey()
	assert.Nil(t, cmd)
	assert.Empty(t, app.transcript)
}

func TestHandleEnterKey_BareExitQuits(t *testing.T) {
	app := newChatApp(t, nil)

	for _, word := range []string{"exit", "quit"} {
		app.prompt.SetValue(word)
		_, cmd := app.handleEnterKey()
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestHandleEnterKey_UnknownCommandGoesToModel(t *testing.T) {
	app := newChatApp(t, []string{"no such command, but ok"})

	app.prompt.SetValue("/frobnicate")
	_, cmd := app.handleEnterKey()
	require.NotNil(t, cmd)

	require.Len(t, app.transcript, 1)
	assert.Equal(t, roleUser, app.transcript[0].Role)
	assert.Equal(t, "/frobnicate", app.transcript[0].Content)
	assert.True(t, app.waiting)
}

func TestSendChat_PersistsUserTurnBeforeGeneration(t *testing.T) {
	app := newChatApp(t, []string{"reply"})

	app.prompt.SetValue("hello there")
	_, cmd := app.handleEnterKey()
	require.NotNil(t, cmd)

	// The user turn must already be on disk, before any result arrives.
	sess, err := app.store.Load(app.store.ActiveID())
	require.NoError(t, err)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, "hello there", sess.Messages[0].Content)
}

func TestGenerationResult_AppendsAndPersists(t *testing.T) {
	app := newChatApp(t, nil)
	app.transcript = []ChatMessage{{Role: roleUser, Content: "2+2?"}}
	app.waiting = true

	model, _ := app.Update(generationResultMsg{thinking: "math", answer: "4"})
	app = model.(*AppModel)

	assert.False(t, app.waiting)
	require.Len(t, app.transcript, 2)
	assert.Equal(t, roleAssistant, app.transcript[1].Role)
	assert.Equal(t, "4", app.transcript[1].Content)

	sess, err := app.store.Load(app.store.ActiveID())
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 2)
}

func TestGenerationError_KeepsUserTurn(t *testing.T) {
	app := newChatApp(t, nil)
	app.transcript = []ChatMessage{{Role: roleUser, Content: "hi"}}
	require.NoError(t, app.store.Append(app.transcript))
	app.waiting = true

	model, _ := app.Update(generationErrMsg{err: assert.AnError})
	app = model.(*AppModel)

	assert.False(t, app.waiting)
	sess, err := app.store.Load(app.store.ActiveID())
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 1, "the failed turn's prompt stays persisted")
}

func TestEnterWhileWaitingIsRejected(t *testing.T) {
	app := newChatApp(t, nil)
	app.waiting = true

	app.prompt.SetValue("impatient follow-up")
	_, cmd := app.handleEnterKey()
	assert.Nil(t, cmd)
	assert.Empty(t, app.transcript)
	assert.NotEmpty(t, app.toasts.Toasts, "the user gets told to wait")
	assert.Equal(t, "impatient follow-up", app.prompt.Value(), "typed input is not thrown away")
}

func TestNewSessionMsg_ResetsTranscript(t *testing.T) {
	app := newChatApp(t, nil)
	firstID := app.store.ActiveID()
	app.transcript = []ChatMessage{{Role: roleUser, Content: "old"}}

	model, _ := app.Update(newSessionMsg{})
	app = model.(*AppModel)

	assert.Empty(t, app.transcript)
	assert.NotEqual(t, firstID, app.store.ActiveID(), "clear starts a fresh session record")
}

func TestSessionLoadedMsg_ReplaysTranscript(t *testing.T) {
	app := newChatApp(t, nil)

	stored := &Session{
		ID: "older-session",
		Messages: []ChatMessage{
			{Role: roleUser, Content: "ping"},
			{Role: roleAssistant, Content: "pong"},
		},
	}
	model, _ := app.Update(sessionLoadedMsg{session: stored})
	app = model.(*AppModel)

	require.Len(t, app.transcript, 2)
	assert.Equal(t, "older-session", app.status.SessionID)
}

func TestReconfigureMsg_ReturnsToSetup(t *testing.T) {
	app := newChatApp(t, nil)

	model, _ := app.Update(reconfigureMsg{})
	app = model.(*AppModel)
	assert.Equal(t, stateSetup, app.state)
}

func TestTypedPrefixGhostsImmediately(t *testing.T) {
	app := newChatApp(t, nil)

	app.prompt.SetValue("/he")
	cmd := app.suggest.Refresh("/he")
	app.prompt.SetGhost(app.suggest.Text())
	assert.Nil(t, cmd, "a typed prefix must not wait on a timer")
	assert.Contains(t, app.prompt.View(), "lp")
}

func TestBareLeaderRevealFlowsToGhost(t *testing.T) {
	app := newChatApp(t, nil)

	app.prompt.SetValue("/")
	cmd := app.suggest.Refresh("/")
	require.NotNil(t, cmd)
	assert.Empty(t, app.suggest.Text())

	model, _ := app.Update(suggestRevealMsg{seq: app.suggest.seq})
	app = model.(*AppModel)
	assert.Equal(t, "help", app.suggest.Text())
	assert.Contains(t, app.prompt.View(), "help")
}

func TestTabAcceptsSuggestion(t *testing.T) {
	app := newChatApp(t, nil)

	app.prompt.SetValue("/he")
	app.suggest.Refresh("/he")
	app.suggest.Reveal(suggestRevealMsg{seq: app.suggest.seq})

	model, _ := app.handleChatKey(tea.KeyMsg{Type: tea.KeyTab})
	app = model.(*AppModel)
	assert.Equal(t, "/help", app.prompt.Value())
}
