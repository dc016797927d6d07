package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"
)

func TestOneShotPersistsSession(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewSessionStore()
	require.NoError(t, err)
	llm := fake.NewFakeLLM([]string{"<think>recalling geography</think>Lima."})

	var out bytes.Buffer
	require.NoError(t, oneShot(&out, llm, store, "Capital of Peru?", false))
	assert.Equal(t, "Lima.\n", out.String(), "pipes get the bare answer, reasoning dropped")

	sessions := store.List()
	require.Len(t, sessions, 1)
	sess, err := store.Load(sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, roleUser, sess.Messages[0].Role)
	assert.Equal(t, "Capital of Peru?", sess.Messages[0].Content)
	assert.Equal(t, roleAssistant, sess.Messages[1].Role)
	assert.Equal(t, "Lima.", sess.Messages[1].Content)
}

func TestOneShotRendersForTerminal(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewSessionStore()
	require.NoError(t, err)
	llm := fake.NewFakeLLM([]string{"The answer is **42**."})

	var out bytes.Buffer
	require.NoError(t, oneShot(&out, llm, store, "hi", true))
	assert.Contains(t, out.String(), "42")
	assert.NotContains(t, out.String(), "**", "markdown markers are rendered away")
}

func TestOneShotBlankReplyKeepsPromptOnly(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewSessionStore()
	require.NoError(t, err)
	llm := fake.NewFakeLLM([]string{""})

	var out bytes.Buffer
	err = oneShot(&out, llm, store, "hi", false)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no usable output"))

	sessions := store.List()
	require.Len(t, sessions, 1)
	sess, err := store.Load(sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 1, "only the prompt is persisted when generation fails")
	assert.Equal(t, roleUser, sess.Messages[0].Role)
}
