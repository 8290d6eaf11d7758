package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/internal/domain/entities"
)

func TestChatGroundsOnStoredSolutions(t *testing.T) {
	solutions := newStubSolutionRepo()
	require.NoError(t, solutions.Create(context.Background(), &entities.Solution{
		ID: "sol-1", Title: "Replace worn drive belt", Status: entities.StatusComplete,
	}))

	var seenPrompt string
	llm := &stubLLM{generate: func(prompt string) (string, error) {
		seenPrompt = prompt
		return "You should replace the drive belt.", nil
	}}

	svc := NewChatService(solutions, llm)
	reply, err := svc.Chat(context.Background(), "what about belt problems?")
	require.NoError(t, err)
	assert.Equal(t, "You should replace the drive belt.", reply)
	assert.True(t, strings.Contains(seenPrompt, "Replace worn drive belt"))
	assert.True(t, strings.Contains(seenPrompt, "what about belt problems?"))
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	svc := NewChatService(newStubSolutionRepo(), &stubLLM{generate: func(string) (string, error) { return "", nil }})

	_, err := svc.Chat(context.Background(), "  ")
	assert.Error(t, err)
}
