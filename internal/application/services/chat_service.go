package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verifix/backend/internal/domain/providers"
	"github.com/verifix/backend/internal/domain/repositories"
	apperrors "github.com/verifix/backend/pkg/errors"
)

const chatPromptTemplate = `You are a helpful assistant that can answer questions about the solutions in the database.
The solutions are stored in the database and are indexed for vector similarity.
The solutions are: %s
The question is: %s
The response should be in the same language as the question.
The response should be helpful and informative.`

// ChatService answers free-form questions grounded on the stored
// solution corpus.
type ChatService struct {
	solutions repositories.SolutionRepository
	llm       providers.LanguageModel
}

// NewChatService creates a new chat service
func NewChatService(solutions repositories.SolutionRepository, llm providers.LanguageModel) *ChatService {
	return &ChatService{solutions: solutions, llm: llm}
}

// Chat answers a question using the full solution list as context.
func (s *ChatService) Chat(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperrors.NewValidationError("question must not be empty", nil)
	}

	solutions, err := s.solutions.List(ctx)
	if err != nil {
		return "", err
	}

	corpus, err := json.Marshal(solutions)
	if err != nil {
		return "", err
	}

	reply, err := s.llm.Generate(ctx, fmt.Sprintf(chatPromptTemplate, string(corpus), question))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(reply), nil
}
