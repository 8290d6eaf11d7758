package repositories

import (
	"context"

	"github.com/verifix/backend/internal/domain/entities"
)

// QuestionRepository defines the interface for question data operations
type QuestionRepository interface {
	// Create creates a new question with its embedding
	Create(ctx context.Context, question *entities.Question) error

	// GetByID retrieves a question by ID
	GetByID(ctx context.Context, id string) (*entities.Question, error)

	// List retrieves all questions
	List(ctx context.Context) ([]*entities.Question, error)

	// ListBySolutionID retrieves all questions linked to a solution
	ListBySolutionID(ctx context.Context, solutionID string) ([]*entities.Question, error)

	// DeleteBySolutionID removes all questions linked to a solution
	DeleteBySolutionID(ctx context.Context, solutionID string) error
}
