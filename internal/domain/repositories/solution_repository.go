package repositories

import (
	"context"

	"github.com/verifix/backend/internal/domain/entities"
)

// SolutionRepository defines the interface for solution data operations
type SolutionRepository interface {
	// Create creates a new solution and returns its id
	Create(ctx context.Context, solution *entities.Solution) error

	// GetByID retrieves a solution by ID
	GetByID(ctx context.Context, id string) (*entities.Solution, error)

	// List retrieves all solutions, newest first
	List(ctx context.Context) ([]*entities.Solution, error)

	// ListRecent retrieves the most recent solutions
	ListRecent(ctx context.Context, limit int) ([]*entities.Solution, error)

	// Update replaces the mutable fields of a solution
	Update(ctx context.Context, solution *entities.Solution) error

	// UpdateStatus updates only the lifecycle status of a solution
	UpdateStatus(ctx context.Context, id string, status entities.SolutionStatus) error

	// Delete deletes a solution
	Delete(ctx context.Context, id string) error
}
