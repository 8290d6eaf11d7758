package repositories

import (
	"context"

	"github.com/verifix/backend/internal/domain/entities"
)

// InventoryRepository defines the interface for inventory data operations
type InventoryRepository interface {
	// Create creates a new inventory record
	Create(ctx context.Context, inventory *entities.Inventory) error

	// GetByID retrieves an inventory record by ID
	GetByID(ctx context.Context, id string) (*entities.Inventory, error)

	// GetBySolutionID retrieves the inventory record linked to a solution
	GetBySolutionID(ctx context.Context, solutionID string) (*entities.Inventory, error)

	// DeleteBySolutionID removes the inventory record linked to a solution
	DeleteBySolutionID(ctx context.Context, solutionID string) error
}
