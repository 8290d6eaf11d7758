package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/repositories"
	"github.com/verifix/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/verifix/backend/pkg/errors"
)

// InventoryAdapter implements inventory persistence in Postgres.
type InventoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewInventoryAdapter creates a new inventory adapter.
func NewInventoryAdapter(client *postgres.Client) repositories.InventoryRepository {
	return &InventoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var inventoryColumns = []interface{}{
	"id", "solution_id", "manufacturer", "model_name", "component_type",
	"firmware_version", "specifications", "metadata", "created_at",
}

func scanInventory(scanner interface{ Scan(...interface{}) error }) (*entities.Inventory, error) {
	inventory := &entities.Inventory{}
	var specsRaw, metadataRaw []byte

	err := scanner.Scan(
		&inventory.ID,
		&inventory.SolutionID,
		&inventory.Manufacturer,
		&inventory.ModelName,
		&inventory.ComponentType,
		&inventory.FirmwareVersion,
		&specsRaw,
		&metadataRaw,
		&inventory.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(specsRaw) > 0 {
		_ = json.Unmarshal(specsRaw, &inventory.Specifications)
	}
	if len(metadataRaw) > 0 {
		_ = json.Unmarshal(metadataRaw, &inventory.Metadata)
	}

	return inventory, nil
}

// Create inserts an inventory record.
func (a *InventoryAdapter) Create(ctx context.Context, inventory *entities.Inventory) error {
	specsBytes, err := json.Marshal(inventory.Specifications)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal specifications", err)
	}
	metadataBytes, err := json.Marshal(inventory.Metadata)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal metadata", err)
	}

	record := goqu.Record{
		"id":               inventory.ID,
		"solution_id":      inventory.SolutionID,
		"manufacturer":     inventory.Manufacturer,
		"model_name":       inventory.ModelName,
		"component_type":   inventory.ComponentType,
		"firmware_version": inventory.FirmwareVersion,
		"specifications":   specsBytes,
		"metadata":         metadataBytes,
		"created_at":       inventory.CreatedAt,
	}

	query, args, err := a.db.Insert("inventory").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build inventory insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create inventory", err)
	}

	return nil
}

// GetByID retrieves an inventory record by ID.
func (a *InventoryAdapter) GetByID(ctx context.Context, id string) (*entities.Inventory, error) {
	return a.get(ctx, goqu.Ex{"id": id}, fmt.Sprintf("inventory with id %s not found", id))
}

// GetBySolutionID retrieves the inventory record linked to a solution.
func (a *InventoryAdapter) GetBySolutionID(ctx context.Context, solutionID string) (*entities.Inventory, error) {
	return a.get(ctx, goqu.Ex{"solution_id": solutionID},
		fmt.Sprintf("no inventory for solution %s", solutionID))
}

func (a *InventoryAdapter) get(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.Inventory, error) {
	query, args, err := a.db.From("inventory").
		Select(inventoryColumns...).
		Where(where).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build inventory select query", err)
	}

	inventory, err := scanInventory(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get inventory", err)
	}

	return inventory, nil
}

// DeleteBySolutionID removes the inventory record linked to a solution.
func (a *InventoryAdapter) DeleteBySolutionID(ctx context.Context, solutionID string) error {
	query, args, err := a.db.Delete("inventory").
		Where(goqu.C("solution_id").Eq(solutionID)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build inventory delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete inventory", err)
	}

	return nil
}
