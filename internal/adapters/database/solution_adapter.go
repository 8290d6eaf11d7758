package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/repositories"
	"github.com/verifix/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/verifix/backend/pkg/errors"
)

const uniqueViolation = "23505"

// SolutionAdapter implements solution persistence in Postgres.
type SolutionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSolutionAdapter creates a new solution adapter.
func NewSolutionAdapter(client *postgres.Client) repositories.SolutionRepository {
	return &SolutionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func solutionRecord(solution *entities.Solution) (goqu.Record, error) {
	linksBytes, err := json.Marshal(solution.Links)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal links: %w", err)
	}

	return goqu.Record{
		"id":              solution.ID,
		"title":           solution.Title,
		"text":            solution.Text,
		"description":     solution.Description,
		"solution_steps":  pq.Array(solution.SolutionSteps),
		"verified":        solution.Verified,
		"confidence":      solution.Confidence,
		"manufacturer":    solution.Manufacturer,
		"machine_name":    solution.MachineName,
		"machine_type":    solution.MachineType,
		"model_number":    solution.ModelNumber,
		"component":       solution.Component,
		"error_code":      solution.ErrorCode,
		"resolution_type": solution.ResolutionType,
		"downtime_impact": solution.DowntimeImpact,
		"plant_name":      solution.PlantName,
		"department":      solution.Department,
		"safety_related":  solution.SafetyRelated,
		"tags":            pq.Array(solution.Tags),
		"links":           linksBytes,
		"document_link":   solution.DocumentLink,
		"status":          string(solution.Status),
		"inventory_id":    sql.NullString{String: solution.InventoryID, Valid: solution.InventoryID != ""},
		"created_at":      solution.CreatedAt,
		"updated_at":      solution.UpdatedAt,
	}, nil
}

var solutionColumns = []interface{}{
	"id", "title", "text", "description", "solution_steps", "verified",
	"confidence", "manufacturer", "machine_name", "machine_type",
	"model_number", "component", "error_code", "resolution_type",
	"downtime_impact", "plant_name", "department", "safety_related",
	"tags", "links", "document_link", "status", "inventory_id",
	"created_at", "updated_at",
}

func scanSolution(scanner interface{ Scan(...interface{}) error }) (*entities.Solution, error) {
	solution := &entities.Solution{}
	var linksRaw []byte
	var inventoryID sql.NullString
	var status string

	err := scanner.Scan(
		&solution.ID,
		&solution.Title,
		&solution.Text,
		&solution.Description,
		pq.Array(&solution.SolutionSteps),
		&solution.Verified,
		&solution.Confidence,
		&solution.Manufacturer,
		&solution.MachineName,
		&solution.MachineType,
		&solution.ModelNumber,
		&solution.Component,
		&solution.ErrorCode,
		&solution.ResolutionType,
		&solution.DowntimeImpact,
		&solution.PlantName,
		&solution.Department,
		&solution.SafetyRelated,
		pq.Array(&solution.Tags),
		&linksRaw,
		&solution.DocumentLink,
		&status,
		&inventoryID,
		&solution.CreatedAt,
		&solution.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	solution.Status = entities.SolutionStatus(status)
	solution.InventoryID = inventoryID.String
	if len(linksRaw) > 0 {
		_ = json.Unmarshal(linksRaw, &solution.Links)
	}

	return solution, nil
}

// Create inserts a solution. A duplicate title surfaces as a conflict.
func (a *SolutionAdapter) Create(ctx context.Context, solution *entities.Solution) error {
	record, err := solutionRecord(solution)
	if err != nil {
		return apperrors.NewInternalError("failed to build solution record", err)
	}

	query, args, err := a.db.Insert("solutions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build solution insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewConflictError(fmt.Sprintf("solution %q already exists", solution.Title))
		}
		return apperrors.NewInternalError("failed to create solution", err)
	}

	return nil
}

// GetByID retrieves a solution by ID.
func (a *SolutionAdapter) GetByID(ctx context.Context, id string) (*entities.Solution, error) {
	query, args, err := a.db.From("solutions").
		Select(solutionColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build solution select query", err)
	}

	solution, err := scanSolution(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("solution with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get solution", err)
	}

	return solution, nil
}

// List retrieves all solutions, newest first.
func (a *SolutionAdapter) List(ctx context.Context) ([]*entities.Solution, error) {
	return a.list(ctx, 0)
}

// ListRecent retrieves the most recently updated solutions.
func (a *SolutionAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.Solution, error) {
	if limit <= 0 {
		limit = 10
	}
	return a.list(ctx, limit)
}

func (a *SolutionAdapter) list(ctx context.Context, limit int) ([]*entities.Solution, error) {
	ds := a.db.From("solutions").
		Select(solutionColumns...).
		Order(goqu.C("updated_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build solution list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list solutions", err)
	}
	defer rows.Close()

	solutions := []*entities.Solution{}
	for rows.Next() {
		solution, err := scanSolution(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan solution", err)
		}
		solutions = append(solutions, solution)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating solutions", err)
	}

	return solutions, nil
}

// Update replaces the mutable fields of a solution.
func (a *SolutionAdapter) Update(ctx context.Context, solution *entities.Solution) error {
	solution.UpdatedAt = time.Now()

	record, err := solutionRecord(solution)
	if err != nil {
		return apperrors.NewInternalError("failed to build solution record", err)
	}
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("solutions").
		Set(record).
		Where(goqu.C("id").Eq(solution.ID)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build solution update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update solution", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("solution with id %s not found", solution.ID))
	}

	return nil
}

// UpdateStatus updates only the lifecycle status of a solution.
func (a *SolutionAdapter) UpdateStatus(ctx context.Context, id string, status entities.SolutionStatus) error {
	query, args, err := a.db.Update("solutions").
		Set(goqu.Record{
			"status":     string(status),
			"updated_at": time.Now(),
		}).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update solution status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("solution with id %s not found", id))
	}

	return nil
}

// Delete removes a solution.
func (a *SolutionAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("solutions").
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build solution delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete solution", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("solution with id %s not found", id))
	}

	return nil
}
