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

// QuestionAdapter implements question persistence in Postgres. The
// embedding is stored alongside the text so the search index can be
// rebuilt without re-embedding.
type QuestionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewQuestionAdapter creates a new question adapter.
func NewQuestionAdapter(client *postgres.Client) repositories.QuestionRepository {
	return &QuestionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var questionColumns = []interface{}{
	"id", "text", "embedding", "solution_id", "created_at",
}

func scanQuestion(scanner interface{ Scan(...interface{}) error }) (*entities.Question, error) {
	question := &entities.Question{}
	var embeddingRaw []byte

	err := scanner.Scan(
		&question.ID,
		&question.Text,
		&embeddingRaw,
		&question.SolutionID,
		&question.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(embeddingRaw) > 0 {
		_ = json.Unmarshal(embeddingRaw, &question.Embedding)
	}

	return question, nil
}

// Create inserts a question with its embedding.
func (a *QuestionAdapter) Create(ctx context.Context, question *entities.Question) error {
	embeddingBytes, err := json.Marshal(question.Embedding)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal embedding", err)
	}

	record := goqu.Record{
		"id":          question.ID,
		"text":        question.Text,
		"embedding":   embeddingBytes,
		"solution_id": question.SolutionID,
		"created_at":  question.CreatedAt,
	}

	query, args, err := a.db.Insert("questions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build question insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create question", err)
	}

	return nil
}

// GetByID retrieves a question by ID.
func (a *QuestionAdapter) GetByID(ctx context.Context, id string) (*entities.Question, error) {
	query, args, err := a.db.From("questions").
		Select(questionColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build question select query", err)
	}

	question, err := scanQuestion(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("question with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get question", err)
	}

	return question, nil
}

// List retrieves all questions, newest first.
func (a *QuestionAdapter) List(ctx context.Context) ([]*entities.Question, error) {
	return a.list(ctx, goqu.Ex{})
}

// ListBySolutionID retrieves all questions linked to a solution.
func (a *QuestionAdapter) ListBySolutionID(ctx context.Context, solutionID string) ([]*entities.Question, error) {
	return a.list(ctx, goqu.Ex{"solution_id": solutionID})
}

func (a *QuestionAdapter) list(ctx context.Context, where goqu.Ex) ([]*entities.Question, error) {
	query, args, err := a.db.From("questions").
		Select(questionColumns...).
		Where(where).
		Order(goqu.C("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build question list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list questions", err)
	}
	defer rows.Close()

	questions := []*entities.Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan question", err)
		}
		questions = append(questions, question)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating questions", err)
	}

	return questions, nil
}

// DeleteBySolutionID removes all questions linked to a solution.
func (a *QuestionAdapter) DeleteBySolutionID(ctx context.Context, solutionID string) error {
	query, args, err := a.db.Delete("questions").
		Where(goqu.C("solution_id").Eq(solutionID)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build question delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete questions", err)
	}

	return nil
}
