package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/verifix/backend/internal/domain/providers"
	tsclient "github.com/verifix/backend/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements the question index on top of a Typesense
// collection with an embedding vector field.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.QuestionIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// EnsureCollection creates the questions collection if it does not exist.
func (a *TypesenseAdapter) EnsureCollection(ctx context.Context, dimension int) error {
	return a.client.InitSchema(ctx, dimension)
}

// Upsert indexes a question with its embedding.
func (a *TypesenseAdapter) Upsert(ctx context.Context, questionID, text, solutionID string, embedding []float32) error {
	document := map[string]interface{}{
		"id":          questionID,
		"text":        text,
		"solution_id": solutionID,
		"embedding":   embedding,
		"created_at":  time.Now().Unix(),
	}

	_, err := a.client.Client().Collection(tsclient.QuestionsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index question: %w", err)
	}

	return nil
}

// Search runs a nearest-neighbor query over question embeddings and
// returns hits with cosine similarity scores, best first. Typesense
// reports cosine distance, so similarity is 1 - distance.
func (a *TypesenseAdapter) Search(ctx context.Context, embedding []float32, k int) ([]providers.QuestionHit, error) {
	if k <= 0 {
		k = 5
	}

	searchParams := &api.SearchCollectionParams{
		Q:           pointer.String("*"),
		VectorQuery: pointer.String(buildVectorQuery(embedding, k)),
		PerPage:     pointer.Int(k),
	}

	result, err := a.client.Client().Collection(tsclient.QuestionsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search questions: %w", err)
	}

	hits := []providers.QuestionHit{}
	if result.Hits == nil {
		return hits, nil
	}

	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document

		questionID, _ := doc["id"].(string)
		text, _ := doc["text"].(string)
		solutionID, _ := doc["solution_id"].(string)

		score := 0.0
		if hit.VectorDistance != nil {
			score = 1 - float64(*hit.VectorDistance)
		}

		hits = append(hits, providers.QuestionHit{
			QuestionID: questionID,
			Text:       text,
			SolutionID: solutionID,
			Score:      score,
		})
	}

	return hits, nil
}

// DeleteBySolutionID removes every indexed question pointing at a solution.
func (a *TypesenseAdapter) DeleteBySolutionID(ctx context.Context, solutionID string) error {
	filter := fmt.Sprintf("solution_id:=%s", solutionID)
	_, err := a.client.Client().Collection(tsclient.QuestionsCollection).Documents().Delete(ctx, &api.DeleteDocumentsParams{
		FilterBy: pointer.String(filter),
	})
	if err != nil {
		return fmt.Errorf("failed to delete questions from index: %w", err)
	}
	return nil
}

func buildVectorQuery(embedding []float32, k int) string {
	var sb strings.Builder
	sb.WriteString("embedding:([")
	for i, v := range embedding {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteString("], k:")
	sb.WriteString(strconv.Itoa(k))
	sb.WriteString(")")
	return sb.String()
}
