package entities

import (
	"time"
)

// Question is an indexed, searchable restatement of a technician's
// problem. Questions are created once alongside their solution and
// never mutated.
type Question struct {
	ID         string    `json:"id" db:"id"`
	Text       string    `json:"text" db:"text"`
	Embedding  []float32 `json:"-" db:"embedding"`
	SolutionID string    `json:"solution_id" db:"solution_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Match is a transient projection of a question/score pair returned by
// similarity retrieval. It is never persisted.
type Match struct {
	QuestionID string  `json:"question_id"`
	Text       string  `json:"text"`
	SolutionID string  `json:"solution_id"`
	Score      float64 `json:"score"`
}
