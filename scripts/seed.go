package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/verifix/backend/internal/adapters/database"
	"github.com/verifix/backend/internal/adapters/search"
	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/infrastructure/clients/openai"
	"github.com/verifix/backend/internal/infrastructure/clients/postgres"
	"github.com/verifix/backend/internal/infrastructure/clients/typesense"
	"github.com/verifix/backend/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS solutions (
	id              UUID PRIMARY KEY,
	title           TEXT NOT NULL UNIQUE,
	text            TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	solution_steps  TEXT[] NOT NULL DEFAULT '{}',
	verified        BOOLEAN NOT NULL DEFAULT FALSE,
	confidence      TEXT NOT NULL DEFAULT '0',
	manufacturer    TEXT NOT NULL DEFAULT '',
	machine_name    TEXT NOT NULL DEFAULT '',
	machine_type    TEXT NOT NULL DEFAULT '',
	model_number    TEXT NOT NULL DEFAULT '',
	component       TEXT NOT NULL DEFAULT '',
	error_code      TEXT NOT NULL DEFAULT '',
	resolution_type TEXT NOT NULL DEFAULT '',
	downtime_impact TEXT NOT NULL DEFAULT '',
	plant_name      TEXT NOT NULL DEFAULT '',
	department      TEXT NOT NULL DEFAULT '',
	safety_related  BOOLEAN NOT NULL DEFAULT FALSE,
	tags            TEXT[] NOT NULL DEFAULT '{}',
	links           JSONB NOT NULL DEFAULT '[]',
	document_link   TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'created',
	inventory_id    UUID,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS questions (
	id          UUID PRIMARY KEY,
	text        TEXT NOT NULL,
	embedding   JSONB NOT NULL DEFAULT '[]',
	solution_id UUID NOT NULL REFERENCES solutions(id) ON DELETE CASCADE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS inventory (
	id               UUID PRIMARY KEY,
	solution_id      UUID NOT NULL REFERENCES solutions(id) ON DELETE CASCADE,
	manufacturer     TEXT NOT NULL DEFAULT '',
	model_name       TEXT NOT NULL DEFAULT '',
	component_type   TEXT NOT NULL DEFAULT '',
	firmware_version TEXT NOT NULL DEFAULT '',
	specifications   JSONB NOT NULL DEFAULT '{}',
	metadata         JSONB NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_questions_solution_id ON questions(solution_id);
CREATE INDEX IF NOT EXISTS idx_inventory_solution_id ON inventory(solution_id);
CREATE INDEX IF NOT EXISTS idx_solutions_status ON solutions(status);
`

type seedEntry struct {
	question string
	solution entities.Solution
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	log.Println("Schema ensured")

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				inventory,
				questions,
				solutions
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	var index *search.TypesenseAdapter
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Typesense unavailable, seeding without index: %v", err)
	} else {
		index = search.NewTypesenseAdapter(tsClient)
		if err := index.EnsureCollection(ctx, cfg.Embedding.Dimension); err != nil {
			log.Printf("Warning: failed to ensure questions collection: %v", err)
		}
	}

	var embedder *openai.EmbeddingClient
	if index != nil {
		embedder, err = openai.NewEmbeddingClient(&cfg.Embedding)
		if err != nil {
			log.Printf("Warning: embedding service unavailable, seeding without index: %v", err)
			index = nil
		}
	}

	solutionRepo := database.NewSolutionAdapter(pgClient)
	questionRepo := database.NewQuestionAdapter(pgClient)

	now := time.Now()
	entries := []seedEntry{
		{
			question: "Haas VF-2: spindle drive fault alarm 160 after power cycle",
			solution: entities.Solution{
				Title:          "Haas VF-2: spindle drive fault alarm 160 after power cycle",
				Text:           "Alarm 160 indicates low voltage to the spindle drive. Most often a failing bus capacitor bank or loose DC bus connection on the vector drive.",
				Description:    "Spindle drive reports low voltage on startup",
				SolutionSteps:  []string{"Power down and lock out the machine", "Inspect the DC bus connections on the vector drive", "Measure bus capacitor bank voltage ripple", "Replace the capacitor bank if ripple exceeds spec", "Clear the alarm and test run the spindle"},
				Manufacturer:   "Haas",
				MachineName:    "VF-2",
				MachineType:    "CNC Mill",
				Component:      "Vector Drive",
				ErrorCode:      "160",
				ResolutionType: "repair",
				DowntimeImpact: "high",
			},
		},
		{
			question: "Kuka KR6 robot drifts from taught positions after mastering",
			solution: entities.Solution{
				Title:          "Kuka KR6 robot drifts from taught positions after mastering",
				Text:           "Position drift after mastering usually means the resolver reference was lost. Re-master each axis with the EMD tool and verify the robot calibration data matches the controller backup.",
				Description:    "Taught positions no longer match actual tool position",
				SolutionSteps:  []string{"Check mastering marks on all six axes", "Re-master drifted axes with the EMD", "Verify $ROBCAL data against the controller backup", "Re-teach base and tool frames if drift persists"},
				Manufacturer:   "Kuka",
				MachineName:    "KR6",
				MachineType:    "Industrial Robot",
				Component:      "Resolver",
				ResolutionType: "adjustment",
				DowntimeImpact: "medium",
			},
		},
		{
			question: "Siemens S7-1200 PLC loses Profinet connection to remote IO intermittently",
			solution: entities.Solution{
				Title:          "Siemens S7-1200 PLC loses Profinet connection to remote IO intermittently",
				Text:           "Intermittent Profinet drops on an S7-1200 are usually cabling or update-time related. Check shield grounding on the Profinet runs and increase the IO device watchdog time.",
				Description:    "Remote IO rack drops off Profinet under load",
				SolutionSteps:  []string{"Inspect Profinet cable shields and connector seating", "Check for ground loops between cabinets", "Increase the watchdog time for the affected IO device", "Move high-noise cabling away from the Profinet run"},
				Manufacturer:   "Siemens",
				MachineName:    "S7-1200",
				MachineType:    "PLC",
				Component:      "Profinet Interface",
				ResolutionType: "configuration",
				DowntimeImpact: "low",
			},
		},
	}

	seeded := 0
	for _, entry := range entries {
		solution := entry.solution
		solution.ID = uuid.New().String()
		solution.Verified = true
		solution.Confidence = "100"
		solution.Status = entities.StatusComplete
		solution.CreatedAt = now
		solution.UpdatedAt = now

		if err := solutionRepo.Create(ctx, &solution); err != nil {
			log.Printf("Failed to create solution %q: %v", solution.Title, err)
			continue
		}

		question := &entities.Question{
			ID:         uuid.New().String(),
			Text:       entry.question,
			SolutionID: solution.ID,
			CreatedAt:  now,
		}

		if embedder != nil {
			embedding, err := embedder.Embed(ctx, entry.question)
			if err != nil {
				log.Printf("Failed to embed question %q: %v", entry.question, err)
			} else {
				question.Embedding = embedding
			}
		}

		if err := questionRepo.Create(ctx, question); err != nil {
			log.Printf("Failed to create question %q: %v", entry.question, err)
			continue
		}

		if index != nil && len(question.Embedding) > 0 {
			if err := index.Upsert(ctx, question.ID, question.Text, solution.ID, question.Embedding); err != nil {
				log.Printf("Failed to index question %q: %v", entry.question, err)
			}
		}

		seeded++
	}

	log.Printf("Seeding completed: %d solutions", seeded)
}
