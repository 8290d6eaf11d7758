package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "verifix", cfg.Database.Database)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
	assert.Equal(t, 0.75, cfg.Retrieval.MatchThreshold)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "0.5")
	t.Setenv("EMBEDDING_DIM", "768")
	t.Setenv("DB_NAME", "verifix_test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Retrieval.MatchThreshold)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.Equal(t, "verifix_test", cfg.Database.Database)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "u",
		Password: "p",
		Database: "verifix",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=verifix sslmode=disable", cfg.DatabaseDSN())
}
