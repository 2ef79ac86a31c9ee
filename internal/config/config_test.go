package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SEOCHO_LLM_MOCK", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMModel)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 0.2, cfg.RelatednessThreshold)
	assert.Equal(t, 60*time.Second, cfg.WorkerTimeout)
	assert.Equal(t, 100, cfg.SessionMaxTurns)
	assert.True(t, cfg.LLMMock)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SEOCHO_LLM_MOCK", "true")
	t.Setenv("SEOCHO_PORT", "9090")
	t.Setenv("SEOCHO_WORKER_TIMEOUT", "90s")
	t.Setenv("SEOCHO_RELATEDNESS_THRESHOLD", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.WorkerTimeout)
	assert.Equal(t, 0.5, cfg.RelatednessThreshold)
}

func TestValidateRequiresAPIKeyWithoutMock(t *testing.T) {
	t.Setenv("SEOCHO_LLM_MOCK", "false")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	t.Setenv("SEOCHO_LLM_MOCK", "true")
	t.Setenv("SEOCHO_RELATEDNESS_THRESHOLD", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEOCHO_RELATEDNESS_THRESHOLD")
}

func TestInvalidEnvValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("SEOCHO_LLM_MOCK", "true")
	t.Setenv("SEOCHO_PORT", "not-a-number")
	t.Setenv("SEOCHO_READ_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
}
