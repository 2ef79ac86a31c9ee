// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Graph store settings.
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// LM settings.
	GeminiAPIKey   string
	LLMModel       string
	EmbeddingModel string
	LLMMock        bool // scripted LM responses, for local verification

	// Auth settings. An empty secret disables auth (dev mode).
	JWTSecret     string
	JWTExpiration time.Duration

	// Semantic layer settings.
	OntologyHintsPath   string
	RuleProfileDir      string
	SemanticArtifactDir string

	// Ingest settings.
	RelatednessThreshold  float64
	EnableRuleConstraints bool

	// Orchestration deadlines.
	WorkerTimeout    time.Duration
	SynthesisTimeout time.Duration

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64
	SessionMaxTurns     int
	MCPStdio            bool // serve MCP over stdio instead of HTTP
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                  envInt("SEOCHO_PORT", 8080),
		ReadTimeout:           envDuration("SEOCHO_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:          envDuration("SEOCHO_WRITE_TIMEOUT", 120*time.Second),
		Neo4jURI:              envStr("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:             envStr("NEO4J_USER", "neo4j"),
		Neo4jPassword:         envStr("NEO4J_PASSWORD", ""),
		GeminiAPIKey:          envStr("GEMINI_API_KEY", ""),
		LLMModel:              envStr("SEOCHO_LLM_MODEL", "gemini-2.5-flash"),
		EmbeddingModel:        envStr("SEOCHO_EMBEDDING_MODEL", "gemini-embedding-001"),
		LLMMock:               envBool("SEOCHO_LLM_MOCK", false),
		JWTSecret:             envStr("SEOCHO_JWT_SECRET", ""),
		JWTExpiration:         envDuration("SEOCHO_JWT_EXPIRATION", 24*time.Hour),
		OntologyHintsPath:     envStr("ONTOLOGY_HINTS_PATH", "output/ontology_hints.json"),
		RuleProfileDir:        envStr("SEOCHO_RULE_PROFILE_DIR", "outputs/rule_profiles"),
		SemanticArtifactDir:   envStr("SEOCHO_SEMANTIC_ARTIFACT_DIR", "outputs/semantic_artifacts"),
		RelatednessThreshold:  envFloat("SEOCHO_RELATEDNESS_THRESHOLD", 0.2),
		EnableRuleConstraints: envBool("SEOCHO_ENABLE_RULE_CONSTRAINTS", true),
		WorkerTimeout:         envDuration("SEOCHO_WORKER_TIMEOUT", 60*time.Second),
		SynthesisTimeout:      envDuration("SEOCHO_SYNTHESIS_TIMEOUT", 45*time.Second),
		OTELEndpoint:          envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:          envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:           envStr("OTEL_SERVICE_NAME", "seocho"),
		LogLevel:              envStr("SEOCHO_LOG_LEVEL", "info"),
		MaxRequestBodyBytes:   int64(envInt("SEOCHO_MAX_REQUEST_BODY_BYTES", 4*1024*1024)),
		SessionMaxTurns:       envInt("SEOCHO_SESSION_MAX_TURNS", 100),
		MCPStdio:              envBool("SEOCHO_MCP_STDIO", false),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.Neo4jURI == "" {
		return fmt.Errorf("config: NEO4J_URI is required")
	}
	if !c.LLMMock && c.GeminiAPIKey == "" {
		return fmt.Errorf("config: GEMINI_API_KEY is required unless SEOCHO_LLM_MOCK is set")
	}
	if c.RelatednessThreshold < 0 || c.RelatednessThreshold > 1 {
		return fmt.Errorf("config: SEOCHO_RELATEDNESS_THRESHOLD must be in [0, 1]")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: SEOCHO_MAX_REQUEST_BODY_BYTES must be positive")
	}
	if c.SessionMaxTurns <= 0 {
		return fmt.Errorf("config: SEOCHO_SESSION_MAX_TURNS must be positive")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
