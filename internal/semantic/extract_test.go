package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntitiesQuotedFirst(t *testing.T) {
	entities := ExtractEntities(`Who are the "Neo4j" neighbors of Acme Corp?`)
	assert.Equal(t, "Neo4j", entities[0])
	assert.Contains(t, entities, "Acme Corp")
}

func TestExtractEntitiesCapitalizedNGrams(t *testing.T) {
	entities := ExtractEntities("Is New York Stock Exchange connected to Acme?")
	assert.Contains(t, entities, "New York Stock Exchange")
	assert.Contains(t, entities, "Acme")
}

func TestExtractEntitiesLongTokens(t *testing.T) {
	entities := ExtractEntities("what links derivative to counterparty?")
	assert.Contains(t, entities, "derivative")
	assert.Contains(t, entities, "counterparty")
}

func TestExtractEntitiesRejectsStopwords(t *testing.T) {
	entities := ExtractEntities("What is the graph about?")
	assert.NotContains(t, entities, "What")
	assert.NotContains(t, entities, "the")
	assert.NotContains(t, entities, "graph")
}

func TestExtractEntitiesDedups(t *testing.T) {
	entities := ExtractEntities(`"Acme" and Acme again`)
	count := 0
	for _, e := range entities {
		if e == "Acme" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{`"Neo4j" neighbors`, RouteLPG},
		{"show the ontology classes", RouteRDF},
		{"which nodes share a subclass in the ontology", RouteHybrid},
		{"tell me about Acme", RouteLPG},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Route(tt.question), tt.question)
	}
}

func TestLexicalRatio(t *testing.T) {
	assert.Equal(t, 1.0, lexicalRatio("Neo4j", "neo4j"))
	assert.Equal(t, 0.0, lexicalRatio("", "x"))
	assert.Greater(t, lexicalRatio("Acme Corp", "Acme Corporation"), 0.6)
	assert.Less(t, lexicalRatio("Acme", "Globex"), 0.4)
}
