package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwrapsChains(t *testing.T) {
	inner := Errorf(KindInfrastructure, "connection reset")
	wrapped := fmt.Errorf("query failed: %w", inner)

	assert.Equal(t, KindInfrastructure, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.True(t, IsRetriable(wrapped))
}

func TestOnlyInfrastructureRetries(t *testing.T) {
	for _, kind := range []ErrorKind{KindConfiguration, KindValidation, KindPermission, KindPipeline, KindParse, KindNotFound, KindUnknown} {
		assert.False(t, IsRetriable(Errorf(kind, "x")), string(kind))
	}
	assert.True(t, IsRetriable(Errorf(KindInfrastructure, "x")))
}

func TestStatusFor(t *testing.T) {
	cases := map[ErrorKind]int{
		KindConfiguration:  http.StatusBadRequest,
		KindValidation:     http.StatusUnprocessableEntity,
		KindPipeline:       http.StatusUnprocessableEntity,
		KindParse:          http.StatusUnprocessableEntity,
		KindPermission:     http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindInfrastructure: http.StatusBadGateway,
		KindUnknown:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(kind), string(kind))
	}
}

func TestNewErrorNilPassthrough(t *testing.T) {
	assert.Nil(t, NewError(KindPipeline, nil))
}

func TestValidLabel(t *testing.T) {
	assert.True(t, ValidLabel("Company"))
	assert.True(t, ValidLabel("_internal"))
	assert.True(t, ValidLabel("Rel_Type2"))
	assert.False(t, ValidLabel(""))
	assert.False(t, ValidLabel("2fast"))
	assert.False(t, ValidLabel("has space"))
	assert.False(t, ValidLabel("drop;table"))
	assert.False(t, ValidLabel("back`tick"))
}

func TestGraphValidate(t *testing.T) {
	good := Graph{
		Nodes:         []Node{{ID: "a", Label: "Company"}},
		Relationships: []Relationship{{Source: "a", Target: "a", Type: "SELF"}},
	}
	assert.NoError(t, good.Validate())

	badNode := Graph{Nodes: []Node{{ID: "a", Label: "Bad Label"}}}
	assert.Error(t, badNode.Validate())

	badRel := Graph{Relationships: []Relationship{{Source: "a", Target: "b", Type: "bad type"}}}
	assert.Error(t, badRel.Validate())
}

func TestNodeNameFallsBackToID(t *testing.T) {
	named := Node{ID: "n1", Properties: map[string]any{"name": "Acme"}}
	assert.Equal(t, "Acme", named.Name())

	unnamed := Node{ID: "n2"}
	assert.Equal(t, "n2", unnamed.Name())
}

func TestDebateResultFailed(t *testing.T) {
	assert.True(t, DebateResult{Response: "Error: timeout"}.Failed())
	assert.False(t, DebateResult{Response: "42 nodes"}.Failed())
	assert.False(t, DebateResult{Response: "No error found in data"}.Failed())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
