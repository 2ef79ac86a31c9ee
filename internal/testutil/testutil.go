// Package testutil holds the shared test doubles: a scripted graph
// connector and helpers for scripting the language-model mock.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/seocho-ai/seocho/internal/model"
)

// QueryRule maps queries containing Match (per database, empty Database
// matches all) to canned rows or an error.
type QueryRule struct {
	Database string
	Match    string
	Rows     []map[string]any
	Err      error
}

// QueryCall records one connector invocation.
type QueryCall struct {
	Database string
	Query    string
	Params   map[string]any
}

// FakeConnector is a scripted graph.Connector. Rules are checked in
// order; the first match wins. Unmatched queries return no rows.
type FakeConnector struct {
	mu    sync.Mutex
	Rules []QueryRule
	Calls []QueryCall
}

// NewFakeConnector creates a connector scripted with rules.
func NewFakeConnector(rules ...QueryRule) *FakeConnector {
	return &FakeConnector{Rules: rules}
}

// Run matches the query against the scripted rules.
func (f *FakeConnector) Run(ctx context.Context, database, query string, params map[string]any) ([]map[string]any, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, QueryCall{Database: database, Query: query, Params: params})
	rules := make([]QueryRule, len(f.Rules))
	copy(rules, f.Rules)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, model.NewError(model.KindInfrastructure, err)
	}
	for _, rule := range rules {
		if rule.Database != "" && rule.Database != database {
			continue
		}
		if rule.Match != "" && !strings.Contains(query, rule.Match) {
			continue
		}
		if rule.Err != nil {
			return nil, rule.Err
		}
		return rule.Rows, nil
	}
	return nil, nil
}

// CallCount returns how many queries contained match, across databases.
func (f *FakeConnector) CallCount(match string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.Calls {
		if strings.Contains(call.Query, match) {
			n++
		}
	}
	return n
}

// AddRule prepends a rule so it takes priority over existing ones.
func (f *FakeConnector) AddRule(rule QueryRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Rules = append([]QueryRule{rule}, f.Rules...)
}
