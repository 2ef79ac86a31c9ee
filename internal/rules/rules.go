// Package rules implements profile inference over a graph payload,
// validation of graphs against a profile, and exports to Cypher DDL
// and a SHACL-like document with Turtle serialization.
package rules

import (
	"fmt"
	"sort"

	"github.com/seocho-ai/seocho/internal/model"
)

// SchemaVersion tags persisted rule profiles.
const SchemaVersion = "rules.v1"

// Rule kinds.
const (
	KindRequired = "required"
	KindDatatype = "datatype"
	KindEnum     = "enum"
	KindRange    = "range"
)

// Datatypes recognized by inference.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Rule is one constraint on a (label, property) pair.
type Rule struct {
	Label        string   `json:"label"`
	Property     string   `json:"property"`
	Kind         string   `json:"kind"`
	Datatype     string   `json:"datatype,omitempty"`
	Values       []string `json:"values,omitempty"`
	MinInclusive *float64 `json:"min_inclusive,omitempty"`
	MaxInclusive *float64 `json:"max_inclusive,omitempty"`
}

// RuleSet is an inferred or loaded rule profile.
type RuleSet struct {
	SchemaVersion string `json:"schema_version"`
	Rules         []Rule `json:"rules"`
}

// Options tune inference thresholds.
type Options struct {
	CompletenessThreshold float64
	EnumMax               int
	EnumRatio             float64
}

// DefaultOptions are the standard inference thresholds.
func DefaultOptions() Options {
	return Options{CompletenessThreshold: 0.98, EnumMax: 20, EnumRatio: 0.2}
}

type propStats struct {
	label     string
	property  string
	total     int
	present   int
	uniques   map[string]int
	types     map[string]int
	numMin    float64
	numMax    float64
	hasNumber bool
}

// Infer aggregates property values per (label, property) and derives
// required, datatype, enum, and range rules.
func Infer(g model.Graph, opts Options) RuleSet {
	if opts.CompletenessThreshold == 0 {
		opts = DefaultOptions()
	}

	labelCounts := map[string]int{}
	stats := map[string]*propStats{}
	for _, node := range g.Nodes {
		labelCounts[node.Label]++
		for prop, value := range node.Properties {
			if value == nil {
				continue
			}
			key := node.Label + "|" + prop
			st, ok := stats[key]
			if !ok {
				st = &propStats{label: node.Label, property: prop, uniques: map[string]int{}, types: map[string]int{}}
				stats[key] = st
			}
			st.present++
			st.uniques[fmt.Sprint(value)]++
			t := datatypeOf(value)
			st.types[t]++
			if n, ok := toNumber(value); ok {
				if !st.hasNumber || n < st.numMin {
					st.numMin = n
				}
				if !st.hasNumber || n > st.numMax {
					st.numMax = n
				}
				st.hasNumber = true
			}
		}
	}

	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rs := RuleSet{SchemaVersion: SchemaVersion}
	for _, key := range keys {
		st := stats[key]
		st.total = labelCounts[st.label]

		if st.total > 0 && float64(st.present)/float64(st.total) >= opts.CompletenessThreshold {
			rs.Rules = append(rs.Rules, Rule{Label: st.label, Property: st.property, Kind: KindRequired})
		}

		dominant := dominantType(st.types)
		if dominant != "" {
			rs.Rules = append(rs.Rules, Rule{Label: st.label, Property: st.property, Kind: KindDatatype, Datatype: dominant})
		}

		// Floor of 2 so small samples with few distinct values still
		// yield an enum rule.
		enumLimit := int(opts.EnumRatio * float64(st.total))
		if enumLimit < 2 {
			enumLimit = 2
		}
		unique := len(st.uniques)
		if unique > 0 && unique <= opts.EnumMax && unique <= enumLimit {
			values := make([]string, 0, unique)
			for v := range st.uniques {
				values = append(values, v)
			}
			sort.Strings(values)
			rs.Rules = append(rs.Rules, Rule{Label: st.label, Property: st.property, Kind: KindEnum, Values: values})
		}

		if st.hasNumber && (dominant == TypeInteger || dominant == TypeNumber) {
			lo, hi := st.numMin, st.numMax
			rs.Rules = append(rs.Rules, Rule{Label: st.label, Property: st.property, Kind: KindRange, MinInclusive: &lo, MaxInclusive: &hi})
		}
	}
	return rs
}

// Merge appends rules from other, skipping (label, property, kind)
// duplicates already present in rs.
func (rs RuleSet) Merge(other RuleSet) RuleSet {
	seen := map[string]bool{}
	for _, r := range rs.Rules {
		seen[r.Label+"|"+r.Property+"|"+r.Kind] = true
	}
	merged := rs
	for _, r := range other.Rules {
		key := r.Label + "|" + r.Property + "|" + r.Kind
		if !seen[key] {
			seen[key] = true
			merged.Rules = append(merged.Rules, r)
		}
	}
	return merged
}

// ForLabel returns the rules targeting label.
func (rs RuleSet) ForLabel(label string) []Rule {
	var out []Rule
	for _, r := range rs.Rules {
		if r.Label == label {
			out = append(out, r)
		}
	}
	return out
}

func datatypeOf(v any) string {
	switch x := v.(type) {
	case bool:
		return TypeBoolean
	case int, int32, int64:
		return TypeInteger
	case float32:
		return floatType(float64(x))
	case float64:
		return floatType(x)
	default:
		return TypeString
	}
}

// floatType treats whole-valued floats as integers; JSON decoding turns
// every number into float64.
func floatType(f float64) string {
	if f == float64(int64(f)) {
		return TypeInteger
	}
	return TypeNumber
}

func dominantType(types map[string]int) string {
	best, bestCount := "", 0
	names := make([]string, 0, len(types))
	for t := range types {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		if types[t] > bestCount {
			best, bestCount = t, types[t]
		}
	}
	return best
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
