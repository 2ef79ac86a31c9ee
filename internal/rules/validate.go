package rules

import (
	"fmt"

	"github.com/seocho-ai/seocho/internal/model"
)

// Violation is one failed constraint on a node.
type Violation struct {
	Rule     string `json:"rule"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

// Summary aggregates validation over a graph.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Apply validates every node against the profile and annotates the
// graph in place: each node gets a rule_validation property, the caller
// gets the graph-level summary for rule_validation_summary.
func Apply(g *model.Graph, rs RuleSet) Summary {
	summary := Summary{Total: len(g.Nodes)}
	for i := range g.Nodes {
		node := &g.Nodes[i]
		violations := validateNode(*node, rs.ForLabel(node.Label))

		status := "passed"
		if len(violations) > 0 {
			status = "failed"
			summary.Failed++
		} else {
			summary.Passed++
		}
		if node.Properties == nil {
			node.Properties = map[string]any{}
		}
		node.Properties["rule_validation"] = map[string]any{
			"status":     status,
			"violations": violations,
		}
	}
	return summary
}

func validateNode(node model.Node, nodeRules []Rule) []Violation {
	violations := []Violation{}
	for _, rule := range nodeRules {
		value, present := node.Properties[rule.Property]
		if value == nil {
			present = false
		}
		switch rule.Kind {
		case KindRequired:
			if !present || value == "" {
				violations = append(violations, Violation{
					Rule: KindRequired, Property: rule.Property,
					Message: fmt.Sprintf("property %q is required", rule.Property),
				})
			}
		case KindDatatype:
			if present && datatypeOf(value) != rule.Datatype {
				violations = append(violations, Violation{
					Rule: KindDatatype, Property: rule.Property,
					Message: fmt.Sprintf("property %q expected %s, got %s", rule.Property, rule.Datatype, datatypeOf(value)),
				})
			}
		case KindEnum:
			if present && !contains(rule.Values, fmt.Sprint(value)) {
				violations = append(violations, Violation{
					Rule: KindEnum, Property: rule.Property,
					Message: fmt.Sprintf("value %q is not in the allowed set", fmt.Sprint(value)),
				})
			}
		case KindRange:
			if !present {
				break
			}
			n, ok := toNumber(value)
			if !ok {
				violations = append(violations, Violation{
					Rule: KindRange, Property: rule.Property,
					Message: fmt.Sprintf("property %q is not numeric", rule.Property),
				})
				break
			}
			if rule.MinInclusive != nil && n < *rule.MinInclusive {
				violations = append(violations, Violation{
					Rule: KindRange, Property: rule.Property,
					Message: fmt.Sprintf("value %v is below the minimum %v", n, *rule.MinInclusive),
				})
			}
			if rule.MaxInclusive != nil && n > *rule.MaxInclusive {
				violations = append(violations, Violation{
					Rule: KindRange, Property: rule.Property,
					Message: fmt.Sprintf("value %v is above the maximum %v", n, *rule.MaxInclusive),
				})
			}
		}
	}
	return violations
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
