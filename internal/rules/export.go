package rules

import (
	"fmt"
	"sort"
	"strings"
)

// CypherExport is the DDL translation of a profile. Only required rules
// map to database constraints; the rest are reported untranslated.
type CypherExport struct {
	Statements       []string `json:"statements"`
	UnsupportedRules []Rule   `json:"unsupported_rules"`
}

// ExportCypher renders required rules as NOT NULL existence constraints.
func ExportCypher(rs RuleSet) CypherExport {
	out := CypherExport{Statements: []string{}, UnsupportedRules: []Rule{}}
	for _, r := range rs.Rules {
		if r.Kind != KindRequired {
			out.UnsupportedRules = append(out.UnsupportedRules, r)
			continue
		}
		name := fmt.Sprintf("%s_%s_required", strings.ToLower(r.Label), strings.ToLower(r.Property))
		out.Statements = append(out.Statements, fmt.Sprintf(
			"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:`%s`) REQUIRE n.`%s` IS NOT NULL",
			name, r.Label, r.Property))
	}
	return out
}

// PropertyShape is one SHACL-like property term.
type PropertyShape struct {
	Path       string         `json:"path"`
	Constraint string         `json:"constraint"`
	Params     map[string]any `json:"params,omitempty"`
}

// NodeShape groups the property shapes for one target class.
type NodeShape struct {
	TargetClass string          `json:"target_class"`
	Properties  []PropertyShape `json:"properties"`
}

// ShaclExport is the structured SHACL-like document plus its Turtle
// serialization. Both carry the same shape identities and property
// term sets.
type ShaclExport struct {
	Shapes []NodeShape `json:"shapes"`
	Turtle string      `json:"turtle"`
}

var xsdTypes = map[string]string{
	TypeString:  "xsd:string",
	TypeInteger: "xsd:integer",
	TypeNumber:  "xsd:decimal",
	TypeBoolean: "xsd:boolean",
}

// ExportShacl maps each rule to a property-shape term, grouped by label.
func ExportShacl(rs RuleSet) ShaclExport {
	byLabel := map[string][]PropertyShape{}
	for _, r := range rs.Rules {
		shape := PropertyShape{Path: r.Property, Constraint: r.Kind}
		switch r.Kind {
		case KindRequired:
			shape.Params = map[string]any{"minCount": 1}
		case KindDatatype:
			shape.Params = map[string]any{"datatype": xsdTypes[r.Datatype]}
		case KindEnum:
			shape.Params = map[string]any{"in": r.Values}
		case KindRange:
			params := map[string]any{}
			if r.MinInclusive != nil {
				params["minInclusive"] = *r.MinInclusive
			}
			if r.MaxInclusive != nil {
				params["maxInclusive"] = *r.MaxInclusive
			}
			shape.Params = params
		}
		byLabel[r.Label] = append(byLabel[r.Label], shape)
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	export := ShaclExport{}
	for _, label := range labels {
		export.Shapes = append(export.Shapes, NodeShape{TargetClass: label, Properties: byLabel[label]})
	}
	export.Turtle = renderTurtle(export.Shapes)
	return export
}

func renderTurtle(shapes []NodeShape) string {
	var b strings.Builder
	b.WriteString("@prefix sh: <http://www.w3.org/ns/shacl#> .\n")
	b.WriteString("@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n")
	b.WriteString("@prefix ex: <http://seocho.ai/shapes#> .\n")

	for _, shape := range shapes {
		fmt.Fprintf(&b, "\nex:%sShape a sh:NodeShape ;\n", shape.TargetClass)
		fmt.Fprintf(&b, "    sh:targetClass ex:%s ;\n", shape.TargetClass)
		for i, prop := range shape.Properties {
			fmt.Fprintf(&b, "    sh:property [ sh:path ex:%s%s ]", prop.Path, turtleParams(prop))
			if i < len(shape.Properties)-1 {
				b.WriteString(" ;\n")
			} else {
				b.WriteString(" .\n")
			}
		}
	}
	return b.String()
}

func turtleParams(prop PropertyShape) string {
	switch prop.Constraint {
	case KindRequired:
		return " ; sh:minCount 1"
	case KindDatatype:
		return fmt.Sprintf(" ; sh:datatype %v", prop.Params["datatype"])
	case KindEnum:
		values, _ := prop.Params["in"].([]string)
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = `"` + v + `"`
		}
		return fmt.Sprintf(" ; sh:in ( %s )", strings.Join(quoted, " "))
	case KindRange:
		var parts []string
		if v, ok := prop.Params["minInclusive"]; ok {
			parts = append(parts, fmt.Sprintf("sh:minInclusive %v", v))
		}
		if v, ok := prop.Params["maxInclusive"]; ok {
			parts = append(parts, fmt.Sprintf("sh:maxInclusive %v", v))
		}
		if len(parts) == 0 {
			return ""
		}
		return " ; " + strings.Join(parts, " ; ")
	}
	return ""
}
