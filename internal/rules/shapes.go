package rules

import (
	"fmt"
	"strconv"
)

// FromShapes converts an LM-produced SHACL-like document
// ({"shapes": [{"target_class", "properties": [{"path", "constraint",
// "params"}]}]}) into a RuleSet. Unknown constraints and malformed
// entries are skipped.
func FromShapes(doc map[string]any) RuleSet {
	rs := RuleSet{SchemaVersion: SchemaVersion}
	shapes, _ := doc["shapes"].([]any)
	for _, rawShape := range shapes {
		shape, ok := rawShape.(map[string]any)
		if !ok {
			continue
		}
		label, _ := shape["target_class"].(string)
		if label == "" {
			continue
		}
		props, _ := shape["properties"].([]any)
		for _, rawProp := range props {
			prop, ok := rawProp.(map[string]any)
			if !ok {
				continue
			}
			path, _ := prop["path"].(string)
			constraint, _ := prop["constraint"].(string)
			if path == "" {
				continue
			}
			params, _ := prop["params"].(map[string]any)
			rule := Rule{Label: label, Property: path, Kind: constraint}
			switch constraint {
			case KindRequired:
			case KindDatatype:
				rule.Datatype, _ = params["datatype"].(string)
				if rule.Datatype == "" {
					continue
				}
			case KindEnum:
				values, _ := params["values"].([]any)
				if len(values) == 0 {
					values, _ = params["in"].([]any)
				}
				for _, v := range values {
					rule.Values = append(rule.Values, fmt.Sprint(v))
				}
				if len(rule.Values) == 0 {
					continue
				}
			case KindRange:
				if v, ok := toNumberParam(params["minInclusive"]); ok {
					rule.MinInclusive = &v
				}
				if v, ok := toNumberParam(params["maxInclusive"]); ok {
					rule.MaxInclusive = &v
				}
				if rule.MinInclusive == nil && rule.MaxInclusive == nil {
					continue
				}
			default:
				continue
			}
			rs.Rules = append(rs.Rules, rule)
		}
	}
	return rs
}

// toNumberParam accepts numeric strings as well; LM-produced shape
// documents often quote their bounds.
func toNumberParam(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return toNumber(v)
}
