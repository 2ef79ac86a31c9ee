package semantic

import "strings"

// Route values.
const (
	RouteLPG    = "lpg"
	RouteRDF    = "rdf"
	RouteHybrid = "hybrid"
)

var rdfHints = []string{
	"rdf", "sparql", "ontology", "owl", "shacl", "triple", "triples",
	"class hierarchy", "subclass", "uri", "iri", "namespace", "predicate",
	"semantic web", "taxonomy",
}

var lpgHints = []string{
	"neighbor", "neighbors", "neighbour", "path", "shortest", "cypher",
	"relationship", "relationships", "connected", "edge", "edges",
	"degree", "traversal", "hop", "hops", "node", "nodes",
}

// Route classifies a question by keyword vocabulary: both vocabularies
// matched means hybrid, RDF-only means rdf, everything else is lpg.
func Route(question string) string {
	q := strings.ToLower(question)
	rdf := containsAny(q, rdfHints)
	lpg := containsAny(q, lpgHints)
	switch {
	case rdf && lpg:
		return RouteHybrid
	case rdf:
		return RouteRDF
	default:
		return RouteLPG
	}
}

func containsAny(q string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(q, h) {
			return true
		}
	}
	return false
}
