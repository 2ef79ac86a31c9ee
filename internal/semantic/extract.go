package semantic

import (
	"regexp"
	"strings"
)

var stopwords = map[string]bool{
	"a": true, "about": true, "all": true, "an": true, "and": true,
	"any": true, "are": true, "between": true, "by": true, "can": true,
	"describe": true, "do": true, "does": true, "find": true, "for": true,
	"from": true, "give": true, "graph": true, "has": true, "have": true,
	"how": true, "in": true, "is": true, "it": true, "its": true,
	"list": true, "many": true, "me": true, "neighbors": true, "of": true,
	"on": true, "or": true, "show": true, "tell": true, "that": true,
	"the": true, "their": true, "there": true, "this": true, "to": true,
	"what": true, "when": true, "where": true, "which": true, "who": true,
	"why": true, "with": true,
}

var (
	quotedRe    = regexp.MustCompile(`["'\x60]([^"'\x60]{2,64})["'\x60]`)
	tokenRe     = regexp.MustCompile(`[A-Za-z0-9_][A-Za-z0-9_.-]*`)
	capitalized = regexp.MustCompile(`^[A-Z]`)
)

// ExtractEntities pulls candidate entity mentions from a question:
// quoted spans first, then capitalized n-grams, then long single
// tokens. Stopwords and punctuation are stripped; order of first
// appearance is preserved with duplicates removed.
func ExtractEntities(question string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(candidate string) {
		cleaned := cleanEntity(candidate)
		if cleaned == "" {
			return
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, cleaned)
	}

	for _, m := range quotedRe.FindAllStringSubmatch(question, -1) {
		add(m[1])
	}

	tokens := tokenRe.FindAllString(question, -1)

	// Capitalized runs become one n-gram each ("New York Stock Exchange").
	var run []string
	flush := func() {
		if len(run) > 0 {
			add(strings.Join(run, " "))
			run = nil
		}
	}
	for i, tok := range tokens {
		if capitalized.MatchString(tok) && !stopwords[strings.ToLower(tok)] {
			// Skip a capitalized sentence opener with no following caps.
			if i == 0 && (len(tokens) == 1 || !capitalized.MatchString(tokens[1])) && isCommonWord(tok) {
				flush()
				continue
			}
			run = append(run, tok)
			continue
		}
		flush()
	}
	flush()

	for _, tok := range tokens {
		if len(tok) >= 6 && !stopwords[strings.ToLower(tok)] {
			add(tok)
		}
	}
	return out
}

func cleanEntity(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'.,:;!?()[]{}`)
	s = strings.Join(strings.Fields(s), " ")
	if len(s) < 2 {
		return ""
	}
	if stopwords[strings.ToLower(s)] {
		return ""
	}
	return s
}

// isCommonWord filters sentence openers that capitalization alone made
// look like names.
func isCommonWord(tok string) bool {
	return stopwords[strings.ToLower(tok)]
}
