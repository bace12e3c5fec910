package query

import (
	"regexp"
	"strings"

	"kgqa/pkg/common"
)

// Aggregation targets derived from "how many ..." questions.
const (
	AggregateEntities = "entities"
	AggregateEdges    = "edges"
	AggregateLabel    = "label"
)

// Intent is the outcome of classifying a question: the category deciding
// which traversal strategy runs, the anchor surface forms the question asks
// about, relation label terms for relationship lookups, and the coarse
// filter for aggregations.
type Intent struct {
	Category   string
	Anchors    []string
	LabelTerms []string
	Aggregate  string
}

// questionRule is one declarative classification pattern, evaluated in
// fixed priority order; the first matching rule decides the category.
type questionRule struct {
	re    *regexp.Regexp
	build func(groups []string) Intent
}

var questionRules = []questionRule{
	{
		// "how many entities", "how many founded edges"
		re: regexp.MustCompile(`(?i)^\s*how\s+many\s+(.+?)\s*\??\s*$`),
		build: func(groups []string) Intent {
			return Intent{
				Category:   common.CategoryAggregation,
				Aggregate:  aggregateTarget(groups[1]),
				LabelTerms: aggregateLabelTerms(groups[1]),
			}
		},
	},
	{
		// "what is the relationship between X and Y"
		re: regexp.MustCompile(`(?i)^\s*what\s+is\s+the\s+relationship\s+between\s+(.+?)\s+and\s+(.+?)\s*\??\s*$`),
		build: func(groups []string) Intent {
			return Intent{
				Category: common.CategoryRelationshipLookup,
				Anchors:  []string{trimAnchor(groups[1]), trimAnchor(groups[2])},
			}
		},
	},
	{
		// "how is X related to Y"
		re: regexp.MustCompile(`(?i)^\s*how\s+is\s+(.+?)\s+related\s+to\s+(.+?)\s*\??\s*$`),
		build: func(groups []string) Intent {
			return Intent{
				Category: common.CategoryRelationshipLookup,
				Anchors:  []string{trimAnchor(groups[1]), trimAnchor(groups[2])},
			}
		},
	},
	{
		// "who founded X", "what created X"
		re: regexp.MustCompile(`(?i)^\s*(?:who|what)\s+(founded|created|made|built|owns|runs)\s+(.+?)\s*\??\s*$`),
		build: func(groups []string) Intent {
			return Intent{
				Category:   common.CategoryRelationshipLookup,
				Anchors:    []string{trimAnchor(groups[2])},
				LabelTerms: []string{stem(groups[1])},
			}
		},
	},
	{
		// "who is X", "what are X"
		re: regexp.MustCompile(`(?i)^\s*(?:who|what)\s+(?:is|are|was|were)\s+(.+?)\s*\??\s*$`),
		build: func(groups []string) Intent {
			return Intent{
				Category: common.CategoryEntityLookup,
				Anchors:  []string{trimAnchor(groups[1])},
			}
		},
	},
}

// Classify assigns a question to one of the fixed categories and extracts
// the anchor surface forms it references. Questions matching no rule are
// CategoryUnknown; any capitalized mentions are still reported as anchors
// for best-effort use by the caller.
func Classify(question string) Intent {
	for _, rule := range questionRules {
		m := rule.re.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		return rule.build(m)
	}

	return Intent{
		Category: common.CategoryUnknown,
		Anchors:  capitalizedAnchors(question),
	}
}

func trimAnchor(s string) string {
	return strings.Trim(strings.TrimSpace(s), `?!.,;:"'`)
}

// aggregateTarget maps the tail of a "how many" question onto a coarse
// filter: entity count, edge count, or a label-filtered edge count.
func aggregateTarget(tail string) string {
	lower := strings.ToLower(tail)
	switch {
	case strings.Contains(lower, "entit") || strings.Contains(lower, "node"):
		return AggregateEntities
	case strings.Contains(lower, "edge") || strings.Contains(lower, "relation") || strings.Contains(lower, "connection"):
		return AggregateEdges
	default:
		return AggregateLabel
	}
}

func aggregateLabelTerms(tail string) []string {
	if aggregateTarget(tail) != AggregateLabel {
		return nil
	}
	fields := strings.Fields(trimAnchor(tail))
	if len(fields) == 0 {
		return nil
	}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, stem(f))
	}
	return terms
}

// stem reduces a relation keyword to a matchable prefix so that question
// verbs line up with edge labels ("founded" matches "found*").
func stem(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if strings.HasSuffix(w, suffix) && len(w)-len(suffix) >= 3 {
			return w[:len(w)-len(suffix)]
		}
	}
	return w
}

var anchorMentionRe = regexp.MustCompile(`[A-Z][A-Za-z0-9'\-]*(?:\s+[A-Z][A-Za-z0-9'\-]*)*`)

var questionStopWords = map[string]struct{}{
	"Who": {}, "What": {}, "Where": {}, "When": {}, "How": {}, "Why": {},
	"Which": {}, "The": {}, "A": {}, "An": {}, "Is": {}, "Are": {},
}

func capitalizedAnchors(question string) []string {
	var anchors []string
	for _, m := range anchorMentionRe.FindAllString(question, -1) {
		if _, stop := questionStopWords[m]; stop {
			continue
		}
		if len(m) <= 2 {
			continue
		}
		anchors = append(anchors, m)
	}
	return anchors
}
