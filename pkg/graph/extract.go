package graph

import (
	"regexp"
	"strings"

	"kgqa/pkg/common"
)

// extractRule is one declarative extraction pattern. Rules are evaluated in
// fixed order, most specific (longest literal phrase) first; the confidence
// is fixed by the rule, exact multi-word phrases scoring higher than single
// keyword matches.
type extractRule struct {
	literal    string
	re         *regexp.Regexp
	label      string
	confidence float64

	// reversed marks passive phrasings where the grammatical object is the
	// relation subject ("X was founded by Y" means Y founded X).
	reversed bool

	// collab marks the three-argument pattern "X worked on Y with Z", which
	// fans out to one triple per participant.
	collab bool
}

var extractRules = []extractRule{
	{
		literal:    "worked on with",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+worked\s+on\s+(.+?)\s+with\s+(.+)$`),
		label:      "worked_on",
		confidence: 0.85,
		collab:     true,
	},
	{
		literal:    "was founded by",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+was\s+founded\s+by\s+(.+)$`),
		label:      "founded",
		confidence: 0.9,
		reversed:   true,
	},
	{
		literal:    "was created by",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+was\s+created\s+by\s+(.+)$`),
		label:      "created",
		confidence: 0.9,
		reversed:   true,
	},
	{
		literal:    "is the ceo of",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+is\s+the\s+ceo\s+of\s+(.+)$`),
		label:      "ceo_of",
		confidence: 0.9,
	},
	{
		literal:    "founded by",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+founded\s+by\s+(.+)$`),
		label:      "founded",
		confidence: 0.85,
		reversed:   true,
	},
	{
		literal:    "created by",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+created\s+by\s+(.+)$`),
		label:      "created",
		confidence: 0.85,
		reversed:   true,
	},
	{
		literal:    "worked on",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+worked\s+on\s+(.+)$`),
		label:      "worked_on",
		confidence: 0.8,
	},
	{
		literal:    "works at",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+work(?:s|ed)\s+at\s+(.+)$`),
		label:      "works_at",
		confidence: 0.8,
	},
	{
		literal:    "lives in",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+lives\s+in\s+(.+)$`),
		label:      "lives_in",
		confidence: 0.8,
	},
	{
		literal:    "founded",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+founded\s+(.+)$`),
		label:      "founded",
		confidence: 0.75,
	},
	{
		literal:    "created",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+created\s+(.+)$`),
		label:      "created",
		confidence: 0.75,
	},
	{
		literal:    "is a",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+is\s+(?:a|an)\s+(.+)$`),
		label:      "is_a",
		confidence: 0.7,
	},
	{
		literal:    "has",
		re:         regexp.MustCompile(`(?i)\b(.+?)\s+has\s+(.+)$`),
		label:      "has",
		confidence: 0.6,
	},
}

var (
	mentionRe     = regexp.MustCompile(`[A-Z][A-Za-z0-9'\-]*(?:\s+[A-Z][A-Za-z0-9'\-]*)*`)
	quotedRe      = regexp.MustCompile(`"([^"]+)"`)
	conjunctionRe = regexp.MustCompile(`\s*(?:,|\band\b)\s*`)
)

var mentionStopWords = map[string]struct{}{
	"The": {}, "This": {}, "That": {}, "These": {}, "Those": {},
	"A": {}, "An": {}, "It": {}, "They": {}, "Who": {}, "What": {},
	"Where": {}, "When": {}, "How": {}, "Why": {}, "Which": {},
}

// ExtractTriples runs the extraction rules over every sentence of the text
// and returns the candidate triples. Extraction is deterministic: the same
// input always yields the same triples in the same order. Sentences that
// match no rule contribute nothing; empty or blank text yields an empty
// result, never an error.
//
// When labels are given they act as a schema hint: triples with a relation
// label outside the set are dropped.
func ExtractTriples(text string, labels ...string) []common.Triple {
	return extractFromSentences(splitIntoSentences(strings.TrimSpace(text)), labelSet(labels))
}

func labelSet(labels []string) map[string]struct{} {
	if len(labels) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

func extractFromSentences(sentences []string, allowed map[string]struct{}) []common.Triple {
	var triples []common.Triple
	for _, sentence := range sentences {
		triples = append(triples, extractFromSentence(sentence, allowed)...)
	}
	return triples
}

type claimedSpan struct {
	start       int
	end         int
	specificity int
}

func extractFromSentence(sentence string, allowed map[string]struct{}) []common.Triple {
	mentions := mentionsIn(sentence)
	if len(mentions) == 0 {
		return nil
	}

	var claimed []claimedSpan
	var triples []common.Triple

	for _, rule := range extractRules {
		m := rule.re.FindStringSubmatchIndex(sentence)
		if m == nil {
			continue
		}

		spans := keywordSpans(m)
		if overlapsStronger(claimed, spans, len(rule.literal)) {
			continue
		}
		for _, span := range spans {
			claimed = append(claimed, claimedSpan{start: span[0], end: span[1], specificity: len(rule.literal)})
		}

		if allowed != nil {
			if _, ok := allowed[rule.label]; !ok {
				continue
			}
		}

		triples = append(triples, triplesForMatch(rule, sentence, m, mentions)...)
	}

	return triples
}

// keywordSpans returns the sentence ranges covered by the rule's literal
// keywords: the gaps between adjacent capture groups.
func keywordSpans(m []int) [][2]int {
	var spans [][2]int
	for i := 3; i+1 < len(m); i += 2 {
		start, end := m[i], m[i+1]
		if start >= 0 && end >= 0 && start < end {
			spans = append(spans, [2]int{start, end})
		}
	}
	return spans
}

// overlapsStronger reports whether any keyword span is already claimed by a
// more specific rule. Equal-specificity overlaps are allowed: both matches
// emit and the builder deduplicates later.
func overlapsStronger(claimed []claimedSpan, spans [][2]int, specificity int) bool {
	for _, c := range claimed {
		if c.specificity <= specificity {
			continue
		}
		for _, s := range spans {
			if s[0] < c.end && c.start < s[1] {
				return true
			}
		}
	}
	return false
}

func triplesForMatch(rule extractRule, sentence string, m []int, mentions []string) []common.Triple {
	group := func(i int) string {
		start, end := m[2*i], m[2*i+1]
		if start < 0 || end < 0 {
			return ""
		}
		return sentence[start:end]
	}

	var triples []common.Triple
	emit := func(subject, object string) {
		if common.CanonicalKey(subject) == common.CanonicalKey(object) {
			return
		}
		triples = append(triples, common.Triple{
			Subject:    subject,
			Label:      rule.label,
			Object:     object,
			Confidence: rule.confidence,
			Snippet:    sentence,
		})
	}

	if rule.collab {
		subjects := resolveSpan(group(1), mentions)
		objects := resolveSpan(group(2), mentions)
		collaborators := resolveSpan(group(3), mentions)
		for _, object := range objects {
			for _, subject := range subjects {
				emit(subject, object)
			}
			for _, subject := range collaborators {
				emit(subject, object)
			}
		}
		return triples
	}

	subjects := resolveSpan(group(1), mentions)
	objects := resolveSpan(group(2), mentions)
	if rule.reversed {
		subjects, objects = objects, subjects
	}
	for _, subject := range subjects {
		for _, object := range objects {
			emit(subject, object)
		}
	}
	return triples
}

// mentionsIn collects the entity surface forms present in a sentence:
// quoted phrases and runs of capitalized words, with question/determiner
// stop words and very short tokens filtered out.
func mentionsIn(sentence string) []string {
	var mentions []string
	seen := make(map[string]struct{})

	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if len(candidate) <= 2 {
			return
		}
		if _, stop := mentionStopWords[candidate]; stop {
			return
		}
		key := common.CanonicalKey(candidate)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		mentions = append(mentions, candidate)
	}

	for _, m := range quotedRe.FindAllStringSubmatch(sentence, -1) {
		add(m[1])
	}
	for _, m := range mentionRe.FindAllString(sentence, -1) {
		add(m)
	}

	return mentions
}

// resolveSpan maps a captured argument span onto the sentence's entity
// mentions. Conjunction lists fan out to multiple entities; each part
// resolves by exact canonical match first, then by substring containment in
// either direction. Parts matching no mention are dropped.
func resolveSpan(span string, mentions []string) []string {
	var resolved []string
	seen := make(map[string]struct{})

	for _, part := range conjunctionRe.Split(span, -1) {
		part = strings.Trim(part, " \t.,!?;:\"'")
		if part == "" {
			continue
		}
		mention, ok := resolveMention(part, mentions)
		if !ok {
			continue
		}
		key := common.CanonicalKey(mention)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		resolved = append(resolved, mention)
	}

	return resolved
}

func resolveMention(part string, mentions []string) (string, bool) {
	partKey := common.CanonicalKey(part)
	for _, mention := range mentions {
		if common.CanonicalKey(mention) == partKey {
			return mention, true
		}
	}
	for _, mention := range mentions {
		mentionKey := common.CanonicalKey(mention)
		if strings.Contains(partKey, mentionKey) || strings.Contains(mentionKey, partKey) {
			return mention, true
		}
	}
	return "", false
}
