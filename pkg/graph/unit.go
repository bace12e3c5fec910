package graph

import (
	"strings"
	"unicode"

	"kgqa/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
)

// textUnit is a token-bounded run of consecutive sentences from one
// ingested text. Units cap the amount of work a single extraction pass sees;
// start and end index into the sentence slice of the text.
type textUnit struct {
	start     int
	end       int
	sentences []string
}

// unitsFromText splits a text into sentences and groups them into units of
// at most maxTokens tokens. Blank input yields no units.
func unitsFromText(text, encoder string, maxTokens int) []textUnit {
	sentences := splitIntoSentences(strings.TrimSpace(text))
	if len(sentences) == 0 {
		return nil
	}
	if maxTokens <= 0 {
		return []textUnit{{start: 0, end: len(sentences), sentences: sentences}}
	}

	count := tokenCounter(encoder)

	var units []textUnit
	chunkStart := 0
	chunkTokens := 0
	for i, sentence := range sentences {
		tokens := count(sentence)
		if chunkTokens+tokens > maxTokens && i > chunkStart {
			units = append(units, textUnit{
				start:     chunkStart,
				end:       i,
				sentences: sentences[chunkStart:i],
			})
			chunkStart = i
			chunkTokens = 0
		}
		chunkTokens += tokens
	}
	units = append(units, textUnit{
		start:     chunkStart,
		end:       len(sentences),
		sentences: sentences[chunkStart:],
	})

	return units
}

// tokenCounter returns a per-sentence token counting function for the given
// encoding. When the encoding cannot be loaded (no cached BPE data), it
// falls back to a character-based estimate so ingest never depends on
// network access.
func tokenCounter(encoder string) func(string) int {
	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		logger.Debug("[Unit] Token encoder unavailable, estimating", "encoder", encoder, "err", err)
		return func(s string) int {
			return len(s)/4 + 1
		}
	}
	return func(s string) int {
		return len(enc.Encode(s, nil, nil))
	}
}

// splitIntoSentences breaks free-form text into sentences. Lines are joined
// until terminal punctuation is seen; blank lines always end the current
// sentence so that headings and list fragments without punctuation still
// become their own sentence.
func splitIntoSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for line := range strings.SplitSeq(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}

		for _, sentence := range splitLineIntoSentences(trimmed) {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(sentence)

			if endsSentence(sentence) {
				flush()
			}
		}
	}
	flush()

	return sentences
}

func endsSentence(s string) bool {
	s = strings.TrimRight(strings.TrimSpace(s), `"')]}`)
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// splitLineIntoSentences splits one line at terminal punctuation, keeping
// the punctuation and any closing quotes or brackets with the sentence.
// A period directly after a digit followed by a space is treated as a
// numeric listing marker, not a sentence end.
func splitLineIntoSentences(line string) []string {
	var sentences []string
	var current strings.Builder

	for i := 0; i < len(line); i++ {
		current.WriteByte(line[i])

		if line[i] != '.' && line[i] != '!' && line[i] != '?' {
			continue
		}

		if line[i] == '.' && i > 0 && unicode.IsDigit(rune(line[i-1])) && i+1 < len(line) && line[i+1] == ' ' {
			continue
		}

		j := i + 1
		for j < len(line) && (line[j] == '.' || line[j] == '!' || line[j] == '?') {
			current.WriteByte(line[j])
			j++
		}
		for j < len(line) && strings.ContainsRune(`"')]}`, rune(line[j])) {
			current.WriteByte(line[j])
			j++
		}

		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
		i = j - 1
	}

	remaining := strings.TrimSpace(current.String())
	if remaining != "" {
		sentences = append(sentences, remaining)
	}

	return sentences
}
