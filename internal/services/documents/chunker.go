package documents

import (
	"strings"
	"unicode"
)

// ChunkText splits text into chunks of at most size characters on sentence
// boundaries, repeating up to overlap characters of trailing sentences at the
// start of the next chunk. A single sentence longer than size becomes its own
// chunk.
func ChunkText(text string, size, overlap int) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(sentences); {
		var (
			current     []string
			currentSize int
		)
		for j := i; j < len(sentences); j++ {
			add := len(sentences[j])
			if len(current) > 0 {
				add++
			}
			if currentSize+add > size && len(current) > 0 {
				break
			}
			current = append(current, sentences[j])
			currentSize += add
		}
		chunks = append(chunks, strings.Join(current, " "))

		if i+len(current) >= len(sentences) {
			break
		}

		carried := 0
		if overlap > 0 {
			carriedSize := 0
			for k := len(current) - 1; k >= 0; k-- {
				add := len(current[k])
				if k < len(current)-1 {
					add++
				}
				if carriedSize+add > overlap {
					break
				}
				carriedSize += add
				carried++
			}
		}
		i = max(i+len(current)-carried, i+1)
	}
	return chunks
}

// SplitSentences breaks text after '.', '!' or '?' followed by whitespace.
// Single-letter abbreviations like "e.g." and initials are not treated as
// sentence ends.
func SplitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if runes[i+1] != ' ' {
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i]) {
			continue
		}
		sentences = append(sentences, strings.TrimSpace(string(runes[start:i+1])))
		start = i + 2
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// isAbbreviation reports whether the word right before a period looks like
// an abbreviation: a single letter ("J.", "e.g.") or a title such as "Dr."
func isAbbreviation(before []rune) bool {
	n := len(before)
	if n == 0 || !unicode.IsLetter(before[n-1]) {
		return false
	}
	if n == 1 || before[n-2] == ' ' || before[n-2] == '.' {
		return true
	}
	return unicode.IsLower(before[n-1]) && unicode.IsUpper(before[n-2]) && (n == 2 || before[n-3] == ' ')
}
