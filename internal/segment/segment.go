package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the maximum chunk length, in characters, used when the
// caller does not choose one. It sits comfortably under the per-request text
// limits of the synthesis services.
const DefaultChunkSize = 4000

// sentenceEnd marks a sentence boundary: a Latin full stop, an Arabic
// question mark or an exclamation mark, followed by whitespace. Splitting on
// it consumes the terminator together with the whitespace.
var sentenceEnd = regexp.MustCompile(`[.؟!]\s+`)

// Split breaks text into chunks of at most maxChunkSize characters without
// breaking words or sentences when possible. Lengths are counted in runes,
// not bytes, so Arabic text is measured the same way the synthesis services
// measure it.
//
// Text that already fits is returned verbatim as a single chunk. Sentences
// are packed greedily in input order; a sentence longer than the limit falls
// back to word-level packing. A single word longer than the limit becomes its
// own oversized chunk rather than being cut mid-word.
func Split(text string, maxChunkSize int) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxChunkSize {
		return []string{text}
	}

	var chunks []string
	current := ""

	for _, sentence := range sentenceEnd.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		// Splitting consumed the terminator, so put one back. The last
		// sentence of the text keeps whatever it ended with.
		if !strings.HasSuffix(sentence, ".") && !strings.HasSuffix(sentence, "؟") && !strings.HasSuffix(sentence, "!") {
			sentence += "."
		}

		if runeLen(current)+runeLen(sentence)+1 > maxChunkSize {
			if strings.TrimSpace(current) != "" {
				chunks = append(chunks, strings.TrimSpace(current))
				current = ""
			}

			if runeLen(sentence) > maxChunkSize {
				// All word chunks but the last are final; the last one keeps
				// accumulating with the sentences that follow.
				wordChunks := splitByWords(sentence, maxChunkSize)
				if len(wordChunks) > 0 {
					chunks = append(chunks, wordChunks[:len(wordChunks)-1]...)
					current = wordChunks[len(wordChunks)-1]
				}
			} else {
				current = sentence
			}
		} else {
			if current != "" {
				current += " " + sentence
			} else {
				current = sentence
			}
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

// splitByWords packs words greedily when a whole sentence does not fit. A
// word longer than maxChunkSize is emitted on its own, unsplit.
func splitByWords(sentence string, maxChunkSize int) []string {
	var chunks []string
	current := ""

	for _, word := range strings.Fields(sentence) {
		if runeLen(current)+runeLen(word)+1 > maxChunkSize {
			if strings.TrimSpace(current) != "" {
				chunks = append(chunks, strings.TrimSpace(current))
			}
			current = word
		} else {
			if current != "" {
				current += " " + word
			} else {
				current = word
			}
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
