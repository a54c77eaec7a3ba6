package envelope

import (
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
)

// adjacentEncodedWords matches a run of two or more RFC 2047 encoded-words
// separated only by whitespace, the split MIME headers sometimes produce.
var adjacentEncodedWords = regexp.MustCompile(`(?:=\?[^?]+\?[bBqQ]\?[^?]+\?=)(?:\s+=\?[^?]+\?[bBqQ]\?[^?]+\?=)+`)
var encodedWord = regexp.MustCompile(`=\?([^?]+)\?([bBqQ])\?([^?]+)\?=`)

// mergeContiguousEncodedWords collapses a run of adjacent encoded-words
// that share charset and encoding into a single encoded-word, so a decoder
// doesn't get confused by an arbitrary split across word boundaries.
func mergeContiguousEncodedWords(input string) string {
	return adjacentEncodedWords.ReplaceAllStringFunc(input, func(block string) string {
		matches := encodedWord.FindAllStringSubmatch(block, -1)
		if len(matches) == 0 {
			return block
		}

		charset := strings.ToUpper(matches[0][1])
		encoding := strings.ToUpper(matches[0][2])
		var combined strings.Builder

		for _, m := range matches {
			if strings.ToUpper(m[1]) != charset || strings.ToUpper(m[2]) != encoding {
				return block
			}
			combined.WriteString(m[3])
		}

		return "=?" + charset + "?" + encoding + "?" + combined.String() + "?="
	})
}

// normalizeSubject is the fallback path when the parser's own decoded
// subject contains a replacement character: merge split encoded-words,
// then decode as an unstructured header.
func normalizeSubject(raw string) string {
	if raw == "" {
		return ""
	}
	return enmime.DecodeHeader(mergeContiguousEncodedWords(raw))
}
