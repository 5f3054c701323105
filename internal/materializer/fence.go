package materializer

import (
	"strings"
	"unicode"
)

const fence = "```"

// StripFences peels code-fence markers off both ends of text. A leading
// marker may carry a language tag (```json). Markers are removed until none
// remain at either end; fences inside the payload are left untouched.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	for {
		before := s
		if strings.HasPrefix(s, fence) {
			s = strings.TrimPrefix(s, fence)
			s = strings.TrimLeftFunc(s, isTagRune)
		}
		s = strings.TrimSuffix(s, fence)
		s = strings.TrimSpace(s)
		if s == before {
			return s
		}
	}
}

// RemoveAllFences deletes every ```json and ``` marker wherever it occurs.
// It is the fallback when StripFences does not yield parseable text.
func RemoveAllFences(text string) string {
	s := strings.ReplaceAll(text, fence+"json", "")
	s = strings.ReplaceAll(s, fence, "")
	return strings.TrimSpace(s)
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+'
}
