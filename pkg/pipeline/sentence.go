package pipeline

import "strings"

// endPunctuations are the terminal tokens that can close a sentence,
// longest first so multi-character tokens like "..." match before the
// single "." they contain.
var endPunctuations = []string{"。。。", "...", "。", "！", "？", ".", "!", "?"}

// abbreviations are tokens ending in '.' that must not be treated as a
// sentence boundary, grounded on original_source/src/responder.py's
// ABBREVIATIONS list.
var abbreviations = []string{
	"Mr.", "Mrs.", "Dr.", "Prof.", "Inc.", "Ltd.", "Jr.", "Sr.",
	"e.g.", "i.e.", "vs.", "St.", "Rd.",
}

// SentenceSplitter accumulates streamed LLM text and yields complete
// sentences as soon as a terminal punctuation token closes one, holding
// back any trailing fragment for the next call. Flush releases whatever
// remains once the stream ends. Grounded on responder.py's
// segment_text_by_regex and its incremental buffering loop.
type SentenceSplitter struct {
	buf strings.Builder
}

// NewSentenceSplitter returns an empty splitter.
func NewSentenceSplitter() *SentenceSplitter {
	return &SentenceSplitter{}
}

// Add appends a chunk of streamed text and returns any sentences it
// completed, in order.
func (s *SentenceSplitter) Add(chunk string) []Sentence {
	s.buf.WriteString(chunk)
	text := s.buf.String()

	var out []Sentence
	for {
		cut, ok := findBoundary(text)
		if !ok {
			break
		}
		sentence := strings.TrimSpace(text[:cut])
		if sentence != "" {
			out = append(out, Sentence{Text: sentence})
		}
		text = text[cut:]
	}

	s.buf.Reset()
	s.buf.WriteString(text)
	return out
}

// Flush returns the remaining buffered fragment as a final sentence, if
// any non-whitespace text remains, and clears the buffer. Calling Flush
// again before more Add calls is idempotent: it returns nil.
func (s *SentenceSplitter) Flush() []Sentence {
	text := strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	if text == "" {
		return nil
	}
	return []Sentence{{Text: text}}
}

// findBoundary locates the end of the first complete sentence in text: a
// terminal punctuation token followed by whitespace or end-of-string,
// whose preceding word is not a known abbreviation. Returns the index
// just past the matched token and whether one was found.
func findBoundary(text string) (int, bool) {
	for i := 0; i < len(text); i++ {
		for _, tok := range endPunctuations {
			if !strings.HasPrefix(text[i:], tok) {
				continue
			}
			end := i + len(tok)
			if end < len(text) && !isSpace(text[end]) {
				continue // punctuation mid-token, e.g. a decimal or ellipsis variant
			}
			if isAbbreviation(text[:end]) {
				continue
			}
			return end, true
		}
	}
	return 0, false
}

// isAbbreviation reports whether the word ending at prefix's tail is a
// known abbreviation such as "Mr." or "e.g.".
func isAbbreviation(prefix string) bool {
	start := strings.LastIndexAny(prefix, " \t\n")
	word := prefix[start+1:]
	for _, abbr := range abbreviations {
		if word == abbr {
			return true
		}
	}
	return false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
