package chatlist

import (
	"strings"
	"unicode"
)

// Segment is one run of text in a highlighted string. Match marks runs that
// matched the query and should be visually emphasized.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits text into segments around case-insensitive occurrences of
// query. Matching walks the original string rune by rune with per-rune case
// folding; slicing a lowered copy would go wrong wherever a case mapping
// changes a rune's encoded length. The query is matched literally, never
// compiled into a pattern, so regex metacharacters in user input are inert.
// The original text is returned unchanged across the segments.
func Highlight(text, query string) []Segment {
	q := []rune(strings.ToLower(strings.TrimSpace(query)))
	if len(q) == 0 || text == "" {
		return []Segment{{Text: text}}
	}

	runes := []rune(text)
	var segs []Segment
	pos := 0
	i := 0
	for i+len(q) <= len(runes) {
		if !matchesAt(runes, i, q) {
			i++
			continue
		}
		if i > pos {
			segs = append(segs, Segment{Text: string(runes[pos:i])})
		}
		segs = append(segs, Segment{Text: string(runes[i : i+len(q)]), Match: true})
		i += len(q)
		pos = i
	}
	if pos < len(runes) {
		segs = append(segs, Segment{Text: string(runes[pos:])})
	}
	if len(segs) == 0 {
		return []Segment{{Text: text}}
	}
	return segs
}

func matchesAt(runes []rune, at int, q []rune) bool {
	for j, r := range q {
		if unicode.ToLower(runes[at+j]) != r {
			return false
		}
	}
	return true
}
