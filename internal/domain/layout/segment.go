package layout

import (
	"unicode/utf8"

	"github.com/forPelevin/karaoke/internal/domain/timeline"
)

// Segment packs words into display lines greedily, left to right.
//
// A word joins the current line unless the line already holds maxWords words
// or the projected character count (one separator per word after the first)
// would exceed maxChars. Words are never split: a single word longer than
// maxChars becomes a line of its own. There is no backtracking or balancing.
func Segment(words []timeline.Word, maxChars, maxWords int) []timeline.Line {
	var out []timeline.Line
	var cur []timeline.Word
	chars := 0
	for _, w := range words {
		wl := utf8.RuneCountInString(w.Text)
		projected := chars + wl
		if len(cur) > 0 {
			projected++
		}
		if len(cur) > 0 && (projected > maxChars || len(cur) >= maxWords) {
			out = append(out, timeline.Line{Words: cur})
			cur = nil
			projected = wl
		}
		cur = append(cur, w)
		chars = projected
	}
	if len(cur) > 0 {
		out = append(out, timeline.Line{Words: cur})
	}
	return out
}
