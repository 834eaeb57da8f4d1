package timeline

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/forPelevin/karaoke/internal/types"
)

// Source tags which upstream stage produced a word's timing.
type Source int

const (
	SourcePrimary Source = iota
	SourceFallback
)

func (s Source) String() string {
	if s == SourceFallback {
		return "fallback"
	}
	return "primary"
}

// ParseSource maps upstream source tags onto Source. Unknown tags are treated
// as primary; ok reports whether the tag was recognised.
func ParseSource(tag string) (src Source, ok bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "primary", "aligner", "ctc_forced_aligner":
		return SourcePrimary, true
	case "fallback", "whisper", "whisper_word_timestamps":
		return SourceFallback, true
	default:
		return SourcePrimary, false
	}
}

// Word is one validated lyric word. Times are seconds from the start of the song.
type Word struct {
	Text       string
	Start      float64
	End        float64
	Confidence float64
	Source     Source
}

// Line is a display-sized run of consecutive words. Lines are never empty.
type Line struct {
	Words []Word
}

func (l Line) Start() float64 { return l.Words[0].Start }

func (l Line) End() float64 { return l.Words[len(l.Words)-1].End }

func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Report summarises what Build saw in the input without rejecting it.
type Report struct {
	Input        int
	Dropped      int
	NonMonotonic []int
	Unknown      []string
	Sources      map[Source]int
}

// Build validates raw word records and returns them in input order.
//
// Words whose text is blank after trimming are dropped. Overlapping or
// reversed timestamps are reported in Report.NonMonotonic but kept as given;
// the rendered result follows the transcript, not a corrected version of it.
func Build(raw []types.RawWord) ([]Word, Report, error) {
	rep := Report{Input: len(raw), Sources: map[Source]int{}}
	if len(raw) == 0 {
		return nil, rep, &types.MalformedTimelineError{Index: -1, Reason: "transcript is empty"}
	}

	words := make([]Word, 0, len(raw))
	prevStart := math.Inf(-1)
	for i, r := range raw {
		text, ok := r.Label()
		if !ok {
			return nil, rep, &types.MalformedTimelineError{Index: i, Reason: "missing text"}
		}
		if r.Start == nil {
			return nil, rep, &types.MalformedTimelineError{Index: i, Reason: "missing start"}
		}
		if r.End == nil {
			return nil, rep, &types.MalformedTimelineError{Index: i, Reason: "missing end"}
		}
		start, end := *r.Start, *r.End
		if !finite(start) || !finite(end) {
			return nil, rep, &types.MalformedTimelineError{Index: i, Reason: "timestamp is not a finite number"}
		}
		if start < 0 || end < 0 {
			return nil, rep, &types.MalformedTimelineError{Index: i, Reason: "negative timestamp"}
		}

		text = norm.NFC.String(strings.TrimSpace(text))
		if text == "" {
			rep.Dropped++
			continue
		}

		src, known := ParseSource(r.Source)
		if !known {
			rep.Unknown = append(rep.Unknown, r.Source)
		}
		if end < start || start < prevStart {
			rep.NonMonotonic = append(rep.NonMonotonic, i)
		}
		prevStart = start

		rep.Sources[src]++
		words = append(words, Word{
			Text:       text,
			Start:      start,
			End:        end,
			Confidence: r.Score(),
			Source:     src,
		})
	}
	if len(words) == 0 {
		return nil, rep, &types.MalformedTimelineError{Index: -1, Reason: "every word is blank"}
	}
	return words, rep, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
