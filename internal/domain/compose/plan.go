package compose

import (
	"github.com/forPelevin/karaoke/internal/domain/layout"
	"github.com/forPelevin/karaoke/internal/domain/timeline"
)

// Tone is the colouring state of a word.
type Tone int

const (
	ToneUpcoming Tone = iota
	ToneWipe
	ToneSung
)

func (t Tone) String() string {
	switch t {
	case ToneWipe:
		return "wipe"
	case ToneSung:
		return "sung"
	default:
		return "upcoming"
	}
}

// minWipe is the shortest duration a wipe is spread over, in seconds.
const minWipe = 1e-2

type WordState struct {
	Word timeline.Word
	Tone Tone
	// Fill is the elapsed fraction of the word in [0,1]; only meaningful for ToneWipe.
	Fill float64
}

type LineState struct {
	Words []WordState
}

// Plan decides the tone of every visible word at time t.
//
// Lines above the active line are sung, lines below it are upcoming, and the
// active line is coloured word by word. Without an active line (silence
// preview) every word is upcoming. A finished window yields no lines.
func Plan(win layout.Window, t float64) []LineState {
	if win.Done {
		return nil
	}
	out := make([]LineState, len(win.Lines))
	for i, ln := range win.Lines {
		states := make([]WordState, len(ln.Words))
		for j, w := range ln.Words {
			st := WordState{Word: w, Tone: ToneUpcoming}
			switch {
			case win.Active < 0 || i > win.Active:
			case i < win.Active:
				st.Tone, st.Fill = ToneSung, 1
			default:
				st.Tone, st.Fill = wordTone(w, t)
			}
			states[j] = st
		}
		out[i] = LineState{Words: states}
	}
	return out
}

func wordTone(w timeline.Word, t float64) (Tone, float64) {
	switch {
	case w.End <= t:
		return ToneSung, 1
	case w.Start <= t:
		frac := (t - w.Start) / max(w.End-w.Start, minWipe)
		return ToneWipe, clamp(frac, 0, 1)
	default:
		return ToneUpcoming, 0
	}
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
