package layout

import (
	"fmt"
	"strings"

	"github.com/forPelevin/karaoke/internal/domain/timeline"
)

// Window is what a Selector decides should be on screen at one timestamp.
//
// Active indexes Lines, or is -1. Silence means no line is being sung and the
// lines shown are an upcoming preview; SecondsToNext is then the time until
// the first of them starts. Done means the song is over (or never had words)
// and the title card should be shown.
type Window struct {
	Lines         []timeline.Line
	Active        int
	Silence       bool
	SecondsToNext float64
	Done          bool
}

func done() Window { return Window{Active: -1, Done: true} }

// Selector picks the visible window for a render timestamp.
type Selector interface {
	Select(t float64) Window
	Name() string
}

const (
	ModePaired   = "paired"
	ModeWindowed = "windowed"
)

// Options tunes the selectors. A zero grace or epsilon is honoured as given;
// negative values and a non-positive line count fall back to defaults.
type Options struct {
	Mode          string
	VisibleLines  int
	PairGrace     float64
	ActiveEpsilon float64
}

// New returns the selector for opts.Mode.
func New(lines []timeline.Line, opts Options) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "", ModePaired:
		return NewPaired(lines, opts.PairGrace), nil
	case ModeWindowed:
		return NewWindowed(lines, opts.VisibleLines, opts.ActiveEpsilon), nil
	default:
		return nil, fmt.Errorf("layout mode: unsupported value %q", opts.Mode)
	}
}

// Paired shows lines two at a time: pair k holds lines 2k and 2k+1.
type Paired struct {
	pairs [][]timeline.Line
	grace float64
}

func NewPaired(lines []timeline.Line, grace float64) *Paired {
	if grace < 0 {
		grace = 0.5
	}
	p := &Paired{grace: grace}
	for i := 0; i < len(lines); i += 2 {
		j := min(i+2, len(lines))
		p.pairs = append(p.pairs, lines[i:j:j])
	}
	return p
}

func (p *Paired) Name() string { return ModePaired }

func (p *Paired) Select(t float64) Window {
	for _, pair := range p.pairs {
		if pair[0].Start() <= t && t <= pair[len(pair)-1].End()+p.grace {
			return Window{Lines: pair, Active: lastStarted(pair, t)}
		}
	}
	for _, pair := range p.pairs {
		if pair[0].Start() > t {
			return Window{Lines: pair, Active: -1, Silence: true, SecondsToNext: pair[0].Start() - t}
		}
	}
	return done()
}

// lastStarted is the index of the last line whose first word has begun, so a
// finished line stays sung through a pair gap or the trailing grace period.
func lastStarted(lines []timeline.Line, t float64) int {
	idx := 0
	for i, ln := range lines {
		if ln.Start() <= t {
			idx = i
		}
	}
	return idx
}

// Windowed keeps a fixed number of lines on screen, centred on the active one.
type Windowed struct {
	lines   []timeline.Line
	visible int
	epsilon float64
}

func NewWindowed(lines []timeline.Line, visible int, epsilon float64) *Windowed {
	if visible <= 0 {
		visible = 4
	}
	if epsilon < 0 {
		epsilon = 0.1
	}
	return &Windowed{lines: lines, visible: visible, epsilon: epsilon}
}

func (w *Windowed) Name() string { return ModeWindowed }

// ActiveIndex returns the first line whose span [start, end+epsilon] holds t, or -1.
func (w *Windowed) ActiveIndex(t float64) int {
	for i, ln := range w.lines {
		if ln.Start() <= t && t <= ln.End()+w.epsilon {
			return i
		}
	}
	return -1
}

func (w *Windowed) Select(t float64) Window {
	if len(w.lines) == 0 {
		return done()
	}
	if idx := w.ActiveIndex(t); idx >= 0 {
		start, end := w.span(max(0, idx-w.visible/2))
		return Window{Lines: w.lines[start:end:end], Active: idx - start}
	}
	for i, ln := range w.lines {
		if ln.Start() > t {
			start, end := w.span(i)
			return Window{Lines: w.lines[start:end:end], Active: -1, Silence: true, SecondsToNext: ln.Start() - t}
		}
	}
	return done()
}

// span clamps a window starting at start so it stays full near the end.
func (w *Windowed) span(start int) (int, int) {
	if start+w.visible > len(w.lines) {
		start = max(0, len(w.lines)-w.visible)
	}
	return start, min(start+w.visible, len(w.lines))
}
