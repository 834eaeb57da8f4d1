package compose

import (
	"bytes"
	"image/color"
	"math"
	"testing"

	"github.com/forPelevin/karaoke/internal/domain/layout"
	"github.com/forPelevin/karaoke/internal/domain/timeline"
)

var testPalette = Palette{
	Upcoming:   color.RGBA{255, 255, 255, 255},
	Active:     color.RGBA{255, 220, 0, 255},
	Sung:       color.RGBA{80, 80, 80, 255},
	Background: color.RGBA{0, 0, 0, 255},
}

func testStyle() Style {
	return Style{
		Width:              640,
		Height:             360,
		FontSize:           32,
		LineSpacing:        48,
		CountdownThreshold: 0.3,
		Palette:            testPalette,
		Title:              "Song",
		Artist:             "Band",
	}
}

func newTestCompositor(t *testing.T, style Style) *Compositor {
	t.Helper()
	f, err := LoadFont("")
	if err != nil {
		t.Fatalf("load font: %v", err)
	}
	return New(style, f)
}

func singASong() []timeline.Line {
	return layout.Segment([]timeline.Word{
		{Text: "sing", Start: 0.0, End: 0.5},
		{Text: "a", Start: 0.5, End: 0.9},
		{Text: "song", Start: 0.9, End: 1.6},
	}, 36, 7)
}

func TestPlan_SingASong(t *testing.T) {
	sel := layout.NewPaired(singASong(), 0.5)

	states := Plan(sel.Select(0.2), 0.2)
	if len(states) != 1 || len(states[0].Words) != 3 {
		t.Fatalf("unexpected plan: %+v", states)
	}
	ws := states[0].Words
	if ws[0].Tone != ToneWipe || math.Abs(ws[0].Fill-0.4) > 1e-9 {
		t.Fatalf("word 0 = %v %v, want wipe 0.4", ws[0].Tone, ws[0].Fill)
	}
	if ws[1].Tone != ToneUpcoming || ws[2].Tone != ToneUpcoming {
		t.Fatalf("words 1,2 = %v %v, want upcoming", ws[1].Tone, ws[2].Tone)
	}

	ws = Plan(sel.Select(1.0), 1.0)[0].Words
	if ws[0].Tone != ToneSung || ws[1].Tone != ToneSung {
		t.Fatalf("words 0,1 = %v %v, want sung", ws[0].Tone, ws[1].Tone)
	}
	if ws[2].Tone != ToneWipe || math.Abs(ws[2].Fill-0.1/0.7) > 1e-9 {
		t.Fatalf("word 2 = %v %v, want wipe ~0.14", ws[2].Tone, ws[2].Fill)
	}
}

func TestPlan_LinesAroundActive(t *testing.T) {
	lines := []timeline.Line{
		{Words: []timeline.Word{{Text: "a", Start: 0, End: 1}}},
		{Words: []timeline.Word{{Text: "b", Start: 1, End: 2}, {Text: "c", Start: 2, End: 3}}},
		{Words: []timeline.Word{{Text: "d", Start: 3, End: 4}}},
	}
	// an out-of-order word in the line above still renders sung
	lines[0].Words[0].End = 9

	got := Plan(layout.Window{Lines: lines, Active: 1}, 1.5)
	if got[0].Words[0].Tone != ToneSung {
		t.Fatalf("line above active should be sung, got %v", got[0].Words[0].Tone)
	}
	if got[1].Words[0].Tone != ToneWipe || got[1].Words[1].Tone != ToneUpcoming {
		t.Fatalf("active line = %v %v", got[1].Words[0].Tone, got[1].Words[1].Tone)
	}
	if got[2].Words[0].Tone != ToneUpcoming {
		t.Fatalf("line below active should be upcoming, got %v", got[2].Words[0].Tone)
	}

	silent := Plan(layout.Window{Lines: lines, Active: -1, Silence: true, SecondsToNext: 2}, 50)
	for _, ln := range silent {
		for _, ws := range ln.Words {
			if ws.Tone != ToneUpcoming {
				t.Fatalf("silence preview should be upcoming, got %v", ws.Tone)
			}
		}
	}

	if Plan(layout.Window{Done: true, Active: -1}, 0) != nil {
		t.Fatalf("done window should plan no lines")
	}
}

func TestPlan_ZeroLengthWord(t *testing.T) {
	w := timeline.Word{Text: "x", Start: 1, End: 1}
	if tone, _ := wordTone(w, 1); tone != ToneSung {
		t.Fatalf("zero-length word at its end should be sung, got %v", tone)
	}
	w.End = 1.001
	tone, fill := wordTone(w, 1.0005)
	if tone != ToneWipe || math.Abs(fill-0.05) > 1e-9 {
		t.Fatalf("short word wipes over the minimum duration: %v %v", tone, fill)
	}
}

func TestRender_Deterministic(t *testing.T) {
	style := testStyle()
	sel := layout.NewWindowed(singASong(), 4, 0.1)
	a, b := newTestCompositor(t, style), newTestCompositor(t, style)
	for _, ts := range []float64{0.2, 1.0, 1.3, 5} {
		fa, fb, fc := NewFrame(style.Width, style.Height), NewFrame(style.Width, style.Height), NewFrame(style.Width, style.Height)
		a.Render(fa, sel.Select(ts), ts)
		a.Render(fb, sel.Select(ts), ts)
		b.Render(fc, sel.Select(ts), ts)
		if !bytes.Equal(fa.Pix, fb.Pix) || !bytes.Equal(fa.Pix, fc.Pix) {
			t.Fatalf("t=%v: frames differ", ts)
		}
		if len(fa.Pix) != style.Width*style.Height*BytesPerPixel {
			t.Fatalf("frame size %d", len(fa.Pix))
		}
	}
}

func TestWipeMask_Monotonic(t *testing.T) {
	c := newTestCompositor(t, testStyle())
	word := "karaoke"
	prev := -1
	for i := 0; i <= 100; i++ {
		n := countTrue(c.WipeMask(word, float64(i)/100))
		if n < prev {
			t.Fatalf("active glyphs decreased at frac %v: %d < %d", float64(i)/100, n, prev)
		}
		prev = n
	}
	if n := countTrue(c.WipeMask(word, 0)); n != 0 {
		t.Fatalf("frac 0 should have no active glyphs, got %d", n)
	}
	if n := countTrue(c.WipeMask(word, 1)); n != len(word) {
		t.Fatalf("frac 1 should activate every glyph, got %d", n)
	}
}

func TestWipeMask_MidpointBoundary(t *testing.T) {
	c := newTestCompositor(t, testStyle())
	// "ii" has two equal glyphs: the first midpoint sits at a quarter of the
	// word width, the second at three quarters.
	tests := []struct {
		frac float64
		want int
	}{
		{0.2, 0},
		{0.26, 1},
		{0.5, 1},
		{0.74, 1},
		{0.76, 2},
	}
	for _, tt := range tests {
		if n := countTrue(c.WipeMask("ii", tt.frac)); n != tt.want {
			t.Fatalf("frac %v: %d active glyphs, want %d", tt.frac, n, tt.want)
		}
	}
}

func TestRender_Colours(t *testing.T) {
	style := testStyle()
	c := newTestCompositor(t, style)
	sel := layout.NewPaired(singASong(), 0.5)
	f := NewFrame(style.Width, style.Height)

	c.Render(f, sel.Select(1.0), 1.0)
	for name, col := range map[string]color.RGBA{"sung": testPalette.Sung, "active": testPalette.Active, "upcoming": testPalette.Upcoming} {
		if !hasColour(f, col, 0, style.Height) {
			t.Fatalf("expected %s pixels at t=1.0", name)
		}
	}

	c.Render(f, sel.Select(0.0), 0.0)
	if hasColour(f, testPalette.Sung, 0, style.Height) {
		t.Fatalf("no word is sung before the song starts")
	}
}

func TestRender_TitleCard(t *testing.T) {
	style := testStyle()
	f := NewFrame(style.Width, style.Height)
	newTestCompositor(t, style).Render(f, layout.Window{Done: true, Active: -1}, 10)
	if !hasColour(f, testPalette.Upcoming, 0, style.Height) {
		t.Fatalf("expected title text")
	}

	style.Title, style.Artist = "", ""
	newTestCompositor(t, style).Render(f, layout.Window{Done: true, Active: -1}, 10)
	if hasNonBackground(f, 0, style.Height) {
		t.Fatalf("expected blank frame without title or artist")
	}
}

func TestRender_Countdown(t *testing.T) {
	style := testStyle()
	c := newTestCompositor(t, style)
	lines := singASong()
	f := NewFrame(style.Width, style.Height)
	bottom := style.Height * 3 / 4

	c.Render(f, layout.Window{Lines: lines, Active: -1, Silence: true, SecondsToNext: 4.2}, 0)
	if !hasNonBackground(f, bottom, style.Height) {
		t.Fatalf("expected countdown near the bottom")
	}

	c.Render(f, layout.Window{Lines: lines, Active: -1, Silence: true, SecondsToNext: 0.2}, 0)
	if hasNonBackground(f, bottom, style.Height) {
		t.Fatalf("countdown below threshold should not be drawn")
	}
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func hasColour(f *Frame, col color.RGBA, y0, y1 int) bool {
	for y := y0; y < y1; y++ {
		for x := 0; x < f.Width; x++ {
			if r, g, b := f.At(x, y); r == col.R && g == col.G && b == col.B {
				return true
			}
		}
	}
	return false
}

func hasNonBackground(f *Frame, y0, y1 int) bool {
	for y := y0; y < y1; y++ {
		for x := 0; x < f.Width; x++ {
			if r, g, b := f.At(x, y); r != 0 || g != 0 || b != 0 {
				return true
			}
		}
	}
	return false
}
