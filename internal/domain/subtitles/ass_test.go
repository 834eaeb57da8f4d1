package subtitles

import (
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/karaoke/internal/domain/timeline"
)

func testStyle() Style {
	return Style{
		Width: 1920, Height: 1080, FontSize: 72,
		Sung:     color.RGBA{R: 255, G: 220, A: 255},
		Upcoming: color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

func TestRenderKaraokeASS_KTagsAndGaps(t *testing.T) {
	lines := []timeline.Line{{Words: []timeline.Word{
		{Text: "Hello", Start: 1.0, End: 1.3},
		{Text: "world", Start: 1.5, End: 2.0},
	}}}
	ass := RenderKaraokeASS(lines, testStyle())

	want := "Dialogue: 0,0:00:01.00,0:00:02.00,Karaoke,,0,0,0,,{\\k30}Hello {\\k20}{\\k50}world\n"
	if !strings.Contains(ass, want) {
		t.Fatalf("unexpected dialogue line, got:\n%s", ass)
	}
	if !strings.Contains(ass, "PlayResX: 1920") || !strings.Contains(ass, "PlayResY: 1080") {
		t.Fatalf("expected frame size in header:\n%s", ass)
	}
}

func TestRenderKaraokeASS_StyleColors(t *testing.T) {
	ass := RenderKaraokeASS(nil, testStyle())
	if !strings.Contains(ass, "Style: Karaoke,Go,72,&H0000DCFF,&H00FFFFFF,") {
		t.Fatalf("unexpected style line:\n%s", ass)
	}
	if strings.Contains(ass, "Dialogue:") {
		t.Fatalf("no lines should produce no events")
	}
}

func TestRenderKaraokeASS_ZeroLengthAndOverlap(t *testing.T) {
	lines := []timeline.Line{{Words: []timeline.Word{
		{Text: "a", Start: 0, End: 0},
		{Text: "{b}", Start: 0.5, End: 0.4},
	}}}
	ass := RenderKaraokeASS(lines, testStyle())
	if !strings.Contains(ass, "{\\k1}a {\\k49}{\\k1}(b)") {
		t.Fatalf("expected minimum \\k of 1 and sanitized text, got:\n%s", ass)
	}
}

func TestAssTime_Format(t *testing.T) {
	got := assTime(61*time.Second + 234*time.Millisecond)
	if got != "0:01:01.23" {
		t.Fatalf("unexpected assTime: %s", got)
	}
}
