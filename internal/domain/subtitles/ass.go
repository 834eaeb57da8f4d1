package subtitles

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/forPelevin/karaoke/internal/domain/timeline"
)

// Style is the subset of render settings mirrored into the ASS header.
type Style struct {
	Width    int
	Height   int
	FontName string
	FontSize float64
	// Sung is the color a word turns once its \k timer elapses; Upcoming is
	// the color before that.
	Sung     color.RGBA
	Upcoming color.RGBA
	Outline  color.RGBA
}

const styleName = "Karaoke"

// RenderKaraokeASS exports segmented lines as an ASS script with one Dialogue
// event per line and a \k tag per word. Gaps between words become empty \k
// runs so highlighting stays aligned with the audio.
func RenderKaraokeASS(lines []timeline.Line, st Style) string {
	var b strings.Builder
	b.WriteString(assHeader(st))
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ln := range lines {
		if len(ln.Words) == 0 {
			continue
		}
		start, end := dur(ln.Start()), dur(ln.End())
		if end < start {
			end = start
		}
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(start))
		b.WriteString(",")
		b.WriteString(assTime(end))
		b.WriteString(",")
		b.WriteString(styleName)
		b.WriteString(",,0,0,0,,")

		cursor := start
		for i, w := range ln.Words {
			ws, we := dur(w.Start), dur(w.End)
			if gap := centis(ws - cursor); gap > 0 {
				fmt.Fprintf(&b, "{\\k%d}", gap)
			}
			if ws < cursor {
				ws = cursor
			}
			k := centis(we - ws)
			if k < 1 {
				k = 1
			}
			fmt.Fprintf(&b, "{\\k%d}%s", k, sanitizeASS(w.Text))
			if i < len(ln.Words)-1 {
				b.WriteString(" ")
			}
			cursor = ws + time.Duration(k)*10*time.Millisecond
		}
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader(st Style) string {
	font := st.FontName
	if font == "" {
		font = "Go"
	}
	return fmt.Sprintf(strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: %s,%s,%d,%s,%s,%s,&H64000000,1,0,0,0,100,100,0,0,1,3,0,5,40,40,40,1
`), st.Width, st.Height, styleName, font, int(st.FontSize+0.5), assColor(st.Sung), assColor(st.Upcoming), assColor(st.Outline))
}

// assColor encodes c as &HAABBGGRR with alpha 00 meaning opaque.
func assColor(c color.RGBA) string {
	return fmt.Sprintf("&H%02X%02X%02X%02X", 0xff-c.A, c.B, c.G, c.R)
}

func centis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + 5*time.Millisecond) / (10 * time.Millisecond))
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
