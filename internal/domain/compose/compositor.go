package compose

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/math/fixed"

	"github.com/forPelevin/karaoke/internal/domain/layout"
)

// Palette holds the colour of each word state plus the background.
type Palette struct {
	Upcoming   color.RGBA
	Active     color.RGBA
	Sung       color.RGBA
	Background color.RGBA
}

// Style is the immutable look of a render.
type Style struct {
	Width       int
	Height      int
	FontSize    float64
	LineSpacing int
	// CountdownThreshold hides the silence countdown when fewer seconds remain.
	CountdownThreshold float64
	Palette            Palette
	Title              string
	Artist             string
}

// LoadFont parses a TrueType font file, or the bundled Go Bold face when path is empty.
func LoadFont(path string) (*truetype.Font, error) {
	data := gobold.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = b
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

// Compositor rasterises windows into frames. It keeps a scratch canvas and a
// glyph cache, so a Compositor must not be shared between goroutines; build one
// per worker from the same Style and font.
type Compositor struct {
	style  Style
	face   font.Face
	canvas *image.RGBA
	bg     *image.Uniform
}

func New(style Style, f *truetype.Font) *Compositor {
	face := truetype.NewFace(f, &truetype.Options{
		Size:    style.FontSize,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return &Compositor{
		style:  style,
		face:   face,
		canvas: image.NewRGBA(image.Rect(0, 0, style.Width, style.Height)),
		bg:     image.NewUniform(style.Palette.Background),
	}
}

func (c *Compositor) Style() Style { return c.style }

// Render draws the window as it looks at time t into dst. The result depends
// only on (win, t): identical inputs produce byte-identical frames.
func (c *Compositor) Render(dst *Frame, win layout.Window, t float64) {
	c.clear()
	if win.Done {
		c.drawTitleCard()
	} else {
		c.drawLines(Plan(win, t))
		if win.Silence && win.SecondsToNext >= c.style.CountdownThreshold {
			c.drawCountdown(win.SecondsToNext)
		}
	}
	dst.fromRGBA(c.canvas)
}

func (c *Compositor) clear() {
	pix := c.canvas.Pix
	bg := c.style.Palette.Background
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = bg.R, bg.G, bg.B, 255
	}
}

func (c *Compositor) drawLines(lines []LineState) {
	n := len(lines)
	for i, ln := range lines {
		center := c.style.Height/2 + (2*i-(n-1))*c.style.LineSpacing/2
		c.drawLine(ln, c.baseline(center))
	}
}

// baseline places a text row so its ascent/descent box is centred on centerY.
func (c *Compositor) baseline(centerY int) fixed.Int26_6 {
	m := c.face.Metrics()
	return fixed.I(centerY) + (m.Ascent-m.Descent)/2
}

func (c *Compositor) drawLine(ln LineState, y fixed.Int26_6) {
	widths := make([]fixed.Int26_6, len(ln.Words))
	var total fixed.Int26_6
	for i, ws := range ln.Words {
		widths[i] = font.MeasureString(c.face, ws.Word.Text+" ")
		total += widths[i]
	}
	x := (fixed.I(c.style.Width) - total) / 2
	for i, ws := range ln.Words {
		switch ws.Tone {
		case ToneSung:
			c.drawString(ws.Word.Text, x, y, c.style.Palette.Sung)
		case ToneWipe:
			c.drawWipe(ws.Word.Text, ws.Fill, x, y)
		default:
			c.drawString(ws.Word.Text, x, y, c.style.Palette.Upcoming)
		}
		x += widths[i]
	}
}

func (c *Compositor) drawString(s string, x, y fixed.Int26_6, col color.RGBA) {
	d := font.Drawer{Dst: c.canvas, Src: image.NewUniform(col), Face: c.face, Dot: fixed.Point26_6{X: x, Y: y}}
	d.DrawString(s)
}

// drawWipe renders an active word glyph by glyph; see WipeMask for the rule.
func (c *Compositor) drawWipe(s string, frac float64, x, y fixed.Int26_6) {
	mask := c.WipeMask(s, frac)
	active := image.NewUniform(c.style.Palette.Active)
	upcoming := image.NewUniform(c.style.Palette.Upcoming)
	d := font.Drawer{Dst: c.canvas, Face: c.face, Dot: fixed.Point26_6{X: x, Y: y}}
	prev := rune(-1)
	i := 0
	for _, r := range s {
		if prev >= 0 {
			d.Dot.X += c.face.Kern(prev, r)
		}
		d.Src = upcoming
		if mask[i] {
			d.Src = active
		}
		// DrawString advances Dot past the glyph.
		d.DrawString(string(r))
		prev = r
		i++
	}
}

// WipeMask reports, per rune of s, whether the glyph is drawn in the active
// colour when frac of the word has elapsed.
//
// A glyph is active when its horizontal midpoint lies within frac of the
// word's measured width, counted from the word's left edge. This is a
// per-glyph approximation of a pixel clip: a glyph switches colour as a whole
// once the wipe passes its centre, it is never split mid-glyph. frac == 0
// leaves every glyph upcoming and frac == 1 makes every glyph active.
func (c *Compositor) WipeMask(s string, frac float64) []bool {
	width := font.MeasureString(c.face, s)
	fill := fixed.Int26_6(math.Round(clamp(frac, 0, 1) * float64(width)))
	var mask []bool
	var pen fixed.Int26_6
	prev := rune(-1)
	for _, r := range s {
		if prev >= 0 {
			pen += c.face.Kern(prev, r)
		}
		adv, _ := c.face.GlyphAdvance(r)
		mid := pen + adv/2
		mask = append(mask, frac > 0 && (frac >= 1 || mid <= fill))
		pen += adv
		prev = r
	}
	return mask
}

func (c *Compositor) drawTitleCard() {
	text := c.style.Artist
	switch {
	case c.style.Artist != "" && c.style.Title != "":
		text = c.style.Artist + " -- " + c.style.Title
	case c.style.Title != "":
		text = c.style.Title
	}
	if text == "" {
		return
	}
	c.drawCentered(text, c.baseline(c.style.Height/2), c.style.Palette.Upcoming)
}

// drawCountdown shows whole seconds until the next line, near the bottom edge.
func (c *Compositor) drawCountdown(secs float64) {
	label := strconv.Itoa(int(math.Ceil(secs)))
	c.drawCentered(label, c.baseline(c.style.Height-c.style.Height/8), c.style.Palette.Active)
}

func (c *Compositor) drawCentered(s string, y fixed.Int26_6, col color.RGBA) {
	w := font.MeasureString(c.face, s)
	c.drawString(s, (fixed.I(c.style.Width)-w)/2, y, col)
}
