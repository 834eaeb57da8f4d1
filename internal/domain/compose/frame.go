package compose

import "image"

// BytesPerPixel is fixed: frames are packed 8-bit RGB (ffmpeg's rgb24).
const BytesPerPixel = 3

// Frame is one packed RGB raster, row-major, no padding.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Pix: make([]byte, width*height*BytesPerPixel)}
}

// At returns the RGB triple at (x, y).
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * BytesPerPixel
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

func (f *Frame) fromRGBA(src *image.RGBA) {
	b := src.Bounds()
	f.Width, f.Height = b.Dx(), b.Dy()
	if n := f.Width * f.Height * BytesPerPixel; len(f.Pix) != n {
		f.Pix = make([]byte, n)
	}
	j := 0
	for i := 0; i < len(src.Pix); i += 4 {
		f.Pix[j], f.Pix[j+1], f.Pix[j+2] = src.Pix[i], src.Pix[i+1], src.Pix[i+2]
		j += 3
	}
}
