package mediaproxy

import (
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderWidth  = 400
	placeholderHeight = 300
)

type Placeholder struct {
	ContentType string
	Body        []byte
}

type palette struct {
	background color.RGBA
	text       color.RGBA
	bgHex      string
	textHex    string
}

var (
	neutralPalette = palette{
		background: color.RGBA{0xf3, 0xf4, 0xf6, 0xff},
		text:       color.RGBA{0x9c, 0xa3, 0xaf, 0xff},
		bgHex:      "#f3f4f6",
		textHex:    "#9ca3af",
	}
	errorPalette = palette{
		background: color.RGBA{0xfe, 0xe2, 0xe2, 0xff},
		text:       color.RGBA{0xdc, 0x26, 0x26, 0xff},
		bgHex:      "#fee2e2",
		textHex:    "#dc2626",
	}
)

// RenderPlaceholder draws a 400x300 card with label centred on it. Format
// "png" yields a raster image; anything else yields SVG.
func RenderPlaceholder(format, label string, failed bool) Placeholder {
	p := neutralPalette
	if failed {
		p = errorPalette
	}
	if strings.EqualFold(format, "png") {
		if b, err := renderPNG(label, p); err == nil {
			return Placeholder{ContentType: "image/png", Body: b}
		}
	}
	return Placeholder{ContentType: "image/svg+xml", Body: renderSVG(label, p)}
}

func renderSVG(label string, p palette) []byte {
	return []byte(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+
		`<rect width="100%%" height="100%%" fill="%s"/>`+
		`<text x="50%%" y="50%%" text-anchor="middle" dy="0.3em" fill="%s" font-family="system-ui" font-size="16">%s</text>`+
		`</svg>`,
		placeholderWidth, placeholderHeight, p.bgHex, p.textHex, html.EscapeString(label)))
}

// renderPNG uses the 7x13 bitmap face, which only covers ASCII; other
// runes are drawn as the face's fallback glyph.
func renderPNG(label string, p palette) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: p.background}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(p.text), Face: face}
	width := d.MeasureString(label)
	x := (fixed.I(placeholderWidth) - width) / 2
	if x < 0 {
		x = 0
	}
	d.Dot = fixed.Point26_6{X: x, Y: fixed.I(placeholderHeight/2 + face.Ascent/2)}
	d.DrawString(label)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
