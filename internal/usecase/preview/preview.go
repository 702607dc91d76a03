package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultSize    = 256
	DefaultQuality = 80

	minSize      = 32
	captionRatio = 0.14
	captionPad   = 6
)

var (
	bandColor = color.RGBA{A: 170}
	textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Renderer turns an archived upload into a small square JPEG with the
// engine's verdict printed along the bottom edge, for reviewing samples
// without downloading the originals.
type Renderer struct {
	size    int
	quality int
	font    *truetype.Font
}

func NewRenderer(size, quality int) (*Renderer, error) {
	if size < minSize {
		size = DefaultSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFont, err)
	}

	return &Renderer{size: size, quality: quality, font: f}, nil
}

func (r *Renderer) Size() int {
	return r.size
}

func (r *Renderer) Render(data []byte, caption string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	thumb := cropSquare(img, r.size)
	if caption != "" {
		if err := r.drawCaption(thumb, caption); err != nil {
			return nil, err
		}
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, thumb, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// cropSquare takes the centered square of img and scales it to size x size.
func cropSquare(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}

	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, image.Rect(x0, y0, x0+side, y0+side), xdraw.Src, nil)
	return dst
}

func (r *Renderer) drawCaption(dst *image.RGBA, caption string) error {
	b := dst.Bounds()
	bandHeight := int(float64(b.Dy()) * captionRatio)
	if bandHeight < 12 {
		bandHeight = 12
	}
	band := image.Rect(b.Min.X, b.Max.Y-bandHeight, b.Max.X, b.Max.Y)
	draw.Draw(dst, band, image.NewUniform(bandColor), image.Point{}, draw.Over)

	fontSize := float64(bandHeight - 2*captionPad)
	if fontSize < 8 {
		fontSize = 8
	}

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(r.font)
	c.SetFontSize(fontSize)
	c.SetClip(band)
	c.SetDst(dst)
	c.SetSrc(image.NewUniform(textColor))
	c.SetHinting(font.HintingFull)

	pt := freetype.Pt(band.Min.X+captionPad, band.Max.Y-captionPad)
	if _, err := c.DrawString(caption, pt); err != nil {
		return fmt.Errorf("failed to draw caption: %w", err)
	}
	return nil
}
