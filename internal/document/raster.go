package document

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultScale is the upscaling applied to page dimensions when rasterizing.
const DefaultScale = 4.0

// RenderError is returned when a page cannot be rasterized.
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render page %d: %v", e.Page+1, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Raster holds one RGBA8 buffer per page. Width and Height are taken from the
// first page.
type Raster struct {
	Pages  [][]byte
	Width  int
	Height int
}

// Image wraps page i's buffer without copying.
func (r *Raster) Image(i int) *image.RGBA {
	return &image.RGBA{
		Pix:    r.Pages[i],
		Stride: 4 * r.Width,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

var (
	fontsOnce sync.Once
	fonts     map[Font]*opentype.Font
	fontsErr  error
)

func loadFonts() (map[Font]*opentype.Font, error) {
	fontsOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontsErr = err
			return
		}
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			fontsErr = err
			return
		}
		fonts = map[Font]*opentype.Font{Helvetica: regular, HelveticaBold: bold}
	})
	return fonts, fontsErr
}

// Rasterize renders every page at scale.
func Rasterize(d *Document, scale float64) (*Raster, error) {
	if len(d.pages) == 0 {
		return nil, &RenderError{Err: errors.New("document has no pages")}
	}
	out := &Raster{
		Width:  int(math.Round(scale * d.pages[0].width)),
		Height: int(math.Round(scale * d.pages[0].height)),
	}
	for i, p := range d.pages {
		img, err := RenderPage(p, scale)
		if err != nil {
			return nil, &RenderError{Page: i, Err: err}
		}
		if img.Rect.Dx() != out.Width || img.Rect.Dy() != out.Height {
			return nil, &RenderError{Page: i, Err: errors.New("page size differs from first page")}
		}
		out.Pages = append(out.Pages, img.Pix)
	}
	return out, nil
}

type faceKey struct {
	font Font
	size float64
}

// RenderPage draws one page on a white background.
func RenderPage(p *Page, scale float64) (*image.RGBA, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("invalid scale %v", scale)
	}
	fs, err := loadFonts()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	w := int(math.Round(scale * p.width))
	h := int(math.Round(scale * p.height))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	faces := make(map[faceKey]font.Face)
	defer func() {
		for _, f := range faces {
			f.Close()
		}
	}()
	face := func(f Font, size float64) (font.Face, error) {
		k := faceKey{f, size}
		if fc, ok := faces[k]; ok {
			return fc, nil
		}
		fc, err := opentype.NewFace(fs[f], &opentype.FaceOptions{
			Size:    size * scale,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, err
		}
		faces[k] = fc
		return fc, nil
	}

	for _, o := range p.ops {
		switch o.kind {
		case opLine:
			drawLine(img, o, scale)
		case opText:
			fc, err := face(o.font, o.size)
			if err != nil {
				return nil, err
			}
			drawText(img, fc, o, scale)
		}
	}
	return img, nil
}

func drawText(img *image.RGBA, fc font.Face, o op, scale float64) {
	bx, by := o.x*scale, o.y*scale
	bw, bh := o.w*scale, o.h*scale

	tw := float64(font.MeasureString(fc, o.text).Ceil())
	x := bx
	switch o.align {
	case AlignCenter:
		x = bx + (bw-tw)/2
	case AlignRight:
		x = bx + bw - tw
	}

	m := fc.Metrics()
	ascent, descent := float64(m.Ascent.Ceil()), float64(m.Descent.Ceil())
	baseline := by + (bh+ascent-descent)/2

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: fc,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(baseline))),
	}
	d.DrawString(o.text)
}

func drawLine(img *image.RGBA, o op, scale float64) {
	t := math.Max(1, o.lineWidth*scale)
	x1, y1 := o.x*scale, o.y*scale
	x2, y2 := o.x2*scale, o.y2*scale

	var r image.Rectangle
	switch {
	case y1 == y2:
		r = image.Rect(int(math.Round(x1)), int(math.Round(y1-t/2)), int(math.Round(x2)), int(math.Round(y1+t/2)))
	case x1 == x2:
		r = image.Rect(int(math.Round(x1-t/2)), int(math.Round(y1)), int(math.Round(x1+t/2)), int(math.Round(y2)))
	default:
		// only axis-aligned lines are produced
		return
	}
	draw.Draw(img, r.Canon(), image.Black, image.Point{}, draw.Src)
}
