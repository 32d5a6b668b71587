package assets

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/andresmejia3/emojify/internal/emoji"
	"golang.org/x/image/vector"
)

// DefaultSize is the edge length of the built-in artwork.
const DefaultSize = 256

const minSize = 16

// arcSegments is how many line segments approximate a full circle.
const arcSegments = 96

var (
	faceFill    = color.RGBA{255, 204, 77, 255}
	faceOutline = color.RGBA{230, 150, 30, 255}
	feature     = color.RGBA{70, 45, 20, 255}
)

// Builtin renders a complete table of simple flat emoji, size pixels square.
func Builtin(size int) Table {
	table := make(Table, emoji.Count)
	for _, e := range emoji.All() {
		table[e] = Render(e, size)
	}
	return table
}

// Render draws the emoji for e from its expression: open eyes are dots,
// closed eyes are bars, the mouth is a smile or frown arc. The background is
// transparent and edges are anti-aliased.
func Render(e emoji.Emoji, size int) *image.RGBA {
	if size < minSize {
		size = minSize
	}
	s := float32(size)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	p := &painter{img: img, z: vector.NewRasterizer(size, size)}
	x := e.Expression()

	c := s / 2
	p.fill(faceOutline, func(z *vector.Rasterizer) { disc(z, c, c, 0.47*s) })
	p.fill(faceFill, func(z *vector.Rasterizer) { disc(z, c, c, 0.44*s) })

	p.fill(feature, func(z *vector.Rasterizer) {
		// The subject's right eye is on the viewer's left.
		eye(z, 0.35*s, 0.40*s, s, x.RightEyeOpen)
		eye(z, 0.65*s, 0.40*s, s, x.LeftEyeOpen)

		if x.Smiling {
			halfRing(z, c, 0.55*s, 0.22*s, 0.045*s, 0)
		} else {
			halfRing(z, c, 0.88*s, 0.20*s, 0.045*s, math.Pi)
		}
	})
	return img
}

// painter fills one path at a time onto img with a single colour.
type painter struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

func (p *painter) fill(col color.RGBA, path func(z *vector.Rasterizer)) {
	b := p.img.Bounds()
	p.z.Reset(b.Dx(), b.Dy())
	p.z.DrawOp = draw.Over
	path(p.z)
	p.z.Draw(p.img, b, image.NewUniform(col), image.Point{})
}

func eye(z *vector.Rasterizer, cx, cy, s float32, open bool) {
	if open {
		disc(z, cx, cy, 0.06*s)
		return
	}
	box(z, cx-0.08*s, cy-0.015*s, cx+0.08*s, cy+0.015*s)
}

func disc(z *vector.Rasterizer, cx, cy, r float32) {
	z.MoveTo(cx+r, cy)
	arc(z, cx, cy, r, 0, 2*math.Pi)
	z.ClosePath()
}

func box(z *vector.Rasterizer, x0, y0, x1, y1 float32) {
	z.MoveTo(x0, y0)
	z.LineTo(x1, y0)
	z.LineTo(x1, y1)
	z.LineTo(x0, y1)
	z.ClosePath()
}

// halfRing adds half a ring of radius r and width w starting at angle from
// (radians, y pointing down): 0 gives the lower half (a smile), Pi the upper
// half (a frown).
func halfRing(z *vector.Rasterizer, cx, cy, r, w float32, from float64) {
	outer, inner := r+w/2, r-w/2
	to := from + math.Pi
	z.MoveTo(pointOn(cx, cy, outer, from))
	arc(z, cx, cy, outer, from, to)
	z.LineTo(pointOn(cx, cy, inner, to))
	arc(z, cx, cy, inner, to, from)
	z.ClosePath()
}

// arc continues the current path along the circle from angle a0 to a1.
func arc(z *vector.Rasterizer, cx, cy, r float32, a0, a1 float64) {
	n := int(math.Ceil(math.Abs(a1-a0) / (2 * math.Pi) * arcSegments))
	for i := 1; i <= n; i++ {
		z.LineTo(pointOn(cx, cy, r, a0+(a1-a0)*float64(i)/float64(n)))
	}
}

func pointOn(cx, cy, r float32, a float64) (float32, float32) {
	return cx + r*float32(math.Cos(a)), cy + r*float32(math.Sin(a))
}
