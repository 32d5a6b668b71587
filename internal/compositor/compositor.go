// Package compositor paints emoji overlays onto copies of a photograph.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/andresmejia3/emojify/internal/types"
	"golang.org/x/image/draw"
)

var (
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrInvalidImage    = errors.New("invalid image")
)

// Placement decides where the overlay lands relative to the face box.
type Placement int

const (
	// Stretch fills the face box exactly, ignoring the overlay's aspect ratio.
	Stretch Placement = iota
	// Fit scales the overlay to a fraction of the face width, keeps its aspect
	// ratio, centers it horizontally and raises it so the eyes line up.
	Fit
)

// fitScale is the emoji width relative to the face width in Fit mode.
const fitScale = 0.9

// maxTargetScale caps a target at this many times the base image's size on
// either axis. Larger boxes come from broken detector output.
const maxTargetScale = 4

func (p Placement) String() string {
	switch p {
	case Stretch:
		return "stretch"
	case Fit:
		return "fit"
	default:
		return fmt.Sprintf("Placement(%d)", int(p))
	}
}

// ParsePlacement accepts "stretch" or "fit".
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "stretch":
		return Stretch, nil
	case "fit":
		return Fit, nil
	}
	return 0, fmt.Errorf("invalid placement '%s'. Must be 'stretch' or 'fit'", s)
}

// Compositor draws overlays. The zero value is not usable; use New.
type Compositor struct {
	Interpolator draw.Interpolator
	Placement    Placement
}

// New returns a compositor that stretches with bilinear sampling.
func New() *Compositor {
	return &Compositor{Interpolator: draw.ApproxBiLinear, Placement: Stretch}
}

var defaultCompositor = New()

// Composite draws overlay over target on a copy of base with the default
// compositor.
func Composite(base, overlay image.Image, target image.Rectangle) (*image.RGBA, error) {
	return defaultCompositor.Composite(base, overlay, target)
}

// Target is the face box in base-image pixels.
func Target(face types.FaceObservation) image.Rectangle {
	return face.Bounds()
}

// Composite returns a new image holding a pixel copy of base with overlay
// alpha-composited into target. base is never written to.
//
// A target with a non-positive width or height, one more than
// maxTargetScale times the size of base, or one lying entirely outside base,
// fails with ErrInvalidGeometry. A target that only partly overlaps base is
// clipped.
func (c *Compositor) Composite(base, overlay image.Image, target image.Rectangle) (*image.RGBA, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty base image", ErrInvalidImage)
	}
	if overlay == nil || overlay.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty overlay image", ErrInvalidImage)
	}
	// Spans are taken in float64 so extreme coordinates cannot wrap around.
	w := float64(target.Max.X) - float64(target.Min.X)
	h := float64(target.Max.Y) - float64(target.Min.Y)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: target %v has non-positive size", ErrInvalidGeometry, target)
	}
	bounds := base.Bounds()
	if w > maxTargetScale*float64(bounds.Dx()) || h > maxTargetScale*float64(bounds.Dy()) {
		return nil, fmt.Errorf("%w: target %v is far larger than image %v", ErrInvalidGeometry, target, bounds)
	}
	if !target.Overlaps(bounds) {
		return nil, fmt.Errorf("%w: target %v lies outside image %v", ErrInvalidGeometry, target, bounds)
	}

	dest, err := c.place(overlay.Bounds(), target)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, base, bounds.Min, draw.Src)

	interp := c.Interpolator
	if interp == nil {
		interp = draw.ApproxBiLinear
	}
	interp.Scale(out, dest, overlay, overlay.Bounds(), draw.Over, nil)
	return out, nil
}

// place computes the destination rectangle of the overlay for target.
func (c *Compositor) place(src, target image.Rectangle) (image.Rectangle, error) {
	switch c.Placement {
	case Stretch:
		return target, nil
	case Fit:
		w := int(math.Round(float64(target.Dx()) * fitScale))
		h := int(math.Round(float64(w) * float64(src.Dy()) / float64(src.Dx())))
		if w <= 0 || h <= 0 {
			return image.Rectangle{}, fmt.Errorf("%w: face %v too small to fit an overlay", ErrInvalidGeometry, target)
		}
		cx := target.Min.X + target.Dx()/2
		cy := target.Min.Y + target.Dy()/2
		min := image.Pt(cx-w/2, cy-h/3)
		return image.Rectangle{Min: min, Max: min.Add(image.Pt(w, h))}, nil
	default:
		return image.Rectangle{}, fmt.Errorf("unknown placement %v", c.Placement)
	}
}
