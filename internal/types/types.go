package types

import (
	"image"
	"math"
)

// ImageTask represents a single input image sent to an engine for processing
type ImageTask struct {
	Index int
	Path  string
}

// FaceObservation is one face reported by a detector.
// X/Y is the top-left corner in image pixel coordinates. Probabilities are
// nominally in [0,1] but detectors are not trusted to clamp them.
type FaceObservation struct {
	X                       float64 `json:"x"`
	Y                       float64 `json:"y"`
	Width                   float64 `json:"width"`
	Height                  float64 `json:"height"`
	SmilingProbability      float64 `json:"smiling"`
	LeftEyeOpenProbability  float64 `json:"left_eye_open"`
	RightEyeOpenProbability float64 `json:"right_eye_open"`
}

// maxCoord bounds every box coordinate so the conversion to int is exact on
// every platform and later arithmetic cannot overflow.
const maxCoord = 1 << 30

// Bounds rounds the face box to whole pixels.
// The rectangle is not canonicalized: a negative width or height stays
// negative so callers can reject it. A box with a non-finite or out-of-range
// value yields the zero rectangle, which has no area.
func (f FaceObservation) Bounds() image.Rectangle {
	for _, v := range []float64{f.X, f.Y, f.Width, f.Height, f.X + f.Width, f.Y + f.Height} {
		if math.IsNaN(v) || math.Abs(v) > maxCoord {
			return image.Rectangle{}
		}
	}
	return image.Rectangle{
		Min: image.Pt(int(math.Round(f.X)), int(math.Round(f.Y))),
		Max: image.Pt(int(math.Round(f.X+f.Width)), int(math.Round(f.Y+f.Height))),
	}
}
