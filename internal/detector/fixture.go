package detector

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/andresmejia3/emojify/internal/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fixture returns the same observations for every image.
type Fixture struct {
	Faces []types.FaceObservation
}

// LoadFixture reads a JSON array of observations, e.g.
//
//	[{"x": 10, "y": 20, "width": 80, "height": 80, "smiling": 0.9, "left_eye_open": 0.8, "right_eye_open": 0.7}]
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var faces []types.FaceObservation
	if err := json.Unmarshal(data, &faces); err != nil {
		return nil, fmt.Errorf("invalid fixture %s: %w", path, err)
	}
	return &Fixture{Faces: faces}, nil
}

func (f *Fixture) Detect(ctx context.Context, _ image.Image) ([]types.FaceObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]types.FaceObservation, len(f.Faces))
	copy(out, f.Faces)
	return out, nil
}
