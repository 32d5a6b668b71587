//go:generate go run go.uber.org/mock/mockgen -source=emojifier.go -destination=../mocks/mock_detector.go -package=mocks

// Package emojifier drives one image through detection, classification and
// compositing.
package emojifier

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/andresmejia3/emojify/internal/assets"
	"github.com/andresmejia3/emojify/internal/compositor"
	"github.com/andresmejia3/emojify/internal/emoji"
	"github.com/andresmejia3/emojify/internal/logger"
	"github.com/andresmejia3/emojify/internal/types"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Detector finds faces and scores their expressions.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]types.FaceObservation, error)
}

// FaceResult is the outcome for one detected face.
type FaceResult struct {
	Index       int
	Observation types.FaceObservation
	Emoji       emoji.Emoji
	// Skipped is set when the face had unusable geometry and WithSkipInvalid
	// was enabled.
	Skipped bool
}

// Result of one Emojify call. When NoFaces is true, Image is the input
// image itself, untouched.
type Result struct {
	Image   image.Image
	Faces   []FaceResult
	NoFaces bool
}

// Counts tallies the categories drawn, skipping faces that were not drawn.
func (r *Result) Counts() map[emoji.Emoji]int {
	drawn := lo.Reject(r.Faces, func(f FaceResult, _ int) bool { return f.Skipped })
	return lo.CountValuesBy(drawn, func(f FaceResult) emoji.Emoji { return f.Emoji })
}

type Emojifier struct {
	detector    Detector
	assets      assets.Table
	thresholds  emoji.Thresholds
	compositor  *compositor.Compositor
	log         *logrus.Logger
	skipInvalid bool
}

type Option func(*Emojifier)

func WithThresholds(t emoji.Thresholds) Option {
	return func(e *Emojifier) { e.thresholds = t }
}

func WithCompositor(c *compositor.Compositor) Option {
	return func(e *Emojifier) { e.compositor = c }
}

func WithLogger(log *logrus.Logger) Option {
	return func(e *Emojifier) { e.log = log }
}

// WithSkipInvalid makes faces with invalid geometry a logged warning
// instead of a failure for the whole image.
func WithSkipInvalid(skip bool) Option {
	return func(e *Emojifier) { e.skipInvalid = skip }
}

// New checks that table covers every category before anything is drawn.
func New(detector Detector, table assets.Table, opts ...Option) (*Emojifier, error) {
	if detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	e := &Emojifier{
		detector:   detector,
		assets:     table,
		thresholds: emoji.DefaultThresholds,
		compositor: compositor.New(),
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Emojify detects the faces in img and draws the matching emoji over each,
// in the order the detector returned them. img is never modified.
func (e *Emojifier) Emojify(ctx context.Context, img image.Image) (*Result, error) {
	faces, err := e.detector.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	e.log.WithField("faces", len(faces)).Debug("detection finished")

	if len(faces) == 0 {
		return &Result{Image: img, NoFaces: true}, nil
	}

	res := &Result{Image: img, Faces: make([]FaceResult, 0, len(faces))}
	for i, face := range faces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		kind := e.thresholds.Classify(face.SmilingProbability, face.LeftEyeOpenProbability, face.RightEyeOpenProbability)
		e.log.WithFields(logger.Fields{
			"face":           i,
			"smiling":        face.SmilingProbability,
			"left_eye_open":  face.LeftEyeOpenProbability,
			"right_eye_open": face.RightEyeOpenProbability,
			"emoji":          kind.String(),
		}).Debug("classified face")

		overlay, err := e.assets.Lookup(kind)
		if err != nil {
			return nil, err
		}

		fr := FaceResult{Index: i, Observation: face, Emoji: kind}
		next, err := e.compositor.Composite(res.Image, overlay, compositor.Target(face))
		if err != nil {
			if e.skipInvalid && errors.Is(err, compositor.ErrInvalidGeometry) {
				e.log.WithField("face", i).WithError(err).Warn("skipping face with invalid geometry")
				fr.Skipped = true
				res.Faces = append(res.Faces, fr)
				continue
			}
			return nil, fmt.Errorf("face %d: %w", i, err)
		}

		res.Image = next
		res.Faces = append(res.Faces, fr)
	}
	return res, nil
}
