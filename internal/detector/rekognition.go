// Package detector holds the Detector backends that do not need the Python
// process: AWS Rekognition and static JSON fixtures.
package detector

import (
	"context"
	"fmt"
	"image"

	"github.com/andresmejia3/emojify/internal/types"
	"github.com/andresmejia3/emojify/internal/utils"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
)

// RekognitionAPI is the part of the Rekognition client we call.
type RekognitionAPI interface {
	DetectFacesWithContext(ctx aws.Context, input *rekognition.DetectFacesInput, opts ...request.Option) (*rekognition.DetectFacesOutput, error)
}

type Rekognition struct {
	client RekognitionAPI
}

// NewRekognition uses the default credential chain (env, shared config, role).
func NewRekognition(region string) (*Rekognition, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewRekognitionWithClient(rekognition.New(sess)), nil
}

func NewRekognitionWithClient(client RekognitionAPI) *Rekognition {
	return &Rekognition{client: client}
}

func (r *Rekognition) Detect(ctx context.Context, img image.Image) ([]types.FaceObservation, error) {
	frame, err := utils.EncodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	out, err := r.client.DetectFacesWithContext(ctx, &rekognition.DetectFacesInput{
		Image:      &rekognition.Image{Bytes: frame},
		Attributes: aws.StringSlice([]string{rekognition.AttributeAll}),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition DetectFaces: %w", err)
	}

	b := img.Bounds()
	faces := make([]types.FaceObservation, 0, len(out.FaceDetails))
	for _, fd := range out.FaceDetails {
		if fd == nil || fd.BoundingBox == nil {
			continue
		}
		box := fd.BoundingBox
		eyes := eyesOpen(fd.EyesOpen)
		faces = append(faces, types.FaceObservation{
			X:                       float64(b.Min.X) + aws.Float64Value(box.Left)*float64(b.Dx()),
			Y:                       float64(b.Min.Y) + aws.Float64Value(box.Top)*float64(b.Dy()),
			Width:                   aws.Float64Value(box.Width) * float64(b.Dx()),
			Height:                  aws.Float64Value(box.Height) * float64(b.Dy()),
			SmilingProbability:      smiling(fd.Smile),
			LeftEyeOpenProbability:  eyes,
			RightEyeOpenProbability: eyes,
		})
	}
	return faces, nil
}

func smiling(s *rekognition.Smile) float64 {
	if s == nil {
		return 0
	}
	return probability(s.Value, s.Confidence)
}

// Rekognition reports one EyesOpen attribute; it stands in for both eyes.
func eyesOpen(e *rekognition.EyeOpen) float64 {
	if e == nil {
		return 0
	}
	return probability(e.Value, e.Confidence)
}

// probability turns a boolean verdict plus confidence (0-100) into the
// probability that the attribute holds.
func probability(value *bool, confidence *float64) float64 {
	if value == nil || confidence == nil {
		return 0
	}
	c := aws.Float64Value(confidence) / 100
	if aws.BoolValue(value) {
		return c
	}
	return 1 - c
}
