package emoji

import (
	"math"
	"testing"
)

func TestClassifyDecisionTable(t *testing.T) {
	// Boundary-adjacent probabilities: just above / at-or-below each threshold.
	const (
		yesSmile = 0.51
		noSmile  = 0.5
		yesEye   = 0.41
		noEye    = 0.4
	)

	tests := []struct {
		name         string
		smiling      bool
		rightEyeOpen bool
		leftEyeOpen  bool
		want         Emoji
	}{
		{"all true", true, true, true, Smiling},
		{"not smiling, eyes open", false, true, true, Frowning},
		{"smiling, left closed", true, true, false, LeftWink},
		{"smiling, right closed", true, false, true, RightWink},
		{"frowning, left closed", false, true, false, LeftWinkFrowning},
		{"frowning, right closed", false, false, true, RightWinkFrowning},
		{"smiling, eyes closed", true, false, false, ClosedEyesSmiling},
		{"all false", false, false, false, ClosedEyesFrowning},
	}

	pick := func(b bool, yes, no float64) float64 {
		if b {
			return yes
		}
		return no
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := pick(tt.smiling, yesSmile, noSmile)
			r := pick(tt.rightEyeOpen, yesEye, noEye)
			l := pick(tt.leftEyeOpen, yesEye, noEye)
			if got := Classify(s, l, r); got != tt.want {
				t.Errorf("Classify(%v, %v, %v) = %v, want %v", s, l, r, got, tt.want)
			}
		})
	}
}

func TestClassifyTableIsBijection(t *testing.T) {
	seen := make(map[Emoji]Expression)
	for bits := 0; bits < 8; bits++ {
		x := Expression{
			Smiling:      bits&0b100 != 0,
			RightEyeOpen: bits&0b010 != 0,
			LeftEyeOpen:  bits&0b001 != 0,
		}
		e := x.Emoji()
		if !e.Valid() {
			t.Fatalf("expression %+v mapped to invalid category %d", x, e)
		}
		if prev, dup := seen[e]; dup {
			t.Fatalf("%v reached by both %+v and %+v", e, prev, x)
		}
		seen[e] = x

		if back := e.Expression(); back != x {
			t.Errorf("%v.Expression() = %+v, want %+v", e, back, x)
		}
	}
	if len(seen) != int(Count) {
		t.Errorf("table covers %d categories, want %d", len(seen), Count)
	}
}

func TestClassifyAtThresholdIsFalse(t *testing.T) {
	if got := Classify(0.5, 0.4, 0.4); got != ClosedEyesFrowning {
		t.Errorf("Classify(0.5, 0.4, 0.4) = %v, want %v", got, ClosedEyesFrowning)
	}
	if got := Classify(0.51, 0.4, 0.4); got != ClosedEyesSmiling {
		t.Errorf("Classify(0.51, 0.4, 0.4) = %v, want %v", got, ClosedEyesSmiling)
	}
}

func TestClassifyIsTotal(t *testing.T) {
	odd := []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1, 2, 0, 1}
	for _, s := range odd {
		for _, l := range odd {
			for _, r := range odd {
				if got := Classify(s, l, r); !got.Valid() {
					t.Errorf("Classify(%v, %v, %v) = %d, not a valid category", s, l, r, got)
				}
			}
		}
	}

	nan := math.NaN()
	if got := Classify(nan, nan, nan); got != ClosedEyesFrowning {
		t.Errorf("NaN scores should read as false, got %v", got)
	}
}

func TestCustomThresholds(t *testing.T) {
	strict := Thresholds{Smile: 0.9, EyeOpen: 0.8}
	if got := strict.Classify(0.85, 0.85, 0.85); got != Frowning {
		t.Errorf("strict.Classify(0.85, 0.85, 0.85) = %v, want %v", got, Frowning)
	}

	lenient := Thresholds{Smile: 0.1, EyeOpen: 0.1}
	if got := lenient.Classify(0.2, 0.05, 0.2); got != LeftWink {
		t.Errorf("lenient.Classify(0.2, 0.05, 0.2) = %v, want %v", got, LeftWink)
	}
}

func TestEndToEndScores(t *testing.T) {
	if got := Classify(0.9, 0.9, 0.9); got != Smiling {
		t.Errorf("Classify(0.9, 0.9, 0.9) = %v, want SMILING", got)
	}
	if got := Classify(0.1, 0.1, 0.1); got != ClosedEyesFrowning {
		t.Errorf("Classify(0.1, 0.1, 0.1) = %v, want CLOSED_EYES_FROWNING", got)
	}
}
