package emoji

// Thresholds are the cutoffs above which a probability counts as true.
// Comparison is strict: a score equal to its threshold is false.
type Thresholds struct {
	Smile   float64
	EyeOpen float64
}

// DefaultThresholds were tuned on real photos.
var DefaultThresholds = Thresholds{Smile: 0.5, EyeOpen: 0.4}

// Expression is the binarized state of a face.
type Expression struct {
	Smiling      bool
	RightEyeOpen bool
	LeftEyeOpen  bool
}

// expressionTable is indexed by smiling<<2 | rightEyeOpen<<1 | leftEyeOpen.
// Every 3-bit tuple has exactly one entry.
var expressionTable = [8]Emoji{
	0b000: ClosedEyesFrowning,
	0b001: RightWinkFrowning,
	0b010: LeftWinkFrowning,
	0b011: Frowning,
	0b100: ClosedEyesSmiling,
	0b101: RightWink,
	0b110: LeftWink,
	0b111: Smiling,
}

func (x Expression) index() int {
	i := 0
	if x.Smiling {
		i |= 0b100
	}
	if x.RightEyeOpen {
		i |= 0b010
	}
	if x.LeftEyeOpen {
		i |= 0b001
	}
	return i
}

// Emoji looks the expression up in the decision table.
func (x Expression) Emoji() Emoji {
	return expressionTable[x.index()]
}

// Expression returns the facial state that classifies as e.
// It is the inverse of Expression.Emoji.
func (e Emoji) Expression() Expression {
	for i, candidate := range expressionTable {
		if candidate == e {
			return Expression{
				Smiling:      i&0b100 != 0,
				RightEyeOpen: i&0b010 != 0,
				LeftEyeOpen:  i&0b001 != 0,
			}
		}
	}
	return Expression{}
}

// Binarize compares each probability against its threshold.
// NaN never exceeds a threshold, so it reads as false.
func (t Thresholds) Binarize(smiling, leftEyeOpen, rightEyeOpen float64) Expression {
	return Expression{
		Smiling:      smiling > t.Smile,
		RightEyeOpen: rightEyeOpen > t.EyeOpen,
		LeftEyeOpen:  leftEyeOpen > t.EyeOpen,
	}
}

// Classify maps the three probabilities to a category. It is total over
// float64 inputs and has no side effects.
func (t Thresholds) Classify(smiling, leftEyeOpen, rightEyeOpen float64) Emoji {
	return t.Binarize(smiling, leftEyeOpen, rightEyeOpen).Emoji()
}

// Classify uses DefaultThresholds.
func Classify(smiling, leftEyeOpen, rightEyeOpen float64) Emoji {
	return DefaultThresholds.Classify(smiling, leftEyeOpen, rightEyeOpen)
}
