// Package emoji holds the closed set of emoji categories and the classifier
// that maps facial-expression probabilities onto them.
package emoji

import (
	"fmt"
	"strings"
)

// Emoji is one of the eight expression categories.
type Emoji int

const (
	Smiling Emoji = iota
	Frowning
	LeftWink
	RightWink
	LeftWinkFrowning
	RightWinkFrowning
	ClosedEyesSmiling
	ClosedEyesFrowning

	// Count is the number of categories. Keep it last.
	Count
)

var names = [Count]string{
	Smiling:            "SMILING",
	Frowning:           "FROWNING",
	LeftWink:           "LEFT_WINK",
	RightWink:          "RIGHT_WINK",
	LeftWinkFrowning:   "LEFT_WINK_FROWNING",
	RightWinkFrowning:  "RIGHT_WINK_FROWNING",
	ClosedEyesSmiling:  "CLOSED_EYES_SMILING",
	ClosedEyesFrowning: "CLOSED_EYES_FROWNING",
}

// assetNames are the resource file stems, one per category.
var assetNames = [Count]string{
	Smiling:            "smile",
	Frowning:           "frown",
	LeftWink:           "leftwink",
	RightWink:          "rightwink",
	LeftWinkFrowning:   "leftwinkfrown",
	RightWinkFrowning:  "rightwinkfrown",
	ClosedEyesSmiling:  "closed_smile",
	ClosedEyesFrowning: "closed_frown",
}

// All returns every category in declaration order.
func All() []Emoji {
	all := make([]Emoji, 0, Count)
	for e := Emoji(0); e < Count; e++ {
		all = append(all, e)
	}
	return all
}

// Valid reports whether e is one of the eight categories.
func (e Emoji) Valid() bool {
	return e >= 0 && e < Count
}

func (e Emoji) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Emoji(%d)", int(e))
	}
	return names[e]
}

// AssetName returns the file stem used to load the category's image.
func (e Emoji) AssetName() string {
	if !e.Valid() {
		return ""
	}
	return assetNames[e]
}

// Parse is the inverse of String. Matching is case-insensitive.
func Parse(s string) (Emoji, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for e, name := range names {
		if name == want {
			return Emoji(e), nil
		}
	}
	return 0, fmt.Errorf("unknown emoji %q", s)
}
