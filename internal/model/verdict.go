package model

import (
	"encoding/json"
	"fmt"
)

// Label is the canonical, channel-agnostic classification.
type Label string

// Label constants.
const (
	LabelSafe       Label = "SAFE"
	LabelSuspicious Label = "SUSPICIOUS"
)

// IsValid reports whether l is one of the two canonical labels.
func (l Label) IsValid() bool {
	return l == LabelSafe || l == LabelSuspicious
}

// ConfidenceScale records the scale a backend supplied its confidence on.
type ConfidenceScale string

// Confidence scales.
const (
	// ScaleFraction values lie in [0,1].
	ScaleFraction ConfidenceScale = "fraction"
	// ScalePercent values lie in [0,100]. Only the SMS backend reports this way.
	ScalePercent ConfidenceScale = "percent"
)

// Confidence is a backend confidence kept exactly as supplied together with
// its scale. Use Fraction or Percent to compare across channels.
type Confidence struct {
	Scale ConfidenceScale
	Value float64
}

// Fraction returns the confidence on the [0,1] scale.
func (c Confidence) Fraction() float64 {
	if c.Scale == ScalePercent {
		return c.Value / 100
	}
	return c.Value
}

// Percent returns the confidence on the [0,100] scale.
func (c Confidence) Percent() float64 {
	if c.Scale == ScalePercent {
		return c.Value
	}
	return c.Value * 100
}

func (c Confidence) String() string {
	return fmt.Sprintf("%.2f%%", c.Percent())
}

// Verdict is the single shape every channel's response is normalized into.
type Verdict struct {
	Confidence  *Confidence
	Channel     Channel
	Label       Label
	SubjectEcho string
	// Display is the channel's own wording for the label, e.g. "Spam / Unsafe".
	Display string
	// Raw is the untouched backend payload. It is kept for diagnostics only.
	Raw json.RawMessage
}

// IsSuspicious reports whether the verdict flags the subject.
func (v Verdict) IsSuspicious() bool {
	return v.Label == LabelSuspicious
}
