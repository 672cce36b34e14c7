// Package normalize maps the channel specific response bodies of the
// classification service onto the canonical model.Verdict.
//
// Each channel is described by one Rule in Rules. Adding a channel means
// adding a row, not new branching.
package normalize

import "github.com/Veraticus/sakhi/internal/model"

// ValueKind is the JSON type the label field is expected to hold.
type ValueKind int

// Label field kinds.
const (
	KindString ValueKind = iota
	KindInt
)

// ConfidenceMode describes where a channel reports its confidence.
type ConfidenceMode int

// Confidence modes.
const (
	// ConfidenceNone ignores any confidence the backend sends.
	ConfidenceNone ConfidenceMode = iota
	// ConfidenceDirect reads a single number from Field.
	ConfidenceDirect
	// ConfidenceIndexed reads Field[label value], the label being an integer class.
	ConfidenceIndexed
)

// LabelRule maps the backend's raw label onto the canonical label.
type LabelRule struct {
	Field string
	// Suspicious is the raw value meaning Suspicious. Any other value of the
	// right kind is Safe. For KindInt it holds the decimal class number.
	Suspicious        string
	SuspiciousDisplay string
	SafeDisplay       string
	Kind              ValueKind
}

// ConfidenceRule locates and scales the backend confidence.
type ConfidenceRule struct {
	Field string
	Scale model.ConfidenceScale
	Mode  ConfidenceMode
}

// Rule is one row of the mapping table.
type Rule struct {
	EchoField  string
	Label      LabelRule
	Confidence ConfidenceRule
}

// Rules is the per-channel mapping table.
//
//	channel | label field | suspicious when   | confidence
//	phone   | result      | "Spam"            | confidence, [0,1] or null
//	sms     | prediction  | "Spam"            | confidence, [0,100]
//	url     | result      | "Malicious"       | not consumed
//	upi     | prediction  | 1                 | probability[prediction]
//	qr      | prediction  | "Malicious"       | confidence, [0,1]
var Rules = map[model.Channel]Rule{
	model.ChannelPhone: {
		EchoField: "phone_number",
		Label: LabelRule{
			Field: "result", Kind: KindString, Suspicious: "Spam",
			SuspiciousDisplay: "Spam / Unsafe", SafeDisplay: "Genuine / Safe",
		},
		Confidence: ConfidenceRule{Mode: ConfidenceDirect, Field: "confidence", Scale: model.ScaleFraction},
	},
	model.ChannelSMS: {
		EchoField: "text",
		Label: LabelRule{
			Field: "prediction", Kind: KindString, Suspicious: "Spam",
			SuspiciousDisplay: "Spam / Unsafe", SafeDisplay: "Safe / Trusted",
		},
		// The SMS service reports a percentage. It is kept on that scale and
		// tagged so callers never mistake it for a fraction.
		Confidence: ConfidenceRule{Mode: ConfidenceDirect, Field: "confidence", Scale: model.ScalePercent},
	},
	model.ChannelURL: {
		EchoField: "url",
		Label: LabelRule{
			Field: "result", Kind: KindString, Suspicious: "Malicious",
			SuspiciousDisplay: "Malicious", SafeDisplay: "Safe",
		},
		Confidence: ConfidenceRule{Mode: ConfidenceNone},
	},
	model.ChannelUPI: {
		EchoField: "upi",
		Label: LabelRule{
			Field: "prediction", Kind: KindInt, Suspicious: "1",
			SuspiciousDisplay: "Spam / Fraudulent", SafeDisplay: "Safe / Genuine",
		},
		Confidence: ConfidenceRule{Mode: ConfidenceIndexed, Field: "probability", Scale: model.ScaleFraction},
	},
	model.ChannelQR: {
		EchoField: "filename",
		Label: LabelRule{
			Field: "prediction", Kind: KindString, Suspicious: "Malicious",
			SuspiciousDisplay: "Malicious", SafeDisplay: "Benign",
		},
		Confidence: ConfidenceRule{Mode: ConfidenceDirect, Field: "confidence", Scale: model.ScaleFraction},
	},
}
