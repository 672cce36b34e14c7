// Package validator holds the per-channel input checks run before any
// request leaves the client. Every check is pure and synchronous.
package validator

import (
	"regexp"
	"strings"

	"github.com/Veraticus/sakhi/internal/model"
)

// User facing validation messages.
const (
	MsgPhoneRequired = "please enter a valid phone number"
	MsgSMSRequired   = "please enter an SMS message"
	MsgURLRequired   = "please enter a valid URL"
	MsgUPIRequired   = "UPI ID required"
	MsgUPIFormat     = "invalid UPI ID format"
	MsgNoFile        = "no file selected"
)

// upiPattern matches <local>@<domain>; local allows letters, digits, '.', '_'
// and '-', domain is alphanumeric only.
var upiPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)

// Func validates raw input for one channel.
type Func func(model.RawInput) model.ValidationOutcome

// Validate runs the channel's check against the input.
func Validate(channel model.Channel, in model.RawInput) model.ValidationOutcome {
	fn, ok := For(channel)
	if !ok {
		return model.Invalid("unsupported channel " + string(channel))
	}
	return fn(in)
}

// For returns the validator for a channel.
func For(channel model.Channel) (Func, bool) {
	switch channel {
	case model.ChannelPhone:
		return Phone, true
	case model.ChannelSMS:
		return SMS, true
	case model.ChannelURL:
		return URL, true
	case model.ChannelUPI:
		return UPI, true
	case model.ChannelQR:
		return QRFile, true
	default:
		return nil, false
	}
}

// Phone requires a non-blank number. Format is left to the backend.
func Phone(in model.RawInput) model.ValidationOutcome {
	return nonBlank(in.Text, MsgPhoneRequired)
}

// SMS requires a non-blank message body.
func SMS(in model.RawInput) model.ValidationOutcome {
	return nonBlank(in.Text, MsgSMSRequired)
}

// URL requires a non-blank value; scheme and host are not checked here.
func URL(in model.RawInput) model.ValidationOutcome {
	return nonBlank(in.Text, MsgURLRequired)
}

// UPI requires a handle of the form name@bank.
func UPI(in model.RawInput) model.ValidationOutcome {
	if strings.TrimSpace(in.Text) == "" {
		return model.Invalid(MsgUPIRequired)
	}
	if !IsUPIHandle(in.Text) {
		return model.Invalid(MsgUPIFormat)
	}
	return model.Valid()
}

// IsUPIHandle reports whether s is a well formed UPI handle. The input is
// matched as is, so surrounding whitespace makes it invalid.
func IsUPIHandle(s string) bool {
	return upiPattern.MatchString(s)
}

// QRFile only checks that a file was selected. Image content is checked by
// the qrscan pre-screen.
func QRFile(in model.RawInput) model.ValidationOutcome {
	if !in.HasFile() {
		return model.Invalid(MsgNoFile)
	}
	return model.Valid()
}

func nonBlank(s, msg string) model.ValidationOutcome {
	if strings.TrimSpace(s) == "" {
		return model.Invalid(msg)
	}
	return model.Valid()
}
