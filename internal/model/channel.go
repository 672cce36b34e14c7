// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
)

// Channel identifies the kind of evidence being verified.
type Channel string

// Supported channels.
const (
	ChannelPhone Channel = "phone"
	ChannelSMS   Channel = "sms"
	ChannelURL   Channel = "url"
	ChannelUPI   Channel = "upi"
	ChannelQR    Channel = "qr"
)

// AllChannels lists every channel in display order.
var AllChannels = []Channel{ChannelPhone, ChannelSMS, ChannelURL, ChannelUPI, ChannelQR}

// ParseChannel converts a user supplied name into a Channel.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown channel %q (want one of phone, sms, url, upi, qr)", s)
	}
	return c, nil
}

// IsValid reports whether c is one of the supported channels.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelPhone, ChannelSMS, ChannelURL, ChannelUPI, ChannelQR:
		return true
	default:
		return false
	}
}

// Title returns a human readable channel name.
func (c Channel) Title() string {
	switch c {
	case ChannelPhone:
		return "Phone"
	case ChannelSMS:
		return "SMS"
	case ChannelURL:
		return "URL"
	case ChannelUPI:
		return "UPI"
	case ChannelQR:
		return "QR"
	default:
		return string(c)
	}
}

// RawInput is the evidence submitted for a single verification attempt.
// Text is used by the string channels; QR uploads carry Filename and Image.
type RawInput struct {
	Text     string
	Filename string
	Image    []byte
}

// TextInput builds a RawInput for the string channels.
func TextInput(s string) RawInput {
	return RawInput{Text: s}
}

// FileInput builds a RawInput for an uploaded image.
func FileInput(filename string, data []byte) RawInput {
	return RawInput{Filename: filename, Image: data}
}

// Subject returns the value echoed back for display and stale detection.
func (r RawInput) Subject() string {
	if r.Filename != "" || r.Image != nil {
		return r.Filename
	}
	return r.Text
}

// HasFile reports whether an image was selected.
func (r RawInput) HasFile() bool {
	return r.Filename != "" || len(r.Image) > 0
}

// ValidationOutcome is the result of pre-submission checks.
// The zero value is Valid.
type ValidationOutcome struct {
	Reason string
	Failed bool
}

// Valid is the passing outcome.
func Valid() ValidationOutcome {
	return ValidationOutcome{}
}

// Invalid builds a failing outcome carrying a user facing reason.
func Invalid(reason string) ValidationOutcome {
	return ValidationOutcome{Failed: true, Reason: reason}
}

// IsValid reports whether the outcome permits submission.
func (v ValidationOutcome) IsValid() bool {
	return !v.Failed
}

func (v ValidationOutcome) String() string {
	if v.Failed {
		return "Invalid(" + v.Reason + ")"
	}
	return "Valid"
}
