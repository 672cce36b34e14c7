package transport

import "github.com/Veraticus/sakhi/internal/model"

// Endpoint describes how one channel's request is sent.
type Endpoint struct {
	Path string
	// Field is the JSON key, or the multipart field name when Multipart is set.
	Field     string
	Multipart bool
}

// Endpoints maps each channel to its request shape.
var Endpoints = map[model.Channel]Endpoint{
	model.ChannelPhone: {Path: "/phone/predict", Field: "phone_number"},
	model.ChannelSMS:   {Path: "/sms/predict", Field: "text"},
	model.ChannelURL:   {Path: "/url/predict", Field: "url"},
	model.ChannelUPI:   {Path: "/upi/predict", Field: "upi"},
	model.ChannelQR:    {Path: "/qr/", Field: "file", Multipart: true},
}
