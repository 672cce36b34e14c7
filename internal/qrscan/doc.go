// Package qrscan pre-screens uploaded images before they are sent for
// analysis. An image is decoded into an RGBA pixel buffer and handed to a
// QR detector; anything that does not contain a readable code is rejected
// locally so the request is never made.
//
// The pre-screen does not interpret the payload of the code.
package qrscan
