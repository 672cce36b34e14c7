package qrscan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	// Registered decoders for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Veraticus/sakhi/internal/model"
)

// Messages returned by the pre-screen.
const (
	MsgNoCode   = "no QR code detected"
	MsgTooLarge = "image too large"
)

// Decode limits. Dimensions are read from the image header before any pixel
// data is decoded, so a small file cannot claim a huge bitmap.
const (
	DefaultMaxBytes     = 10 << 20
	DefaultMaxDimension = 8192
	DefaultMaxPixels    = 4096 * 4096
)

// ErrImageTooLarge is returned by DecodeFrame when the image header exceeds
// the pixel budget.
var ErrImageTooLarge = errors.New("image dimensions exceed limit")

// Detector reports whether a QR code is present in a packed RGBA buffer of
// width*height*4 bytes.
type Detector interface {
	Detect(pix []byte, width, height int) bool
}

// Frame is a decoded image as a packed RGBA buffer.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// Prescreener decodes images and checks them for a QR code.
type Prescreener struct {
	detector  Detector
	logger    *slog.Logger
	maxBytes  int
	maxPixels int
}

// Option configures a Prescreener.
type Option func(*Prescreener)

// WithDetector replaces the default gozxing detector.
func WithDetector(d Detector) Option {
	return func(p *Prescreener) { p.detector = d }
}

// WithMaxBytes sets the largest accepted image. Zero or less keeps the default.
func WithMaxBytes(n int) Option {
	return func(p *Prescreener) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// WithMaxPixels sets the largest accepted width*height. Zero or less keeps
// the default.
func WithMaxPixels(n int) Option {
	return func(p *Prescreener) {
		if n > 0 {
			p.maxPixels = n
		}
	}
}

// NewPrescreener creates a pre-screen using the gozxing detector by default.
func NewPrescreener(logger *slog.Logger, opts ...Option) *Prescreener {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Prescreener{
		detector:  NewZXingDetector(),
		logger:    logger,
		maxBytes:  DefaultMaxBytes,
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prescreen reports Valid only when the image contains a detectable QR code.
// Decoding failures of any kind are reported as Invalid, never as errors.
func (p *Prescreener) Prescreen(ctx context.Context, in model.RawInput) model.ValidationOutcome {
	if len(in.Image) > p.maxBytes {
		p.logger.Debug("image rejected by size", "filename", in.Filename, "size", len(in.Image), "max", p.maxBytes)
		return model.Invalid(MsgTooLarge)
	}

	frame, err := decodeFrame(in.Image, p.maxPixels)
	if errors.Is(err, ErrImageTooLarge) {
		p.logger.Debug("image rejected by dimensions", "filename", in.Filename, "error", err)
		return model.Invalid(MsgTooLarge)
	}
	if err != nil {
		p.logger.Debug("image could not be decoded", "filename", in.Filename, "error", err)
		return model.Invalid(MsgNoCode)
	}

	if ctx.Err() != nil {
		return model.Invalid(MsgNoCode)
	}

	if !p.detect(frame) {
		p.logger.Debug("no QR code in image", "filename", in.Filename, "width", frame.Width, "height", frame.Height)
		return model.Invalid(MsgNoCode)
	}
	return model.Valid()
}

// detect shields the caller from panics inside the detector.
func (p *Prescreener) detect(f Frame) (found bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("QR detector panicked", "panic", r)
			found = false
		}
	}()
	return p.detector.Detect(f.Pix, f.Width, f.Height)
}

// DecodeFrame decodes an encoded image into a packed RGBA buffer. Images
// over DefaultMaxPixels or DefaultMaxDimension yield ErrImageTooLarge.
func DecodeFrame(data []byte) (Frame, error) {
	return decodeFrame(data, DefaultMaxPixels)
}

func decodeFrame(data []byte, maxPixels int) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("empty image payload")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width > DefaultMaxDimension || cfg.Height > DefaultMaxDimension ||
		int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return Frame{}, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Empty() {
		return Frame{}, fmt.Errorf("image has no pixels")
	}

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	return Frame{Pix: rgba.Pix, Width: b.Dx(), Height: b.Dy()}, nil
}
