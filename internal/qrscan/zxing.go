package qrscan

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZXingDetector finds QR codes with gozxing.
type ZXingDetector struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewZXingDetector creates a detector that tries harder on low contrast input.
func NewZXingDetector() *ZXingDetector {
	return &ZXingDetector{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Detect implements Detector.
func (d *ZXingDetector) Detect(pix []byte, width, height int) bool {
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return false
	}

	img := &image.RGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return false
	}

	// A fresh reader per call; QRCodeReader keeps decoder state.
	_, err = qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	return err == nil
}
