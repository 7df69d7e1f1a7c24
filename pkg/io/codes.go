package io

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode/decoder"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/xerrors"
)

var (
	// ErrCancelled is returned by readers when the operator abandons a scan.
	ErrCancelled = xerrors.New("scan cancelled")
	// ErrNoCode is returned when a picture holds no readable QR code.
	ErrNoCode = xerrors.New("no QR code found")
	// ErrSourceClosed is returned when the underlying device or stream has ended.
	ErrSourceClosed = xerrors.New("scan source closed")
)

// pictureExtensions lists the files the picture readers know how to decode.
var pictureExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
}

// IsPicture reports whether path has an extension DecodeFile understands.
func IsPicture(path string) bool {
	return pictureExtensions[strings.ToLower(filepath.Ext(path))]
}

// DecodeFile decodes the first QR code found in a PNG, JPEG or PDF file.
func DecodeFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", xerrors.Errorf("could not open file %s: %w", path, err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return decodePDF(file, path)
	}
	return DecodeReader(file)
}

// decodePDF extracts the embedded images of a PDF and decodes the first one holding a code.
func decodePDF(rs io.ReadSeeker, path string) (string, error) {
	// pdfcpu is used to extract raw image data from the PDF wrapper.
	extractedImages, err := api.ExtractImagesRaw(rs, nil, nil)
	if err != nil {
		return "", xerrors.Errorf("could not extract images from PDF %s: %w", path, err)
	}

	for _, imgs := range extractedImages {
		for _, img := range imgs {
			text, err := DecodeReader(img)
			if err == nil {
				return text, nil
			}
		}
	}
	return "", xerrors.Errorf("%s: %w", path, ErrNoCode)
}

// DecodeReader decodes an encoded PNG or JPEG picture and reads the QR code inside it.
func DecodeReader(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", xerrors.Errorf("image.Decode failed: %w", err)
	}
	return DecodeImage(img)
}

// DecodeImage uses the gozxing library to find and decode a QR code within an image.
// Camera pictures go through the finder-pattern detector first; clean label
// renders fall back to the pure-barcode path.
func DecodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", xerrors.Errorf("gozxing.NewBinaryBitmapFromImage failed: %w", err)
	}

	reader := qrcode.NewQRCodeReader()
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := reader.Decode(bmp, hints)
	if err != nil {
		hints[gozxing.DecodeHintType_PURE_BARCODE] = true
		result, err = reader.Decode(bmp, hints)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCode, err)
	}
	return result.GetText(), nil
}

// EncodeQR renders text as a square QR code image of size pixels.
func EncodeQR(text string, size int) (image.Image, error) {
	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_ERROR_CORRECTION: decoder.ErrorCorrectionLevel_M,
		gozxing.EncodeHintType_CHARACTER_SET:    "UTF-8",
	}
	img, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, hints)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode %q as QR: %w", text, err)
	}
	return img, nil
}
