package io

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"golang.org/x/xerrors"
)

const (
	qrCodeSize     = 512
	captionMM      = 12.0
	pdfPointsPerMM = 2.8346
)

// LabelFormat is the file format of a printed label.
type LabelFormat string

const (
	LabelPDF LabelFormat = "pdf"
	LabelPNG LabelFormat = "png"
)

// LabelWriter renders codes as printable QR labels, one file per code.
// PDF labels are what PicReader reads back when dropped into its inbox.
type LabelWriter struct {
	outDir string
	format LabelFormat
	size   int
}

// NewLabelWriter creates a writer storing labels of the given format in outDir.
func NewLabelWriter(outDir string, format LabelFormat) (*LabelWriter, error) {
	switch format {
	case LabelPDF, LabelPNG:
	default:
		return nil, xerrors.Errorf("unknown label format: %s", format)
	}
	return &LabelWriter{outDir: outDir, format: format, size: qrCodeSize}, nil
}

// Write renders one label and returns its path. index keeps file names unique
// when the same code is printed more than once.
func (w *LabelWriter) Write(index int, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", xerrors.New("cannot print a label for a blank code")
	}
	filePath := filepath.Join(w.outDir, fmt.Sprintf("label_%03d_%s.%s", index, fileSafe(code), w.format))

	var err error
	if w.format == LabelPNG {
		err = qrcode.WriteFile(code, qrcode.Medium, w.size, filePath)
	} else {
		err = w.writePDF(filePath, code)
	}
	if err != nil {
		return "", xerrors.Errorf("failed to write label %s: %w", filePath, err)
	}
	return filePath, nil
}

func (w *LabelWriter) writePDF(filePath, code string) error {
	img, err := EncodeQR(code, w.size)
	if err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return xerrors.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	return writeImageToPDF(img, code, file)
}

// --- PDF Utility ---

// writeImageToPDF embeds an image into a new PDF page with the code printed
// underneath as a caption, and writes it to an io.Writer.
func writeImageToPDF(img image.Image, caption string, w io.Writer) error {
	// Encode the image to JPEG format in memory.
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return xerrors.Errorf("jpeg encoding failed: %w", err)
	}

	// Calculate image dimensions in millimeters for the PDF page size.
	widthMM := float64(img.Bounds().Dx()) / pdfPointsPerMM
	heightMM := float64(img.Bounds().Dy()) / pdfPointsPerMM

	pageSize := gofpdf.SizeType{Wd: widthMM, Ht: heightMM + captionMM}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    pageSize,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", pageSize)

	options := gofpdf.ImageOptions{ImageType: "JPEG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("code.jpg", options, buf)
	pdf.ImageOptions("code.jpg", 0, 0, widthMM, heightMM, false, options, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(0, heightMM)
	pdf.CellFormat(widthMM, captionMM, caption, "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// fileSafe maps a code to a string usable in a file name.
func fileSafe(code string) string {
	var b strings.Builder
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= 40 {
			break
		}
	}
	return b.String()
}
