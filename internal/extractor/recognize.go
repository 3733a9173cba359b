package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer runs a local Tesseract engine over the image bytes.
// A fresh client per call keeps the recognizer safe for concurrent requests.
type TesseractRecognizer struct {
	language string
}

func NewTesseractRecognizer(language string) *TesseractRecognizer {
	if language == "" {
		language = "spa"
	}
	return &TesseractRecognizer{language: language}
}

func (r *TesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.language); err != nil {
		return "", fmt.Errorf("set ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr recognition: %w", err)
	}
	return text, nil
}

// PDFReader pulls the embedded text layer out of a PDF. Image-only scans
// have no text layer and fail here, pushing the caller to the OCR path.
type PDFReader struct{}

func NewPDFReader() *PDFReader {
	return &PDFReader{}
}

func (p *PDFReader) ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("pdf has no text layer")
	}
	return text, nil
}
