package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/condorlabs/comprobantes/internal"
)

// TextRecognizer obtains raw text from an image. The production
// implementation runs Tesseract tuned for Spanish, tests supply a fake.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// PDFTextReader extracts the embedded text layer of a PDF. Scanned PDFs
// without a text layer yield an error.
type PDFTextReader interface {
	ExtractText(data []byte) (string, error)
}

// OCRTextExtractor recovers invoice fields from raw text with an ordered
// set of pattern rules modeled on the layout of Peruvian comprobantes.
type OCRTextExtractor struct {
	recognizer TextRecognizer
	pdfReader  PDFTextReader
	logger     *slog.Logger
}

func NewOCRTextExtractor(recognizer TextRecognizer, pdfReader PDFTextReader, logger *slog.Logger) *OCRTextExtractor {
	return &OCRTextExtractor{
		recognizer: recognizer,
		pdfReader:  pdfReader,
		logger:     logger,
	}
}

var (
	// RUC preceded by its label wins over a bare 11-digit run.
	rucLabeledRe = regexp.MustCompile(`(?i)R\.?U\.?C\.?\s*:?\s*(\d{11})`)
	rucBareRe    = regexp.MustCompile(`\b(\d{11})\b`)

	// serie-correlativo, e.g. E001-123 or F001 — 19220608417061
	serieRe = regexp.MustCompile(`(?i)\b([A-Z]\d{3})\s*[-–—]\s*(\d{1,20})\b`)

	dateLabeledRe = regexp.MustCompile(`(?i)Fecha\s*(?:de\s*)?Emisi[oó]n\s*:?\s*(\d{1,2})[\s/-](\d{1,2})[\s/-](\d{4})`)
	dateBareRe    = regexp.MustCompile(`(\d{1,2})[\s/-](\d{1,2})[\s/-](\d{4})`)

	amountRe = regexp.MustCompile(`(?i)(?:IMPORTE\s*TOTAL|SUMA\s*TOTAL|MONTO\s*TOTAL|VALOR\s*TOTAL)\s*:?\s*(?:(S/|PEN|USD|\$)\s*)?([\d,]+\.\d{2})\b`)
)

func (e *OCRTextExtractor) Extract(ctx context.Context, src Source) (*ExtractedInvoiceData, error) {
	if len(src.Bytes) == 0 {
		return nil, internal.ErrExtractionFailed.WithCause(fmt.Errorf("empty source"))
	}

	var (
		text string
		err  error
	)
	switch {
	case isPDF(src.MimeType):
		text, err = e.pdfReader.ExtractText(src.Bytes)
		if err != nil {
			e.logger.Error("pdf text extraction failed", "error", err)
			return nil, internal.ErrExtractionFailed.WithCause(err)
		}
	case isImage(src.MimeType):
		text, err = e.recognizer.Recognize(ctx, src.Bytes)
		if err != nil {
			e.logger.Error("ocr recognition failed", "error", err)
			return nil, internal.ErrExtractionFailed.WithCause(err)
		}
	default:
		return nil, internal.ErrExtractionFailed.WithCause(fmt.Errorf("unsupported mime type %q", src.MimeType))
	}

	if strings.TrimSpace(text) == "" {
		return nil, internal.ErrExtractionFailed.WithCause(fmt.Errorf("no text in source"))
	}

	data := e.extractFromText(text)
	if missing := data.MissingFields(); len(missing) > 0 {
		e.logger.Warn("essential fields missing after extraction", "missing", missing)
		return nil, incompleteError(missing)
	}
	return data, nil
}

// extractFromText applies the pattern rules in order. Each rule is
// independent; a miss leaves its field empty for the completeness gate.
func (e *OCRTextExtractor) extractFromText(text string) *ExtractedInvoiceData {
	data := &ExtractedInvoiceData{}

	if m := rucLabeledRe.FindStringSubmatch(text); m != nil {
		data.RucEmisor = m[1]
	} else if m := rucBareRe.FindStringSubmatch(text); m != nil {
		data.RucEmisor = m[1]
	}

	if m := serieRe.FindStringSubmatch(text); m != nil {
		data.Serie = strings.ToUpper(m[1])
		data.Correlativo = m[2]
		data.TipoComprobante = comprobanteTypeForSerie(data.Serie)
	}

	m := dateLabeledRe.FindStringSubmatch(text)
	if m == nil {
		m = dateBareRe.FindStringSubmatch(text)
	}
	if m != nil {
		if normalized, ok := normalizeDate(m[1], m[2], m[3]); ok {
			data.FechaEmision = normalized
		}
	}

	if m := amountRe.FindStringSubmatch(text); m != nil {
		amount := strings.ReplaceAll(m[2], ",", "")
		if total, err := decimal.NewFromString(amount); err == nil {
			data.MontoTotal = total
		}
		data.Moneda = m[1]
		if data.Moneda == "" {
			data.Moneda = "S/"
		}
	}

	e.logger.Debug("ocr extraction results",
		"ruc", data.RucEmisor,
		"serie", data.Serie,
		"correlativo", data.Correlativo,
		"fecha", data.FechaEmision,
		"monto", data.MontoTotal)

	return data
}

// comprobanteTypeForSerie infers the SUNAT document code from the serie's
// leading letter: F and E series are facturas, B series boletas.
func comprobanteTypeForSerie(serie string) string {
	switch serie[0] {
	case 'F', 'E':
		return "01"
	case 'B':
		return "03"
	default:
		return "01"
	}
}

// normalizeDate zero-pads to dd/mm/yyyy after a sanity check on the parts.
func normalizeDate(day, month, year string) (string, bool) {
	d, _ := strconv.Atoi(day)
	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	if y <= 1990 || m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%04d", d, m, y), true
}
