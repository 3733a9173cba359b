package extractor

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/condorlabs/comprobantes/internal"
)

// Source is a single uploaded comprobante. OCR extraction works on Bytes,
// the vision strategy prefers ImageURL and falls back to an inline data URL
// built from Bytes.
type Source struct {
	Bytes    []byte
	MimeType string
	ImageURL string
}

// ExtractedInvoiceData is the candidate record produced by an extraction
// strategy. Field names follow the SUNAT comprobante vocabulary.
type ExtractedInvoiceData struct {
	RucEmisor       string          `json:"rucEmisor"`
	TipoComprobante string          `json:"tipoComprobante"`
	Serie           string          `json:"serie"`
	Correlativo     string          `json:"correlativo"`
	FechaEmision    string          `json:"fechaEmision"`
	MontoTotal      decimal.Decimal `json:"montoTotal"`
	Moneda          string          `json:"moneda"`
	RazonSocial     string          `json:"razonSocial,omitempty"`
	DireccionEmisor string          `json:"direccionEmisor,omitempty"`
}

// Extractor turns an unstructured invoice image or PDF into a candidate
// record. Implementations fail with an extraction AppError when no text can
// be obtained or a required field is missing.
type Extractor interface {
	Extract(ctx context.Context, src Source) (*ExtractedInvoiceData, error)
}

// MissingFields lists the required fields that are absent. A RUC with the
// wrong length counts as missing.
func (d *ExtractedInvoiceData) MissingFields() []string {
	var missing []string
	if len(d.RucEmisor) != 11 {
		missing = append(missing, "rucEmisor")
	}
	if d.TipoComprobante == "" {
		missing = append(missing, "tipoComprobante")
	}
	if d.Serie == "" {
		missing = append(missing, "serie")
	}
	if d.Correlativo == "" {
		missing = append(missing, "correlativo")
	}
	if d.FechaEmision == "" {
		missing = append(missing, "fechaEmision")
	}
	if d.MontoTotal.IsZero() {
		missing = append(missing, "montoTotal")
	}
	return missing
}

func (d *ExtractedInvoiceData) Complete() bool {
	return len(d.MissingFields()) == 0
}

// CodComp maps the comprobante type to the SUNAT document code. Vision
// extraction yields names ("Factura"), OCR yields codes directly.
func (d *ExtractedInvoiceData) CodComp() string {
	switch d.TipoComprobante {
	case "Factura", "01":
		return "01"
	case "Boleta", "03":
		return "03"
	default:
		return "01"
	}
}

// InvoiceNumber renders the serie-correlativo pair used in notifications.
func (d *ExtractedInvoiceData) InvoiceNumber() string {
	return d.Serie + "-" + d.Correlativo
}

func incompleteError(missing []string) error {
	return internal.ErrExtractionFailed.WithDetails(map[string]interface{}{
		"missing_fields": missing,
	})
}

func isPDF(mimeType string) bool {
	return mimeType == "application/pdf"
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
