package expense

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/condorlabs/comprobantes/internal/extractor"
	"github.com/condorlabs/comprobantes/internal/sunat"
)

// Record statuses. The SUNAT-derived statuses are informational
// classifications assigned at creation; the approval axis (pending →
// approved/rejected) moves independently and is terminal once decided.
const (
	StatusPending           = "pending"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
	StatusSunatValid        = "sunat_valid"
	StatusSunatValidNotOurs = "sunat_valid_not_ours"
	StatusSunatNotFound     = "sunat_not_found"
	StatusSunatError        = "sunat_error"
)

// RecordData is the structured snapshot stored with each record: the
// extracted invoice fields plus the validation outcome, serialized as one
// JSON document.
type RecordData struct {
	extractor.ExtractedInvoiceData
	SunatValidation sunat.ValidationResult `json:"sunatValidation"`
}

// Expense is an ingested comprobante (factura or boleta) owned by a client.
type Expense struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	ClientID        string          `json:"client_id" gorm:"column:client_id;not null;index"`
	ProjectID       string          `json:"project_id" gorm:"column:project_id"`
	CategoryID      string          `json:"category_id" gorm:"column:category_id"`
	Total           decimal.Decimal `json:"total" gorm:"column:total;type:numeric(14,2)"`
	FileURL         string          `json:"file_url" gorm:"column:file_url"`
	Data            RecordData      `json:"data" gorm:"column:data;type:jsonb;serializer:json"`
	Status          string          `json:"status" gorm:"column:status;default:pending"`
	StatusDate      *time.Time      `json:"status_date,omitempty" gorm:"column:status_date"`
	ApprovedBy      *string         `json:"approved_by,omitempty" gorm:"column:approved_by"`
	RejectedBy      *string         `json:"rejected_by,omitempty" gorm:"column:rejected_by"`
	RejectionReason *string         `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	CreatedBy       string          `json:"created_by" gorm:"column:created_by"`
	FechaEmision    *time.Time      `json:"fecha_emision,omitempty" gorm:"column:fecha_emision;type:date"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"column:updated_at"`
}

func (Expense) TableName() string {
	return "expenses"
}

// StatusForValidation maps a validation outcome to the record status
// assigned at creation time.
func StatusForValidation(status sunat.ValidationStatus) string {
	switch status {
	case sunat.StatusValidoAceptado:
		return StatusSunatValid
	case sunat.StatusValidoNoPertenece:
		return StatusSunatValidNotOurs
	case sunat.StatusNoEncontrado:
		return StatusSunatNotFound
	case sunat.StatusErrorSunat:
		return StatusSunatError
	default:
		return StatusPending
	}
}

// CanBeDecided reports whether the approval axis is still open. Approved
// and rejected are terminal.
func (e *Expense) CanBeDecided() bool {
	return e.Status != StatusApproved && e.Status != StatusRejected
}

func (e *Expense) Approve(actorID string) {
	now := time.Now()
	e.Status = StatusApproved
	e.StatusDate = &now
	e.ApprovedBy = &actorID
	e.UpdatedAt = now
}

func (e *Expense) Reject(actorID, reason string) {
	now := time.Now()
	e.Status = StatusRejected
	e.StatusDate = &now
	e.RejectedBy = &actorID
	e.RejectionReason = &reason
	e.UpdatedAt = now
}

// ParseFechaEmision accepts dd/mm/yyyy or dd-mm-yyyy, the two shapes the
// extraction strategies produce.
func ParseFechaEmision(fecha string) *time.Time {
	parts := strings.FieldsFunc(fecha, func(r rune) bool {
		return r == '/' || r == '-'
	})
	if len(parts) != 3 {
		return nil
	}
	t, err := time.Parse("2-1-2006", parts[0]+"-"+parts[1]+"-"+parts[2])
	if err != nil {
		return nil
	}
	return &t
}
