package expense

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AnalyzeImageDTO kicks off the extraction pipeline for an already-uploaded
// image referenced by URL (vision strategy).
type AnalyzeImageDTO struct {
	ImageURL   string `json:"image_url"`
	ClientID   string `json:"client_id"`
	ProjectID  string `json:"project_id"`
	CategoryID string `json:"category_id"`
}

func (dto AnalyzeImageDTO) Validate() error {
	if dto.ImageURL == "" {
		return errors.New("image_url is required")
	}
	if dto.ClientID == "" {
		return errors.New("client_id is required")
	}
	return nil
}

// CreateExpenseDTO creates a record manually, without running extraction or
// SUNAT validation. Such records start as pending.
type CreateExpenseDTO struct {
	ClientID     string          `json:"client_id"`
	ProjectID    string          `json:"project_id"`
	CategoryID   string          `json:"category_id"`
	Total        decimal.Decimal `json:"total"`
	FileURL      string          `json:"file_url,omitempty"`
	FechaEmision string          `json:"fecha_emision,omitempty"`
	Data         *RecordData     `json:"data,omitempty"`
}

func (dto CreateExpenseDTO) Validate() error {
	if dto.ClientID == "" {
		return errors.New("client_id is required")
	}
	if dto.Total.IsNegative() {
		return errors.New("total cannot be negative")
	}
	return nil
}

// UpdateExpenseDTO applies unconstrained field edits.
type UpdateExpenseDTO struct {
	ProjectID    *string          `json:"project_id,omitempty"`
	CategoryID   *string          `json:"category_id,omitempty"`
	Total        *decimal.Decimal `json:"total,omitempty"`
	FileURL      *string          `json:"file_url,omitempty"`
	FechaEmision *string          `json:"fecha_emision,omitempty"`
}

type RejectExpenseDTO struct {
	Reason string `json:"reason"`
}

// ListFilters narrows and orders a client's records. SortBy accepts
// fecha_emision or created_at; fecha_emision ties break on created_at.
type ListFilters struct {
	ProjectID  string
	CategoryID string
	Status     string
	CreatedBy  string
	DateFrom   *time.Time
	DateTo     *time.Time
	AmountMin  *decimal.Decimal
	AmountMax  *decimal.Decimal
	SortBy     string
	SortOrder  string
}

// SunatValidationInfo is the on-demand view of a record's validation state.
type SunatValidationInfo struct {
	ExpenseID       string      `json:"expense_id"`
	Status          string      `json:"status"`
	SunatValidation interface{} `json:"sunat_validation"`
	HasValidation   bool        `json:"has_validation"`
	Message         string      `json:"message"`
	ExtractedData   interface{} `json:"extracted_data,omitempty"`
}
