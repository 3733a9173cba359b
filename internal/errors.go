package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeForbidden  ErrorType = "FORBIDDEN"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal   ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"

	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrCodeDuplicateInvoice ErrorCode = "DUPLICATE_INVOICE"

	ErrCodeCredentialsNotFound ErrorCode = "SUNAT_CREDENTIALS_NOT_FOUND"
	ErrCodeCredentialsExist    ErrorCode = "SUNAT_CREDENTIALS_EXIST"
	ErrCodeSunatAuthFailed     ErrorCode = "SUNAT_AUTH_FAILED"
	ErrCodeSunatValidation     ErrorCode = "SUNAT_VALIDATION_FAILED"

	ErrCodeExpenseNotFound   ErrorCode = "EXPENSE_NOT_FOUND"
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeReasonRequired    ErrorCode = "REJECTION_REASON_REQUIRED"
	ErrCodeActorRequired     ErrorCode = "ACTOR_REQUIRED"

	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	ErrCodeClientNotFound   ErrorCode = "CLIENT_NOT_FOUND"
	ErrCodeProjectNotFound  ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeCategoryNotFound ErrorCode = "CATEGORY_NOT_FOUND"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
)

// AppError is the canonical service error. StatusCode drives the HTTP
// mapping at the transport layer, Cause keeps the wrapped origin for logs.
type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// FieldError points a validation failure at a specific request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Details:    FieldError{Field: field, Message: message},
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewExternalError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrExpenseNotFound  = NewNotFoundError("expense record not found", ErrCodeExpenseNotFound)
	ErrUserNotFound     = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrClientNotFound   = NewNotFoundError("client not found", ErrCodeClientNotFound)
	ErrProjectNotFound  = NewNotFoundError("project not found", ErrCodeProjectNotFound)
	ErrCategoryNotFound = NewNotFoundError("category not found", ErrCodeCategoryNotFound)

	ErrExtractionFailed = NewValidationError("could not extract invoice data from the file", ErrCodeExtractionFailed)
	ErrDuplicateInvoice = NewConflictError("an invoice with this serie and correlativo already exists", ErrCodeDuplicateInvoice)

	ErrCredentialsNotFound = NewNotFoundError("no active SUNAT credentials for this client", ErrCodeCredentialsNotFound)
	ErrCredentialsExist    = NewConflictError("SUNAT credentials already configured for this client", ErrCodeCredentialsExist)
	ErrSunatAuth           = NewExternalError("SUNAT token exchange failed", ErrCodeSunatAuthFailed)
	ErrSunatValidation     = NewExternalError("SUNAT comprobante validation failed", ErrCodeSunatValidation)

	ErrInvalidTransition = NewConflictError("record already approved or rejected", ErrCodeInvalidTransition)
	ErrReasonRequired    = NewValidationError("a reason is required to reject an invoice", ErrCodeReasonRequired)
	ErrActorRequired     = NewValidationError("an acting user must be resolved for this operation", ErrCodeActorRequired)

	ErrInvalidCredentials = &AppError{Type: ErrorTypeForbidden, Code: ErrCodeInvalidCredentials, Message: "invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Type: ErrorTypeForbidden, Code: ErrCodeInvalidToken, Message: "invalid token", StatusCode: http.StatusUnauthorized}
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
