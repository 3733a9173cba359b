package sunat

// ValidationStatus is the closed set of outcomes a validation can produce.
type ValidationStatus string

const (
	StatusValidoAceptado    ValidationStatus = "VALIDO_ACEPTADO"
	StatusValidoNoPertenece ValidationStatus = "VALIDO_NO_PERTENECE"
	StatusNoEncontrado      ValidationStatus = "NO_ENCONTRADO"
	StatusErrorSunat        ValidationStatus = "ERROR_SUNAT"
	StatusPending           ValidationStatus = "PENDING"
)

// ValidationResult is the interpreted outcome stored on the expense record.
// Immutable once produced.
type ValidationResult struct {
	Status  ValidationStatus `json:"status"`
	Details interface{}      `json:"details"`
	Message string           `json:"message"`
}

// Interpret maps a raw SUNAT payload to a ValidationResult. Pure function;
// unknown payload shapes deliberately fall into the ERROR_SUNAT branch.
func Interpret(resp *RawResponse) ValidationResult {
	switch {
	case resp.Success && resp.Data != nil && resp.Data.EstadoCp == "0":
		return ValidationResult{
			Status:  StatusValidoAceptado,
			Details: resp.Data,
			Message: "El comprobante es válido y fue facturado a esta empresa.",
		}
	case resp.Success && resp.Data != nil && resp.Data.EstadoCp == "1":
		return ValidationResult{
			Status:  StatusValidoNoPertenece,
			Details: resp.Data,
			Message: "El comprobante es válido, pero no fue facturado a esta empresa.",
		}
	case resp.Cod == "98":
		details := resp.Msg
		if details == "" {
			details = "El comprobante no existe en SUNAT."
		}
		return ValidationResult{
			Status:  StatusNoEncontrado,
			Details: details,
			Message: "El comprobante no existe en SUNAT.",
		}
	default:
		var details interface{} = resp
		if len(resp.Raw) > 0 {
			details = resp.Raw
		}
		return ValidationResult{
			Status:  StatusErrorSunat,
			Details: details,
			Message: "Error al validar el comprobante.",
		}
	}
}

// PendingResult is the placeholder stored when validation was skipped.
func PendingResult() ValidationResult {
	return ValidationResult{
		Status:  StatusPending,
		Message: "Validación pendiente",
	}
}

// ErrorResult wraps a local failure (token exchange, transport) as the
// synthetic ERROR_SUNAT outcome so creation can continue.
func ErrorResult(cause string) ValidationResult {
	return ValidationResult{
		Status:  StatusErrorSunat,
		Details: cause,
		Message: "Error en la comunicación con SUNAT.",
	}
}
