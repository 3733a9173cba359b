package expense

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/core/events"
	"github.com/condorlabs/comprobantes/internal/extractor"
	"github.com/condorlabs/comprobantes/internal/sunat"
)

// Repository interface defines the data access methods for expense records
type Repository interface {
	Create(expense *Expense) error
	GetByID(id string) (*Expense, error)
	ListByClient(clientID string, filters ListFilters) ([]*Expense, error)
	FindDuplicate(clientID, serie, correlativo string) (*Expense, error)
	Update(expense *Expense) error
	Delete(id string) error
}

// Gateway is the slice of the SUNAT client the service needs.
type Gateway interface {
	GetToken(ctx context.Context, clientID string) (*sunat.Token, error)
	ValidateComprobante(ctx context.Context, clientRUC string, data *extractor.ExtractedInvoiceData, accessToken string) (*sunat.RawResponse, error)
}

// CredentialResolver resolves the client's RUC for the validation call.
type CredentialResolver interface {
	GetActive(ctx context.Context, clientID string) (*sunat.Credentials, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service handles the comprobante ingestion and approval logic
type Service struct {
	repo        Repository
	extractor   extractor.Extractor
	gateway     Gateway
	credentials CredentialResolver
	events      EventPublisher
	logger      *slog.Logger
}

func NewService(repo Repository, ext extractor.Extractor, gateway Gateway, credentials CredentialResolver, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		extractor:   ext,
		gateway:     gateway,
		credentials: credentials,
		events:      publisher,
		logger:      logger,
	}
}

// CreateFromSource runs the full ingestion pipeline: extract the invoice
// fields, reject duplicates, validate against SUNAT, persist, notify.
// Extraction and duplicate failures abort creation; SUNAT failures degrade
// to the sunat_error status so the record is never lost to an outage.
func (s *Service) CreateFromSource(ctx context.Context, actorID string, dto AnalyzeImageDTO, src extractor.Source) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	data, err := s.extractor.Extract(ctx, src)
	if err != nil {
		s.logger.Error("invoice extraction failed", "error", err, "client_id", dto.ClientID)
		return nil, err
	}

	if dup, err := s.repo.FindDuplicate(dto.ClientID, data.Serie, data.Correlativo); err != nil {
		s.logger.Error("duplicate lookup failed", "error", err, "client_id", dto.ClientID)
		return nil, err
	} else if dup != nil {
		s.logger.Warn("duplicate comprobante rejected",
			"client_id", dto.ClientID,
			"serie", data.Serie,
			"correlativo", data.Correlativo,
			"existing_id", dup.ID)
		return nil, internal.ErrDuplicateInvoice
	}

	validation := s.validate(ctx, dto.ClientID, data)

	now := time.Now()
	record := &Expense{
		ID:         uuid.New().String(),
		ClientID:   dto.ClientID,
		ProjectID:  dto.ProjectID,
		CategoryID: dto.CategoryID,
		Total:      data.MontoTotal,
		FileURL:    dto.ImageURL,
		Data: RecordData{
			ExtractedInvoiceData: *data,
			SunatValidation:      validation,
		},
		Status:       StatusForValidation(validation.Status),
		CreatedBy:    actorID,
		FechaEmision: ParseFechaEmision(data.FechaEmision),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(record); err != nil {
		s.logger.Error("failed to persist expense record", "error", err, "client_id", dto.ClientID)
		return nil, err
	}

	s.logger.Info("expense record created",
		"expense_id", record.ID,
		"client_id", record.ClientID,
		"status", record.Status,
		"serie", data.Serie,
		"correlativo", data.Correlativo)

	s.publish(ctx, events.NewExpenseCreatedEvent(record.ID, record.ClientID, record.ProjectID, record.CategoryID, record.CreatedBy, data.Serie, data.Correlativo))
	return record, nil
}

// publish hands an event to the bus without tying the handlers to the
// request's lifetime.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("event publish failed", "error", err, "event_type", event.EventType())
	}
}

// validate performs the token exchange and comprobante validation, folding
// every failure into the synthetic ERROR_SUNAT outcome.
func (s *Service) validate(ctx context.Context, clientID string, data *extractor.ExtractedInvoiceData) sunat.ValidationResult {
	creds, err := s.credentials.GetActive(ctx, clientID)
	if err != nil {
		s.logger.Error("no active sunat credentials", "error", err, "client_id", clientID)
		return sunat.ErrorResult(err.Error())
	}

	token, err := s.gateway.GetToken(ctx, clientID)
	if err != nil {
		s.logger.Error("sunat token exchange failed during creation", "error", err, "client_id", clientID)
		return sunat.ErrorResult(err.Error())
	}

	resp, err := s.gateway.ValidateComprobante(ctx, creds.RUC, data, token.AccessToken)
	if err != nil {
		s.logger.Error("sunat validation failed during creation", "error", err, "client_id", clientID)
		return sunat.ErrorResult(err.Error())
	}

	return sunat.Interpret(resp)
}

// Create inserts a manually entered record. No extraction, no SUNAT call;
// the record starts pending with a placeholder validation.
func (s *Service) Create(ctx context.Context, actorID string, dto CreateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	now := time.Now()
	record := &Expense{
		ID:         uuid.New().String(),
		ClientID:   dto.ClientID,
		ProjectID:  dto.ProjectID,
		CategoryID: dto.CategoryID,
		Total:      dto.Total,
		FileURL:    dto.FileURL,
		Status:     StatusPending,
		CreatedBy:  actorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if dto.Data != nil {
		record.Data = *dto.Data
	}
	if record.Data.SunatValidation.Status == "" {
		record.Data.SunatValidation = sunat.PendingResult()
	}
	if dto.FechaEmision != "" {
		record.FechaEmision = ParseFechaEmision(dto.FechaEmision)
	}

	if err := s.repo.Create(record); err != nil {
		s.logger.Error("failed to create expense record", "error", err, "client_id", dto.ClientID)
		return nil, err
	}

	s.logger.Info("expense record created manually", "expense_id", record.ID, "client_id", record.ClientID)
	s.publish(ctx, events.NewExpenseCreatedEvent(record.ID, record.ClientID, record.ProjectID, record.CategoryID, record.CreatedBy, record.Data.Serie, record.Data.Correlativo))
	return record, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Expense, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get expense record", "error", err, "expense_id", id)
		return nil, internal.ErrExpenseNotFound
	}
	return record, nil
}

func (s *Service) ListByClient(ctx context.Context, clientID string, filters ListFilters) ([]*Expense, error) {
	records, err := s.repo.ListByClient(clientID, filters)
	if err != nil {
		s.logger.Error("failed to list expense records", "error", err, "client_id", clientID)
		return nil, err
	}
	return records, nil
}

// Update applies field edits. Status changes go through Approve and Reject,
// never through here.
func (s *Service) Update(ctx context.Context, id string, dto UpdateExpenseDTO) (*Expense, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrExpenseNotFound
	}

	if dto.ProjectID != nil {
		record.ProjectID = *dto.ProjectID
	}
	if dto.CategoryID != nil {
		record.CategoryID = *dto.CategoryID
	}
	if dto.Total != nil {
		record.Total = *dto.Total
	}
	if dto.FileURL != nil {
		record.FileURL = *dto.FileURL
	}
	if dto.FechaEmision != nil {
		record.FechaEmision = ParseFechaEmision(*dto.FechaEmision)
	}
	record.UpdatedAt = time.Now()

	if err := s.repo.Update(record); err != nil {
		s.logger.Error("failed to update expense record", "error", err, "expense_id", id)
		return nil, err
	}
	return record, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return internal.ErrExpenseNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete expense record", "error", err, "expense_id", id)
		return err
	}
	s.logger.Info("expense record deleted", "expense_id", id)
	return nil
}

// Approve marks the record approved. The decision is terminal and requires
// an identified actor.
func (s *Service) Approve(ctx context.Context, id, actorID string) (*Expense, error) {
	if actorID == "" {
		return nil, internal.ErrActorRequired
	}

	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrExpenseNotFound
	}
	if !record.CanBeDecided() {
		s.logger.Warn("approve rejected by state machine", "expense_id", id, "status", record.Status)
		return nil, internal.ErrInvalidTransition
	}

	record.Approve(actorID)
	if err := s.repo.Update(record); err != nil {
		s.logger.Error("failed to approve expense record", "error", err, "expense_id", id)
		return nil, err
	}

	s.logger.Info("expense record approved", "expense_id", id, "approved_by", actorID)
	s.publish(ctx, events.NewExpenseApprovedEvent(record.ID, record.ClientID, record.CreatedBy, actorID))
	return record, nil
}

// Reject marks the record rejected. Requires an actor and a reason.
func (s *Service) Reject(ctx context.Context, id, actorID string, dto RejectExpenseDTO) (*Expense, error) {
	if actorID == "" {
		return nil, internal.ErrActorRequired
	}
	if dto.Reason == "" {
		return nil, internal.ErrReasonRequired
	}

	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrExpenseNotFound
	}
	if !record.CanBeDecided() {
		s.logger.Warn("reject rejected by state machine", "expense_id", id, "status", record.Status)
		return nil, internal.ErrInvalidTransition
	}

	record.Reject(actorID, dto.Reason)
	if err := s.repo.Update(record); err != nil {
		s.logger.Error("failed to reject expense record", "error", err, "expense_id", id)
		return nil, err
	}

	s.logger.Info("expense record rejected", "expense_id", id, "rejected_by", actorID)
	s.publish(ctx, events.NewExpenseRejectedEvent(record.ID, record.ClientID, record.CreatedBy, actorID, dto.Reason))
	return record, nil
}

// SunatValidationInfo returns the stored validation outcome for a record.
func (s *Service) SunatValidationInfo(ctx context.Context, id string) (*SunatValidationInfo, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrExpenseNotFound
	}

	validation := record.Data.SunatValidation
	info := &SunatValidationInfo{
		ExpenseID:     record.ID,
		Status:        record.Status,
		HasValidation: validation.Status != "" && validation.Status != sunat.StatusPending,
		Message:       validation.Message,
		ExtractedData: record.Data.ExtractedInvoiceData,
	}
	if info.HasValidation {
		info.SunatValidation = validation
	}
	return info, nil
}
