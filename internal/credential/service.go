package credential

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/sunat"
)

// Service owns the SUNAT credential lifecycle and doubles as the gateway's
// credential store.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(dto CreateCredentialDTO) (*Credential, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByClientID(dto.ClientID); err == nil && existing != nil {
		return nil, internal.ErrCredentialsExist
	}

	now := time.Now()
	cred := &Credential{
		ID:                uuid.New().String(),
		ClientID:          dto.ClientID,
		SunatClientID:     dto.SunatClientID,
		SunatClientSecret: dto.SunatClientSecret,
		RUC:               dto.RUC,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(cred); err != nil {
		s.logger.Error("failed to create sunat credentials", "error", err, "client_id", dto.ClientID)
		return nil, internal.NewInternalError("could not store credentials", err)
	}

	s.logger.Info("sunat credentials created", "client_id", dto.ClientID, "ruc", dto.RUC)
	return cred, nil
}

func (s *Service) Get(clientID string) (*Credential, error) {
	cred, err := s.repo.GetByClientID(clientID)
	if err != nil {
		return nil, internal.ErrCredentialsNotFound
	}
	return cred, nil
}

func (s *Service) Update(clientID string, dto UpdateCredentialDTO) (*Credential, error) {
	cred, err := s.repo.GetByClientID(clientID)
	if err != nil {
		return nil, internal.ErrCredentialsNotFound
	}

	if dto.SunatClientID != nil {
		cred.SunatClientID = *dto.SunatClientID
	}
	if dto.SunatClientSecret != nil {
		cred.SunatClientSecret = *dto.SunatClientSecret
	}
	if dto.RUC != nil {
		cred.RUC = *dto.RUC
	}
	if dto.IsActive != nil {
		cred.IsActive = *dto.IsActive
	}
	cred.UpdatedAt = time.Now()

	if err := s.repo.Update(cred); err != nil {
		s.logger.Error("failed to update sunat credentials", "error", err, "client_id", clientID)
		return nil, internal.NewInternalError("could not update credentials", err)
	}
	return cred, nil
}

func (s *Service) Delete(clientID string) error {
	if err := s.repo.DeleteByClientID(clientID); err != nil {
		return internal.ErrCredentialsNotFound
	}
	s.logger.Info("sunat credentials deleted", "client_id", clientID)
	return nil
}

// GetActive implements sunat.CredentialStore. Clients without a stored
// credential set cannot validate against SUNAT.
func (s *Service) GetActive(ctx context.Context, clientID string) (*sunat.Credentials, error) {
	cred, err := s.repo.GetByClientID(clientID)
	if err != nil {
		s.logger.Warn("no sunat credentials for client", "client_id", clientID)
		return nil, internal.ErrCredentialsNotFound
	}
	return &sunat.Credentials{
		SunatClientID:     cred.SunatClientID,
		SunatClientSecret: cred.SunatClientSecret,
		RUC:               cred.RUC,
	}, nil
}

// MarkActivated implements sunat.CredentialStore, recording that a token
// exchange succeeded with this credential set.
func (s *Service) MarkActivated(ctx context.Context, clientID string) error {
	cred, err := s.repo.GetByClientID(clientID)
	if err != nil {
		return internal.ErrCredentialsNotFound
	}
	if cred.IsActive {
		return nil
	}
	cred.IsActive = true
	cred.UpdatedAt = time.Now()
	return s.repo.Update(cred)
}
