package client

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/condorlabs/comprobantes/internal"
	clientDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/client"
)

type RepositoryAPI interface {
	GetAll() ([]*clientDatamodel.Client, error)
	GetByID(id string) (*clientDatamodel.Client, error)
	Create(client *clientDatamodel.Client) error
	Update(client *clientDatamodel.Client) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetAll() ([]*Client, error) {
	dms, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to list clients", "error", err)
		return nil, err
	}
	clients := make([]*Client, 0, len(dms))
	for _, dm := range dms {
		clients = append(clients, FromDataModel(dm))
	}
	return clients, nil
}

func (s *Service) GetByID(id string) (*Client, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if dm == nil {
		return nil, internal.ErrClientNotFound
	}
	return FromDataModel(dm), nil
}

func (s *Service) Create(dto CreateClientDTO) (*Client, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &Client{
		ID:        uuid.New().String(),
		Name:      dto.Name,
		RUC:       dto.RUC,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ToDataModel(c)); err != nil {
		s.logger.Error("failed to create client", "error", err, "ruc", dto.RUC)
		return nil, err
	}

	s.logger.Info("client created", "client_id", c.ID, "ruc", c.RUC)
	return c, nil
}

func (s *Service) Update(id string, dto UpdateClientDTO) (*Client, error) {
	c, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		c.Name = *dto.Name
	}
	if dto.IsActive != nil {
		c.IsActive = *dto.IsActive
	}
	c.UpdatedAt = time.Now()

	if err := s.repo.Update(ToDataModel(c)); err != nil {
		s.logger.Error("failed to update client", "error", err, "client_id", id)
		return nil, err
	}
	return c, nil
}
