package project

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/condorlabs/comprobantes/internal"
	projectDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/project"
)

type RepositoryAPI interface {
	GetAllByClient(clientID string) ([]*projectDatamodel.Project, error)
	GetByID(id string) (*projectDatamodel.Project, error)
	Create(project *projectDatamodel.Project) error
	Update(project *projectDatamodel.Project) error
	Delete(id string) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetActiveByClient(clientID string) ([]*Project, error) {
	dms, err := s.repo.GetAllByClient(clientID)
	if err != nil {
		s.logger.Error("failed to list projects", "error", err, "client_id", clientID)
		return nil, err
	}
	var projects []*Project
	for _, dm := range dms {
		p := FromDataModel(dm)
		if p.IsActive {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

func (s *Service) GetByID(id string) (*Project, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if dm == nil {
		return nil, internal.ErrProjectNotFound
	}
	return FromDataModel(dm), nil
}

func (s *Service) Create(dto CreateProjectDTO) (*Project, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	now := time.Now()
	p := &Project{
		ID:          uuid.New().String(),
		ClientID:    dto.ClientID,
		Name:        dto.Name,
		Description: dto.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ToDataModel(p)); err != nil {
		s.logger.Error("failed to create project", "error", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("project created", "project_id", p.ID, "client_id", p.ClientID)
	return p, nil
}

func (s *Service) Update(id string, dto UpdateProjectDTO) (*Project, error) {
	p, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		p.Name = *dto.Name
	}
	if dto.Description != nil {
		p.Description = *dto.Description
	}
	if dto.IsActive != nil {
		p.IsActive = *dto.IsActive
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ToDataModel(p)); err != nil {
		s.logger.Error("failed to update project", "error", err, "project_id", id)
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(id string) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete project", "error", err, "project_id", id)
		return err
	}
	return nil
}
