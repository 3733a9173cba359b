package category

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/condorlabs/comprobantes/internal"
	categoryDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/category"
)

type RepositoryAPI interface {
	GetAllByClient(clientID string) ([]*categoryDatamodel.ExpenseCategory, error)
	GetByID(id string) (*categoryDatamodel.ExpenseCategory, error)
	Create(category *categoryDatamodel.ExpenseCategory) error
	Update(category *categoryDatamodel.ExpenseCategory) error
	Delete(id string) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetActiveByClient returns the active categories a record can be filed
// under.
func (s *Service) GetActiveByClient(clientID string) ([]*Category, error) {
	dataCategories, err := s.repo.GetAllByClient(clientID)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err, "client_id", clientID)
		return nil, err
	}

	var categories []*Category
	for _, dm := range dataCategories {
		c := FromDataModel(dm)
		if c.IsActiveCategory() {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func (s *Service) GetByID(id string) (*Category, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if dm == nil {
		return nil, internal.ErrCategoryNotFound
	}
	return FromDataModel(dm), nil
}

func (s *Service) Create(dto CreateCategoryDTO) (*Category, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	now := time.Now()
	c := &Category{
		ID:          uuid.New().String(),
		ClientID:    dto.ClientID,
		Name:        dto.Name,
		Description: dto.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ToDataModel(c)); err != nil {
		s.logger.Error("failed to create category", "error", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("category created", "category_id", c.ID, "client_id", c.ClientID, "name", c.Name)
	return c, nil
}

func (s *Service) Update(id string, dto UpdateCategoryDTO) (*Category, error) {
	c, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		c.Name = *dto.Name
	}
	if dto.Description != nil {
		c.Description = *dto.Description
	}
	if dto.IsActive != nil {
		c.IsActive = *dto.IsActive
	}
	c.UpdatedAt = time.Now()

	if err := s.repo.Update(ToDataModel(c)); err != nil {
		s.logger.Error("failed to update category", "error", err, "category_id", id)
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(id string) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete category", "error", err, "category_id", id)
		return err
	}
	return nil
}
