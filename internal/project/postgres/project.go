package postgres

import (
	"errors"

	"gorm.io/gorm"

	projectDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/project"
	"github.com/condorlabs/comprobantes/internal/project"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) project.RepositoryAPI {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetAllByClient(clientID string) ([]*projectDatamodel.Project, error) {
	var projects []*projectDatamodel.Project
	err := r.db.Where("client_id = ?", clientID).Order("name ASC").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) GetByID(id string) (*projectDatamodel.Project, error) {
	var p projectDatamodel.Project
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Create(p *projectDatamodel.Project) error {
	return r.db.Create(p).Error
}

func (r *ProjectRepository) Update(p *projectDatamodel.Project) error {
	return r.db.Save(p).Error
}

func (r *ProjectRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&projectDatamodel.Project{}).Error
}
