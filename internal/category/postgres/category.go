package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/condorlabs/comprobantes/internal/category"
	categoryDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/category"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetAllByClient(clientID string) ([]*categoryDatamodel.ExpenseCategory, error) {
	var categories []*categoryDatamodel.ExpenseCategory
	err := r.db.Where("client_id = ?", clientID).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) GetByID(id string) (*categoryDatamodel.ExpenseCategory, error) {
	var cat categoryDatamodel.ExpenseCategory
	err := r.db.Where("id = ?", id).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (r *CategoryRepository) Create(cat *categoryDatamodel.ExpenseCategory) error {
	return r.db.Create(cat).Error
}

func (r *CategoryRepository) Update(cat *categoryDatamodel.ExpenseCategory) error {
	return r.db.Save(cat).Error
}

func (r *CategoryRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&categoryDatamodel.ExpenseCategory{}).Error
}
