package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/condorlabs/comprobantes/internal/client"
	clientDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/client"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) client.RepositoryAPI {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) GetAll() ([]*clientDatamodel.Client, error) {
	var clients []*clientDatamodel.Client
	err := r.db.Order("name ASC").Find(&clients).Error
	return clients, err
}

func (r *ClientRepository) GetByID(id string) (*clientDatamodel.Client, error) {
	var c clientDatamodel.Client
	err := r.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) Create(c *clientDatamodel.Client) error {
	return r.db.Create(c).Error
}

func (r *ClientRepository) Update(c *clientDatamodel.Client) error {
	return r.db.Save(c).Error
}
