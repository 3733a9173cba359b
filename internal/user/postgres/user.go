package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/condorlabs/comprobantes/internal"
	userDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/user"
	"github.com/condorlabs/comprobantes/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	return r.db.Create(user.ToDataModel(u)).Error
}

func (r *UserRepository) GetByID(id string) (*user.User, error) {
	var dm userDatamodel.User
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) GetByEmail(clientID, email string) (*user.User, error) {
	var dm userDatamodel.User
	err := r.db.Where("client_id = ? AND email = ?", clientID, email).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) ListByClient(clientID string) ([]*user.User, error) {
	var dms []*userDatamodel.User
	err := r.db.Where("client_id = ?", clientID).Order("name ASC").Find(&dms).Error
	if err != nil {
		return nil, err
	}
	users := make([]*user.User, 0, len(dms))
	for _, dm := range dms {
		users = append(users, user.FromDataModel(dm))
	}
	return users, nil
}

func (r *UserRepository) Update(u *user.User) error {
	return r.db.Save(user.ToDataModel(u)).Error
}
