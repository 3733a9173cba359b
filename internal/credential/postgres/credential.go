package postgres

import (
	"gorm.io/gorm"

	"github.com/condorlabs/comprobantes/internal/credential"
)

// CredentialRepository implements credential.Repository using GORM.
type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) credential.Repository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Create(cred *credential.Credential) error {
	return r.db.Create(cred).Error
}

func (r *CredentialRepository) GetByClientID(clientID string) (*credential.Credential, error) {
	var cred credential.Credential
	err := r.db.Where("client_id = ?", clientID).First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *CredentialRepository) GetActiveByClientID(clientID string) (*credential.Credential, error) {
	var cred credential.Credential
	err := r.db.Where("client_id = ? AND is_active = ?", clientID, true).First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *CredentialRepository) Update(cred *credential.Credential) error {
	return r.db.Save(cred).Error
}

func (r *CredentialRepository) DeleteByClientID(clientID string) error {
	result := r.db.Where("client_id = ?", clientID).Delete(&credential.Credential{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
