package credential

import (
	"time"

	"github.com/condorlabs/comprobantes/internal/core/common/validation"
)

// Credential holds a client's SUNAT extranet OAuth2 secrets. One credential
// set per client; IsActive flips true after the first successful token
// exchange.
type Credential struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	ClientID          string    `json:"client_id" gorm:"column:client_id;uniqueIndex;not null"`
	SunatClientID     string    `json:"sunat_client_id" gorm:"column:sunat_client_id;not null"`
	SunatClientSecret string    `json:"-" gorm:"column:sunat_client_secret;not null"`
	RUC               string    `json:"ruc" gorm:"column:ruc;not null"`
	IsActive          bool      `json:"is_active" gorm:"column:is_active;default:false"`
	CreatedAt         time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Credential) TableName() string {
	return "sunat_credentials"
}

// Repository defines data access for SUNAT credentials.
type Repository interface {
	Create(cred *Credential) error
	GetByClientID(clientID string) (*Credential, error)
	GetActiveByClientID(clientID string) (*Credential, error)
	Update(cred *Credential) error
	DeleteByClientID(clientID string) error
}

type CreateCredentialDTO struct {
	ClientID          string `json:"client_id"`
	SunatClientID     string `json:"sunat_client_id"`
	SunatClientSecret string `json:"sunat_client_secret"`
	RUC               string `json:"ruc"`
}

func (dto CreateCredentialDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("client_id", dto.ClientID).Required()
	v.Field("sunat_client_id", dto.SunatClientID).Required()
	v.Field("sunat_client_secret", dto.SunatClientSecret).Required()
	v.Field("ruc", dto.RUC).Required().RUC()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateCredentialDTO struct {
	SunatClientID     *string `json:"sunat_client_id,omitempty"`
	SunatClientSecret *string `json:"sunat_client_secret,omitempty"`
	RUC               *string `json:"ruc,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}
