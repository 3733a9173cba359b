package client

import (
	"time"

	"github.com/condorlabs/comprobantes/internal/core/common/validation"
	clientDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/client"
)

// Client is a tenant company. Its RUC is the fiscal identity under which
// comprobantes are validated.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RUC       string    `json:"ruc"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateClientDTO struct {
	Name string `json:"name"`
	RUC  string `json:"ruc"`
}

func (dto CreateClientDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("ruc", dto.RUC).Required().RUC()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateClientDTO struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func ToDataModel(c *Client) *clientDatamodel.Client {
	return &clientDatamodel.Client{
		ID:        c.ID,
		Name:      c.Name,
		RUC:       c.RUC,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromDataModel(c *clientDatamodel.Client) *Client {
	return &Client{
		ID:        c.ID,
		Name:      c.Name,
		RUC:       c.RUC,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
