package category

import (
	"time"

	categoryDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/category"
)

// Category classifies a client's expense records (viáticos, supplies,
// services and so on). Categories are scoped per client.
type Category struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Category) IsActiveCategory() bool {
	return c.IsActive
}

func (c *Category) Activate() {
	c.IsActive = true
	c.UpdatedAt = time.Now()
}

func (c *Category) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
}

func ToDataModel(c *Category) *categoryDatamodel.ExpenseCategory {
	return &categoryDatamodel.ExpenseCategory{
		ID:          c.ID,
		ClientID:    c.ClientID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromDataModel(c *categoryDatamodel.ExpenseCategory) *Category {
	return &Category{
		ID:          c.ID,
		ClientID:    c.ClientID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
