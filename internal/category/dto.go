package category

import "errors"

type CreateCategoryDTO struct {
	ClientID    string `json:"client_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (dto CreateCategoryDTO) Validate() error {
	if dto.ClientID == "" {
		return errors.New("client_id is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type UpdateCategoryDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type CategoriesResponse struct {
	Categories []*Category `json:"categories"`
}
