package user

import (
	"errors"
	"strings"
)

type CreateUserDTO struct {
	ClientID string `json:"client_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (dto CreateUserDTO) Validate() error {
	if dto.ClientID == "" {
		return errors.New("client_id is required")
	}
	if !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if len(dto.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

type UpdateUserDTO struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
