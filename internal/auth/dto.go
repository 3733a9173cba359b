package auth

import "errors"

type LoginDTO struct {
	ClientID string `json:"client_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	if d.ClientID == "" {
		return errors.New("client_id is required")
	}
	if d.Email == "" {
		return errors.New("email is required")
	}
	if d.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return errors.New("refresh_token is required")
	}
	return nil
}
