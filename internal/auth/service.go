package auth

import (
	"log/slog"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/user"
)

// UserAuthenticator verifies a password against the user directory.
type UserAuthenticator interface {
	Authenticate(clientID, email, password string) (*user.User, error)
}

type Service struct {
	users  UserAuthenticator
	tokens TokenGenerator
	logger *slog.Logger
}

func NewService(users UserAuthenticator, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate validates credentials and returns a token pair.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	u, err := s.users.Authenticate(dto.ClientID, dto.Email, dto.Password)
	if err != nil {
		s.logger.Warn("authentication failed", "email", dto.Email, "client_id", dto.ClientID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.GenerateAccessToken(u.ID, u.ClientID)
	if err != nil {
		return AuthTokens{}, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(u.ID, u.ClientID)
	if err != nil {
		return AuthTokens{}, err
	}

	s.logger.Info("user authenticated", "user_id", u.ID, "client_id", u.ClientID)
	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RefreshTokens exchanges a valid refresh token for a new pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	accessToken, err := s.tokens.GenerateAccessToken(claims.UserID, claims.ClientID)
	if err != nil {
		return AuthTokens{}, err
	}
	newRefresh, err := s.tokens.GenerateRefreshToken(claims.UserID, claims.ClientID)
	if err != nil {
		return AuthTokens{}, err
	}
	return AuthTokens{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}
