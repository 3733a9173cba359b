package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/notification"
)

type Repository interface {
	Create(u *User) error
	GetByID(id string) (*User, error)
	GetByEmail(clientID, email string) (*User, error)
	ListByClient(clientID string) ([]*User, error)
	Update(u *User) error
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

func (s *Service) Create(dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", "error", err)
		return nil, err
	}

	now := time.Now()
	u := &User{
		ID:           uuid.New().String(),
		ClientID:     dto.ClientID,
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "client_id", u.ClientID)
	return u, nil
}

func (s *Service) GetByID(id string) (*User, error) {
	return s.repo.GetByID(id)
}

// Authenticate verifies a user's credentials within a client.
func (s *Service) Authenticate(clientID, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(clientID, email)
	if err != nil {
		return nil, internal.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, internal.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) ListByClient(clientID string) ([]*User, error) {
	return s.repo.ListByClient(clientID)
}

func (s *Service) Update(id string, dto UpdateUserDTO) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	u.UpdatedAt = time.Now()
	if err := s.repo.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Recipient and RecipientsByClient implement the notification directory.

func (s *Service) Recipient(ctx context.Context, userID string) (*notification.Recipient, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return &notification.Recipient{ID: u.ID, Email: u.Email, Name: u.Name}, nil
}

func (s *Service) RecipientsByClient(ctx context.Context, clientID string) ([]notification.Recipient, error) {
	users, err := s.repo.ListByClient(clientID)
	if err != nil {
		return nil, err
	}
	recipients := make([]notification.Recipient, 0, len(users))
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		recipients = append(recipients, notification.Recipient{ID: u.ID, Email: u.Email, Name: u.Name})
	}
	return recipients, nil
}
