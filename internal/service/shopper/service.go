package shopper

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"storefront-api/internal/domain"
	"storefront-api/internal/repository/shopper"
)

const minPasswordLength = 8

type Service struct {
	repo shopper.Repository
}

func New(repo shopper.Repository) *Service {
	return &Service{repo: repo}
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Shopper, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Validation("invalid_email", "a valid email address is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.Validation("weak_password", "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, domain.Shopper{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.Conflict("email_taken", "an account with this email already exists", nil)
		}
		return nil, err
	}
	return created, nil
}

// Login verifies the credentials. Unknown email and wrong password return
// the same error so the endpoint does not leak which emails are registered.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Shopper, error) {
	invalid := domain.Validation("invalid_credentials", "email or password is incorrect")

	found, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}
	return found, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Shopper, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundError("shopper_not_found", "no such account")
		}
		return nil, err
	}
	return found, nil
}
