package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/deepscout/deepscout/internal/domain"
	"github.com/deepscout/deepscout/internal/domain/user"
)

// UserStore is the persistence surface the account service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	DeleteUser(ctx context.Context, id string) error
}

// Users manages accounts.
type Users struct {
	store UserStore
}

// NewUsers creates the account service.
func NewUsers(store UserStore) *Users {
	return &Users{store: store}
}

// Create registers a new account with a bcrypt password hash.
func (s *Users) Create(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns an account by id.
func (s *Users) Get(ctx context.Context, id string) (*user.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns all accounts.
func (s *Users) List(ctx context.Context) ([]user.User, error) {
	return s.store.ListUsers(ctx)
}

// Update changes an account's name and, when a new password is given,
// its password hash.
func (s *Users) Update(ctx context.Context, id string, req user.UpdateRequest) (*user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes an account.
func (s *Users) Delete(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}
