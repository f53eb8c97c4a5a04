package service

import (
	"context"
	"fmt"

	"gym_backend/internal/model"
	"gym_backend/internal/repository"
)

// UserService exposes administrative user operations
type UserService interface {
	ListUsers(ctx context.Context) ([]model.UserResponse, error)
	DeleteUser(ctx context.Context, userID int64) error
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// ListUsers returns every account, newest first
func (s *userService) ListUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return model.NewUserResponses(users), nil
}

// DeleteUser removes an account. Tokens already issued to it stop resolving at the auth gate.
func (s *userService) DeleteUser(ctx context.Context, userID int64) error {
	deleted, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}
