package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gym_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	repo := new(mockUserRepo)
	now := time.Now()
	repo.On("FindAll", mock.Anything).Return([]model.User{
		{ID: 2, Name: "Bob", Email: "bob@x.io", PasswordHash: "h2", Role: model.RoleMember, CreatedAt: now},
		{ID: 1, Name: "Ann", Email: "ann@x.io", PasswordHash: "h1", Role: model.RoleAdmin, CreatedAt: now},
	}, nil)

	users, err := NewUserService(repo).ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(2), users[0].ID)

	raw, err := json.Marshal(users)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "h1")
	repo.AssertExpectations(t)
}

func TestListUsers_Error(t *testing.T) {
	repo := new(mockUserRepo)
	dbErr := errors.New("timeout")
	repo.On("FindAll", mock.Anything).Return(nil, dbErr)

	_, err := NewUserService(repo).ListUsers(context.Background())
	assert.ErrorIs(t, err, dbErr)
}

func TestDeleteUser(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("Delete", mock.Anything, int64(1)).Return(true, nil)
	repo.On("Delete", mock.Anything, int64(2)).Return(false, nil)
	repo.On("Delete", mock.Anything, int64(3)).Return(false, errors.New("locked"))

	svc := NewUserService(repo)
	assert.NoError(t, svc.DeleteUser(context.Background(), 1))
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), 2), ErrUserNotFound)

	err := svc.DeleteUser(context.Background(), 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	repo.AssertExpectations(t)
}
