// Package services orchestrates domain operations across storage, AMQP and
// the reporting caches.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"centsible/internal/auth"
	"centsible/internal/core"
	"centsible/internal/storage"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	ErrNotMember  = errors.New("user is not a member of the group")
)

// AuthService handles signup and login and issues bearer tokens.
type AuthService struct {
	storage *storage.SQLiteRepository
	tokens  *auth.TokenManager
}

func NewAuthService(storage *storage.SQLiteRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{storage: storage, tokens: tokens}
}

// Signup creates the account and returns it with a fresh token.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (core.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return core.User{}, "", fmt.Errorf("name and email are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, "", err
	}

	user, err := s.storage.CreateUser(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return core.User{}, "", ErrEmailTaken
		}
		return core.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, "", auth.ErrInvalidCredentials
		}
		return core.User{}, "", fmt.Errorf("lookup user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return core.User{}, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}
