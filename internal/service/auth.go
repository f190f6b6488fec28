package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"projecttracker/internal/model"
	"projecttracker/pkg/util"
)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords,
// so login failures do not leak which of the two it was.
var ErrInvalidCredentials = errors.New("invalid username or password")

type userStore interface {
	Insert(ctx context.Context, u *model.User) (int, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type AuthService struct {
	users     userStore
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthService(users userStore, jwtSecret string, log *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// Register creates an account linked (optionally) to a directory entry.
func (s *AuthService) Register(ctx context.Context, username, password string, employeeID *int) (*model.User, error) {
	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Username:     username,
		PasswordHash: hash,
		EmployeeID:   employeeID,
	}
	id, err := s.users.Insert(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id

	s.logger.Info("User registered", zap.String("username", username))
	return u, nil
}

// Login verifies credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !util.CheckPassword(password, u.PasswordHash) {
		s.logger.Warn("Login failed", zap.String("username", username))
		return "", ErrInvalidCredentials
	}
	return util.GenerateJWT(u.ID, s.jwtSecret)
}

// UserByID loads the account the auth middleware resolved from a token.
func (s *AuthService) UserByID(ctx context.Context, id int) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}
