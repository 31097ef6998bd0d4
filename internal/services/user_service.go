package services

import (
	"context"
	"fmt"

	"github.com/catprep/mocktest-service/internal/models"
	"github.com/catprep/mocktest-service/internal/repositories"
	"github.com/catprep/mocktest-service/internal/utils"
)

// ===== REQUEST/RESPONSE TYPES =====

type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20,alphanum"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
}

type UserResponse struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type LoginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Token    string `json:"token"`
}

// UserService handles registration and identification.
type UserService interface {
	Signup(ctx context.Context, req *SignupRequest) (*UserResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	Authenticate(token string) (*Claims, error)
}

type userService struct {
	repo   repositories.Repository
	tokens *TokenIssuer
	logger utils.Logger
}

func NewUserService(repo repositories.Repository, tokens *TokenIssuer, logger utils.Logger) UserService {
	return &userService{
		repo:   repo,
		tokens: tokens,
		logger: logger,
	}
}

// Signup registers a user. Usernames are unique case-insensitively but
// stored with their original casing.
func (s *userService) Signup(ctx context.Context, req *SignupRequest) (*UserResponse, error) {
	exists, err := s.repo.User().Exists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	user := &models.User{
		Username: req.Username,
		Name:     req.Name,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "username", user.Username)

	return &UserResponse{Username: user.Username, Name: user.Name}, nil
}

// Login identifies a user by username only and issues a token.
func (s *userService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.User().GetByUsername(ctx, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := s.tokens.Issue(user.Username, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResponse{
		Message:  "Login successful",
		Username: user.Username,
		Name:     user.Name,
		Token:    token,
	}, nil
}

func (s *userService) Authenticate(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}
