package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/diacare/diacare-api/internal/crypto"
	"github.com/diacare/diacare-api/internal/model"
	"github.com/diacare/diacare-api/internal/repository"
)

var (
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordTooLong     = errors.New("password is too long")
	ErrUserNotFound        = errors.New("user not found")
)

// AuthService handles signup and login.
type AuthService struct {
	repo   *repository.UserRepository
	hasher *crypto.PasswordHasher
	tokens *crypto.TokenIssuer
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.UserRepository, hasher *crypto.PasswordHasher, tokens *crypto.TokenIssuer) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// Signup creates a new account. The password is stored only as a salted hash.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) error {
	if req.Email == "" || req.Password == "" {
		return ErrCredentialsRequired
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return ErrPasswordTooLong
		}
		return fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Gender:       req.Gender,
		Age:          req.Age.IntPtr(),
		Nationality:  req.Nationality,
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrUserExists
		}
		return err
	}

	slog.Info("user created", "user_id", user.ID)
	return nil
}

// Login verifies the credentials and returns the stored profile with a
// session token. Unknown email and wrong password both yield
// ErrInvalidCredentials; only the log tells them apart.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return model.LoginResponse{}, ErrCredentialsRequired
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Warn("login failed", "reason", "user not found")
			return model.LoginResponse{}, ErrInvalidCredentials
		}
		return model.LoginResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.LoginResponse{}, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		slog.Warn("login failed", "reason", "password mismatch", "user_id", user.ID)
		return model.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}

	return model.LoginResponse{
		Message: "Login successful",
		User:    user.Profile(),
		Token:   token,
	}, nil
}

// Profile returns the public profile of the user with the given ID.
func (s *AuthService) Profile(ctx context.Context, userID int64) (model.UserProfile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserProfile{}, ErrUserNotFound
		}
		return model.UserProfile{}, err
	}
	return user.Profile(), nil
}
