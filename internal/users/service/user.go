package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"roombook/internal/auth"
	userserrors "roombook/internal/users/errors"
	"roombook/internal/users/repository"
	"roombook/internal/users/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/validation"
)

type UserService interface {
	Register(ctx context.Context, reg *model.Registration) (*model.User, error)
	Login(ctx context.Context, creds *model.Credentials) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(userID string, role model.Role) (string, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	hasher    PasswordHasher
	tokens    TokenIssuer
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	hasher PasswordHasher,
	tokens TokenIssuer,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		hasher:    hasher,
		tokens:    tokens,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, reg *model.Registration) (*model.User, error) {
	reg.Username = sanitizer.NormalizeUsername(reg.Username)
	reg.Role = model.Role(strings.ToLower(strings.TrimSpace(string(reg.Role))))
	if reg.Role == "" {
		reg.Role = model.RoleCustomer
	}

	if err := s.validator.ValidateRegistration(reg); err != nil {
		s.cfg.Log.Warn("User registration validation failed",
			"username", reg.Username,
			"error", err,
		)
		return nil, validationError("User validation failed", err)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		s.cfg.Log.Error("Failed to hash password", "username", reg.Username, "error", err)
		return nil, apperrors.Internal("Failed to register user", err)
	}

	user := &model.User{
		Username:     reg.Username,
		PasswordHash: hash,
		Role:         reg.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateUsername) {
			return nil, apperrors.Conflict("Username already exists").
				WithDetails(map[string]any{"username": reg.Username})
		}
		s.cfg.Log.Error("Failed to create user", "username", reg.Username, "error", err)
		return nil, apperrors.Internal("Failed to register user", err)
	}

	s.cfg.Log.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) Login(ctx context.Context, creds *model.Credentials) (string, error) {
	username := sanitizer.NormalizeUsername(creds.Username)
	if username == "" || creds.Password == "" {
		return "", apperrors.InvalidInput("Username and password are required")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return "", invalidCredentials()
		}
		s.cfg.Log.Error("Failed to load user for login", "username", username, "error", err)
		return "", apperrors.Internal("Failed to log in", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.cfg.Log.Info("Login rejected", "username", username, "reason", "password mismatch")
			return "", invalidCredentials()
		}
		s.cfg.Log.Error("Failed to verify password", "username", username, "error", err)
		return "", apperrors.Internal("Failed to log in", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.cfg.Log.Error("Failed to issue token", "user_id", user.ID, "error", err)
		return "", apperrors.Internal("Failed to log in", err)
	}
	return token, nil
}

// invalidCredentials does not reveal whether the username exists. The contract answers 400.
func invalidCredentials() *apperrors.AppError {
	return apperrors.Unauthorized("Invalid username or password").WithStatus(http.StatusBadRequest)
}

func validationError(message string, err error) *apperrors.AppError {
	var errs validation.ValidationErrors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
