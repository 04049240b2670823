package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
)

// ErrEmailTaken indicates signup with an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidCredentials indicates a failed signin.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrUserNotFound indicates an account could not be resolved.
var ErrUserNotFound = errors.New("user not found")

// AuthService registers accounts and issues JWT session tokens.
type AuthService interface {
	SignUp(ctx context.Context, payload dto.SignUpRequest) (dto.AuthResponse, error)
	SignIn(ctx context.Context, payload dto.SignInRequest) (dto.AuthResponse, error)
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	validator *validator.Validate
	secret    []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users repository.UserRepository, validate *validator.Validate, secret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	return &authService{
		users:     users,
		validator: validate,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, payload dto.SignUpRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(payload.Name),
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		PasswordHash: string(hash),
		Role:         payload.Role,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("account created")

	return s.issueToken(user)
}

func (s *authService) SignIn(ctx context.Context, payload dto.SignInRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(payload.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) issueToken(user models.User) (dto.AuthResponse, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return dto.AuthResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	}, nil
}
