package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pl-predictions/internal/config"
	"pl-predictions/internal/constants"
	"pl-predictions/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users  UserStore
	secret []byte
	logger zerolog.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, cfg *config.Config, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		logger: logger,
		now:    time.Now,
	}
}

type tokenClaims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, string, error) {
	username, err := domain.NormalizeUsername(username)
	if err != nil {
		return nil, "", err
	}
	if password == "" {
		return nil, "", fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), constants.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, "", fmt.Errorf("%w: password too long", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		return nil, "", err
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	username, err := domain.NormalizeUsername(username)
	if err != nil {
		return nil, "", err
	}
	if password == "" {
		return nil, "", fmt.Errorf("%w: username and password required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug().Str("username", username).Msg("login for unknown user")
		return nil, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Int64("user_id", user.ID).Msg("password mismatch")
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate validates a bearer token and loads its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected token")
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(constants.TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
