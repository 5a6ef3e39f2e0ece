package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
	"shared-notes-server/pkg/hash"
	"shared-notes-server/pkg/jwt"
)

type AuthService struct {
	store             repository.Store
	jwtSecret         string
	jwtExpiration     time.Duration
	refreshExpiration time.Duration
	now               func() time.Time
}

func NewAuthService(store repository.Store, jwtSecret string, jwtExp, refreshExp time.Duration) *AuthService {
	return &AuthService{
		store:             store,
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExp,
		refreshExpiration: refreshExp,
		now:               time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooShort) {
			return nil, domain.Validation(err.Error())
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *domain.User
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		emailExists, err := tx.Users().EmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check email existence: %w", err)
		}
		if emailExists {
			return domain.Conflict("Email already registered")
		}

		usernameExists, err := tx.Users().UsernameExists(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to check username existence: %w", err)
		}
		if usernameExists {
			return domain.Conflict("Username already taken")
		}

		now := s.now()
		user = &domain.User{
			Username:     username,
			Email:        email,
			Name:         strings.TrimSpace(req.Name),
			PasswordHash: hashedPassword,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.store.Users().FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	if err := hash.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, domain.Unauthorized("Invalid credentials")
	}

	accessToken, err := jwt.GenerateToken(user.ID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, s.refreshExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.LoginResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtExpiration.Seconds()),
	}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.TokenResponse, error) {
	claims, err := jwt.ValidateRefreshToken(req.RefreshToken, s.jwtSecret)
	if err != nil {
		return nil, domain.Unauthorized("Invalid refresh token")
	}

	if _, err := s.store.Users().FindByID(ctx, claims.UserID); err != nil {
		return nil, domain.Unauthorized("Invalid refresh token")
	}

	accessToken, err := jwt.GenerateToken(claims.UserID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtExpiration.Seconds()),
	}, nil
}
