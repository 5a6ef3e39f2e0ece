package service

import (
	"context"
	"testing"
	"time"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository/memory"
	"shared-notes-server/pkg/jwt"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		req      *domain.RegisterRequest
		wantKind domain.Kind
		setup    func(s *AuthService)
	}{
		{
			name: "successful registration",
			req: &domain.RegisterRequest{
				Username: "newuser",
				Email:    "New@Example.com",
				Password: "Password123!",
			},
			setup: func(s *AuthService) {},
		},
		{
			name: "duplicate email",
			req: &domain.RegisterRequest{
				Username: "anotheruser",
				Email:    "existing@example.com",
				Password: "Password123!",
			},
			wantKind: domain.KindConflict,
			setup: func(s *AuthService) {
				s.Register(ctx, &domain.RegisterRequest{
					Username: "existinguser",
					Email:    "existing@example.com",
					Password: "ExistingPass123!",
				})
			},
		},
		{
			name: "duplicate username",
			req: &domain.RegisterRequest{
				Username: "duplicateuser",
				Email:    "unique@example.com",
				Password: "Password123!",
			},
			wantKind: domain.KindConflict,
			setup: func(s *AuthService) {
				s.Register(ctx, &domain.RegisterRequest{
					Username: "duplicateuser",
					Email:    "other@example.com",
					Password: "Password123!",
				})
			},
		},
		{
			name: "weak password",
			req: &domain.RegisterRequest{
				Username: "testuser",
				Email:    "test@example.com",
				Password: "weak",
			},
			wantKind: domain.KindValidation,
			setup:    func(s *AuthService) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			service := NewAuthService(store, "test-secret", 15*time.Minute, 7*24*time.Hour)
			tt.setup(service)

			user, err := service.Register(ctx, tt.req)

			if tt.wantKind != "" {
				if err == nil {
					t.Fatal("Register() expected error but got none")
				}
				if got := domain.KindOf(err); got != tt.wantKind {
					t.Errorf("Register() error kind = %v, want %v", got, tt.wantKind)
				}
				return
			}

			if err != nil {
				t.Fatalf("Register() unexpected error = %v", err)
			}
			if user.ID == 0 {
				t.Error("Register() returned user without id")
			}
			if user.Email != "new@example.com" {
				t.Errorf("Register() email = %q, want lower-cased", user.Email)
			}

			exists, _ := store.Users().EmailExists(ctx, "new@example.com")
			if !exists {
				t.Error("Register() user not created in store")
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	service := NewAuthService(memory.NewStore(), "test-secret-key", 15*time.Minute, 7*24*time.Hour)

	password := "UserPassword123!"
	if _, err := service.Register(ctx, &domain.RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: password,
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name    string
		req     *domain.LoginRequest
		wantErr bool
	}{
		{
			name:    "successful login",
			req:     &domain.LoginRequest{Username: "testuser", Password: password},
			wantErr: false,
		},
		{
			name:    "wrong password",
			req:     &domain.LoginRequest{Username: "testuser", Password: "WrongPassword"},
			wantErr: true,
		},
		{
			name:    "non-existent user",
			req:     &domain.LoginRequest{Username: "nobody", Password: password},
			wantErr: true,
		},
		{
			name:    "empty password",
			req:     &domain.LoginRequest{Username: "testuser", Password: ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := service.Login(ctx, tt.req)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Login() expected error but got none")
				}
				if domain.KindOf(err) != domain.KindUnauthorized {
					t.Errorf("Login() error kind = %v, want %v", domain.KindOf(err), domain.KindUnauthorized)
				}
				return
			}

			if err != nil {
				t.Fatalf("Login() unexpected error = %v", err)
			}
			if resp.AccessToken == "" {
				t.Error("Login() returned empty access token")
			}
			if resp.RefreshToken == "" {
				t.Error("Login() returned empty refresh token")
			}
			if resp.User == nil || resp.User.Username != "testuser" {
				t.Errorf("Login() user = %+v", resp.User)
			}
			if resp.ExpiresIn != int64(15*time.Minute.Seconds()) {
				t.Errorf("Login() expiresIn = %v, want %v", resp.ExpiresIn, 15*60)
			}

			claims, err := jwt.ValidateAccessToken(resp.AccessToken, "test-secret-key")
			if err != nil {
				t.Fatalf("ValidateAccessToken() error = %v", err)
			}
			if claims.UserID != resp.User.ID {
				t.Errorf("token user id = %d, want %d", claims.UserID, resp.User.ID)
			}
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	secret := "refresh-test-secret-key"
	store := memory.NewStore()
	service := NewAuthService(store, secret, 15*time.Minute, 7*24*time.Hour)

	user := &domain.User{Username: "refreshuser", Email: "refresh@example.com", PasswordHash: "hashed"}
	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	validToken, _ := jwt.GenerateRefreshToken(user.ID, 7*24*time.Hour, secret)
	expiredToken, _ := jwt.GenerateRefreshToken(user.ID, -1*time.Hour, secret)
	accessToken, _ := jwt.GenerateToken(user.ID, time.Hour, secret)
	orphanToken, _ := jwt.GenerateRefreshToken(user.ID+100, time.Hour, secret)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid refresh token", token: validToken, wantErr: false},
		{name: "expired refresh token", token: expiredToken, wantErr: true},
		{name: "access token used as refresh token", token: accessToken, wantErr: true},
		{name: "deleted user", token: orphanToken, wantErr: true},
		{name: "invalid refresh token", token: "invalid.token.here", wantErr: true},
		{name: "empty refresh token", token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := service.RefreshToken(ctx, &domain.RefreshTokenRequest{RefreshToken: tt.token})

			if tt.wantErr {
				if err == nil {
					t.Error("RefreshToken() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("RefreshToken() unexpected error = %v", err)
			}
			if resp.AccessToken == "" {
				t.Error("RefreshToken() returned empty access token")
			}
			if resp.ExpiresIn != int64(15*time.Minute.Seconds()) {
				t.Errorf("RefreshToken() expiresIn = %v, want %v", resp.ExpiresIn, 15*60)
			}
		})
	}
}
