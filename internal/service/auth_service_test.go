package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aniketverma031/helpdesk-project/internal/config"
	"github.com/aniketverma031/helpdesk-project/internal/domain"
	"github.com/aniketverma031/helpdesk-project/internal/repository/repotest"
	"github.com/aniketverma031/helpdesk-project/internal/service"
	apperrors "github.com/aniketverma031/helpdesk-project/pkg/util"
)

func newAuthFixture(t *testing.T) (*repotest.Store, *service.AuthService) {
	t.Helper()
	store := repotest.NewStore(nil)
	svc := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 30,
		BcryptCost:            4,
	}, store)
	return store, svc
}

func TestRegisterAlwaysCreatesPlainUser(t *testing.T) {
	store, svc := newAuthFixture(t)

	user, err := svc.Register(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, domain.RoleUser)
	}
	if user.PasswordHash == "s3cret" || user.PasswordHash == "" {
		t.Error("password stored without hashing")
	}

	stored, ok := store.UserByID(user.ID)
	if !ok {
		t.Fatal("account not persisted")
	}
	if stored.IsSuperuser {
		t.Error("registration produced a superuser")
	}
}

func TestRegisterValidation(t *testing.T) {
	_, svc := newAuthFixture(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "  ", "pw"},
		{"empty password", "alice", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.password)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("Register() error = %v, want validation error", err)
			}
		})
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	_, svc := newAuthFixture(t)

	if _, err := svc.Register(context.Background(), "alice", "pw1"); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}
	_, err := svc.Register(context.Background(), "alice", "pw2")
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("duplicate Register() error = %v, want validation error", err)
	}
}

func TestLogin(t *testing.T) {
	_, svc := newAuthFixture(t)
	registered, err := svc.Register(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	user, token, exp, err := svc.Login(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("logged in as %s, want %s", user.ID, registered.ID)
	}
	if token == "" {
		t.Error("empty access token")
	}
	if !exp.After(time.Now()) {
		t.Errorf("token expiry %v is not in the future", exp)
	}

	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}
	if claims.UserID != registered.ID || claims.Role != domain.RoleUser {
		t.Errorf("claims = %+v, want subject %s with role user", claims, registered.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, svc := newAuthFixture(t)
	if _, err := svc.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "wrong"},
		{"unknown user", "mallory", "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := svc.Login(context.Background(), tt.username, tt.password)
			if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
				t.Fatalf("Login() error = %v, want unauthorized", err)
			}
		})
	}
}
