package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

type memoryUsers struct {
	byEmail map[string]*models.User
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memoryUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(&memoryUsers{byEmail: map[string]*models.User{}})

	user, err := a.Register(ctx, " Alice@Example.com ", "Alice", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized", user.Email)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in plain text")
	}

	tests := []struct {
		name    string
		email   string
		pass    string
		wantErr error
	}{
		{"duplicate email", "alice@example.com", "another password", ErrEmailExists},
		{"weak password", "bob@example.com", "short", ErrWeakPassword},
		{"bad email", "not-an-email", "long enough", ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Register(ctx, tt.email, "X", tt.pass); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := a.Authenticate(ctx, "alice@example.com", "correct horse"); err != nil {
		t.Errorf("Authenticate failed: %v", err)
	}
	if _, err := a.Authenticate(ctx, "alice@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := a.Authenticate(ctx, "ghost@example.com", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v", err)
	}
}

func TestJWTManager(t *testing.T) {
	user := &models.User{ID: "u1", Email: "u1@example.com"}
	m := NewJWTManager("secret", time.Hour)

	token, err := m.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if until := time.Until(token.ExpiresAt); until <= 59*time.Minute || until > time.Hour {
		t.Errorf("expires in %v, want about an hour", until)
	}

	claims, err := m.Verify(token.Value)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID() != "u1" || claims.Email != "u1@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	tests := []struct {
		name string
		raw  string
		m    *JWTManager
	}{
		{"wrong secret", token.Value, NewJWTManager("other-secret", time.Hour)},
		{"garbage", "not.a.token", m},
		{"empty", "", m},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.m.Verify(tt.raw); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify = %v, want ErrInvalidToken", err)
			}
		})
	}

	t.Run("expired", func(t *testing.T) {
		later := NewJWTManager("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := later.Verify(token.Value); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify = %v, want ErrInvalidToken", err)
		}
	})
}
