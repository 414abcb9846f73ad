package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"home_energy_dashboard/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSigningKey = "test-signing-key"

// mockAuthRepo is a lightweight in-test mock for repository.Authorization.
type mockAuthRepo struct {
	CreateFn        func(username, hash string) (int, error)
	GetByUsernameFn func(username string) (*models.User, error)

	createCalls []struct {
		username string
		hash     string
	}
	getCalls []string
}

func (m *mockAuthRepo) Create(ctx context.Context, username, hash string) (int, error) {
	m.createCalls = append(m.createCalls, struct {
		username string
		hash     string
	}{username: username, hash: hash})
	return m.CreateFn(username, hash)
}

func (m *mockAuthRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.getCalls = append(m.getCalls, username)
	return m.GetByUsernameFn(username)
}

func newTestAuth(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, AuthConfig{SigningKey: testSigningKey, TokenTTL: 30 * time.Minute})
}

func signClaims(t *testing.T, method jwt.SigningMethod, key any, userID int, exp time.Time) string {
	t.Helper()
	tk := jwt.NewWithClaims(method, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Minute)),
		},
		UserID: userID,
	})
	s, err := tk.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func TestAuthService_SignUp_HashesPassword(t *testing.T) {
	mock := &mockAuthRepo{
		CreateFn: func(username, hash string) (int, error) { return 42, nil },
	}
	svc := newTestAuth(mock)

	id, err := svc.SignUp(context.Background(), "alice", "s3cr3t")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
	if len(mock.createCalls) != 1 {
		t.Fatalf("expected 1 Create call, got %d", len(mock.createCalls))
	}
	call := mock.createCalls[0]
	if call.username != "alice" || call.hash == "s3cr3t" {
		t.Fatalf("unexpected create call: %+v", call)
	}
	if err := verifyPassword(call.hash, "s3cr3t"); err != nil {
		t.Errorf("stored hash does not verify with original password: %v", err)
	}
}

func TestAuthService_SignUp_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		repoErr  error
		wantCall bool
	}{
		{name: "empty password", username: "bob", password: "   "},
		{name: "empty username", username: " ", password: "pw"},
		{name: "repo error", username: "carl", password: "pass123", repoErr: errors.New("db down"), wantCall: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAuthRepo{
				CreateFn: func(username, hash string) (int, error) { return 0, tt.repoErr },
			}
			_, err := newTestAuth(mock).SignUp(context.Background(), tt.username, tt.password)
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if got := len(mock.createCalls) == 1; got != tt.wantCall {
				t.Fatalf("Create called=%v, want %v", got, tt.wantCall)
			}
		})
	}
}

func TestAuthService_GenerateToken(t *testing.T) {
	hash, err := hashPassword("letmein")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}

	tests := []struct {
		name     string
		password string
		user     *models.User
		repoErr  error
		wantErr  error
	}{
		{name: "success", password: "letmein", user: &models.User{ID: 7, Username: "diana", PasswordHash: hash}},
		{name: "user not found", password: "pw", wantErr: ErrUserNotFound},
		{name: "wrong password", password: "wrong", user: &models.User{ID: 1, PasswordHash: hash}, wantErr: ErrInvalidPassword},
		{name: "repo error", password: "pw", repoErr: errQueryFailed, wantErr: errQueryFailed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAuthRepo{
				GetByUsernameFn: func(username string) (*models.User, error) { return tt.user, tt.repoErr },
			}
			svc := newTestAuth(mock)

			token, err := svc.GenerateToken(context.Background(), "diana", tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateToken returned error: %v", err)
			}
			uid, err := svc.ParseToken(token)
			if err != nil || uid != tt.user.ID {
				t.Fatalf("ParseToken uid=%d err=%v", uid, err)
			}
		})
	}
}

var errQueryFailed = errors.New("query failed")

func TestAuthService_TokenUsesConfiguredTTL(t *testing.T) {
	svc := newTestAuth(&mockAuthRepo{})
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	token, err := svc.issueToken(3)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if got := claims.ExpiresAt.Time.Sub(fixed); got != 30*time.Minute {
		t.Fatalf("ttl=%v", got)
	}
}

func TestAuthService_ParseToken_Invalid(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not-a-jwt"},
		{"other key", signClaims(t, jwt.SigningMethodHS256, []byte("different-key"), 5, future)},
		{"expired", signClaims(t, jwt.SigningMethodHS256, []byte(testSigningKey), 11, time.Now().Add(-2*time.Hour))},
		{"rsa signed", signClaims(t, jwt.SigningMethodRS256, privateKey, 12, future)},
		{"no user", signClaims(t, jwt.SigningMethodHS256, []byte(testSigningKey), 0, future)},
	}
	svc := newTestAuth(&mockAuthRepo{})
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ParseToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
