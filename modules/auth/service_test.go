package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/task-tracker/domain/apperror"
	domain "github.com/example/task-tracker/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func setupTestService(t *testing.T) *AuthService {
	t.Helper()
	tokens := newTestTokenService(t, "service-secret", time.Hour)
	return NewAuthService(
		NewUserRepository(setupTestDB(t)),
		NewPasswordHasherWithCost(bcrypt.MinCost),
		tokens,
	)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name     string
		req      RegisterRequest
		wantKind apperror.Kind
		wantMsg  string
	}{
		{
			name: "valid registration",
			req:  RegisterRequest{Username: "alice", Password: "secret1", ConfirmPassword: "secret1"},
		},
		{
			name: "confirm omitted",
			req:  RegisterRequest{Username: "bob", Password: "secret1"},
		},
		{
			name:     "missing password",
			req:      RegisterRequest{Username: "carol"},
			wantKind: apperror.KindValidation,
			wantMsg:  "Username and password are required",
		},
		{
			name:     "short username",
			req:      RegisterRequest{Username: "ab", Password: "secret1"},
			wantKind: apperror.KindValidation,
			wantMsg:  "Username must be at least 3 characters long",
		},
		{
			name:     "long username",
			req:      RegisterRequest{Username: strings.Repeat("u", 51), Password: "secret1"},
			wantKind: apperror.KindValidation,
			wantMsg:  "Username must be at most 50 characters long",
		},
		{
			name:     "short password",
			req:      RegisterRequest{Username: "dave", Password: "abc"},
			wantKind: apperror.KindValidation,
			wantMsg:  "Password must be at least 4 characters long",
		},
		{
			name:     "long password",
			req:      RegisterRequest{Username: "erin", Password: strings.Repeat("p", 73)},
			wantKind: apperror.KindValidation,
			wantMsg:  "Password must be at most 72 characters long",
		},
		{
			name:     "confirm mismatch",
			req:      RegisterRequest{Username: "frank", Password: "secret1", ConfirmPassword: "secret2"},
			wantKind: apperror.KindValidation,
			wantMsg:  "Passwords do not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := setupTestService(t)

			user, err := svc.Register(context.Background(), tt.req)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("Register() error = %v", err)
				}
				if user.ID == "" {
					t.Error("Register() returned user without ID")
				}
				if user.PasswordHash == tt.req.Password {
					t.Error("Register() stored the plaintext password")
				}
				return
			}

			var appErr *apperror.Error
			if !errors.As(err, &appErr) {
				t.Fatalf("Register() error = %v, want *apperror.Error", err)
			}
			if appErr.Kind != tt.wantKind {
				t.Errorf("Register() kind = %q, want %q", appErr.Kind, tt.wantKind)
			}
			if appErr.Message != tt.wantMsg {
				t.Errorf("Register() message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "another"})
	if got := apperror.KindOf(err); got != apperror.KindConflict {
		t.Errorf("Register() duplicate kind = %q, want %q", got, apperror.KindConflict)
	}
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	now := time.Now()

	first := &domain.User{ID: "u1", Username: "alice", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(context.Background(), first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := &domain.User{ID: "u2", Username: "alice", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(context.Background(), second); !errors.Is(err, ErrUserExists) {
		t.Errorf("Create() duplicate error = %v, want %v", err, ErrUserExists)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, user, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Login() user ID = %q, want %q", user.ID, registered.ID)
	}

	identity, err := svc.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if identity.UserID != registered.ID || identity.Username != "alice" {
		t.Errorf("VerifyToken() = %+v, want user %q alice", identity, registered.ID)
	}
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, _, errUnknown := svc.Login(ctx, LoginRequest{Username: "nobody", Password: "secret1"})
	_, _, errWrong := svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong-password"})

	for name, err := range map[string]error{"unknown user": errUnknown, "wrong password": errWrong} {
		var appErr *apperror.Error
		if !errors.As(err, &appErr) {
			t.Fatalf("%s: Login() error = %v, want *apperror.Error", name, err)
		}
		if appErr.Kind != apperror.KindAuthentication {
			t.Errorf("%s: kind = %q, want %q", name, appErr.Kind, apperror.KindAuthentication)
		}
		if appErr.Message != "Invalid username or password" {
			t.Errorf("%s: message = %q", name, appErr.Message)
		}
	}
}

func TestAuthService_GetUser(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.GetUser(ctx, registered.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("GetUser() username = %q, want alice", user.Username)
	}

	_, err = svc.GetUser(ctx, "missing")
	if got := apperror.KindOf(err); got != apperror.KindNotFound {
		t.Errorf("GetUser() missing kind = %q, want %q", got, apperror.KindNotFound)
	}
}

func TestToFault(t *testing.T) {
	conflict := apperror.Conflict("Username already exists")
	if got := toFault("register", conflict); got != conflict {
		t.Errorf("toFault() = %v, want %v", got, conflict)
	}

	got := toFault("register", errors.New("disk on fire"))
	if got.Kind != apperror.KindInternal {
		t.Errorf("toFault() kind = %q, want %q", got.Kind, apperror.KindInternal)
	}
	if strings.Contains(got.Message, "disk") {
		t.Errorf("toFault() leaked cause: %q", got.Message)
	}
}

func TestUserRepository_HonorsCancelledContext(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.FindByUsername(ctx, "alice"); !errors.Is(err, context.Canceled) {
		t.Errorf("FindByUsername() error = %v, want %v", err, context.Canceled)
	}
	if _, err := repo.UsernameExists(ctx, "alice"); !errors.Is(err, context.Canceled) {
		t.Errorf("UsernameExists() error = %v, want %v", err, context.Canceled)
	}
}

func TestAuthService_LoginPassesContextToStore(t *testing.T) {
	svc := setupTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "secret1"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Login() error = %v, want %v", err, context.Canceled)
	}
	if got := apperror.KindOf(err); got != apperror.KindInternal {
		t.Errorf("Login() kind = %q, want %q", got, apperror.KindInternal)
	}
}
