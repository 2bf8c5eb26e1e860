package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/diacare/diacare-api/internal/crypto"
	"github.com/diacare/diacare-api/internal/model"
	"github.com/diacare/diacare-api/internal/repository"
)

type testAuth struct {
	svc    *AuthService
	repo   *repository.UserRepository
	tokens *crypto.TokenIssuer
	close  func()
}

func newTestAuthService(t *testing.T) testAuth {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "auth.db")
	db, err := repository.NewDB(context.Background(), repository.SQLite, dsn, repository.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("NewDB error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewUserRepository(db, repository.SQLite)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema error: %v", err)
	}

	hasher, err := crypto.NewPasswordHasher(crypto.SchemeBcrypt, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher error: %v", err)
	}
	tokens := crypto.NewTokenIssuer("test-secret", time.Hour)

	return testAuth{
		svc:    NewAuthService(repo, hasher, tokens),
		repo:   repo,
		tokens: tokens,
		close:  func() { db.Close() },
	}
}

func strPtr(s string) *string { return &s }

func TestSignup_MissingCredentials(t *testing.T) {
	ta := newTestAuthService(t)

	for _, req := range []model.SignupRequest{
		{Email: "", Password: "pw123"},
		{Email: "a@x.com", Password: ""},
		{},
	} {
		if err := ta.svc.Signup(context.Background(), req); err != ErrCredentialsRequired {
			t.Errorf("Signup(%+v) error = %v, want ErrCredentialsRequired", req, err)
		}
	}
}

func TestSignup_StoresHashAndProfile(t *testing.T) {
	ta := newTestAuthService(t)
	ctx := context.Background()

	age := model.FlexInt(29)
	err := ta.svc.Signup(ctx, model.SignupRequest{
		Email:       "a@x.com",
		Password:    "pw123",
		FirstName:   strPtr("Ada"),
		Gender:      strPtr("female"),
		Age:         &age,
		Nationality: strPtr("GB"),
	})
	if err != nil {
		t.Fatalf("Signup error: %v", err)
	}

	u, err := ta.repo.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if u.PasswordHash == "pw123" || !strings.HasPrefix(u.PasswordHash, "$2a$") {
		t.Errorf("password stored as %q, want a bcrypt hash", u.PasswordHash)
	}
	if u.Age == nil || *u.Age != 29 || u.LastName != nil {
		t.Errorf("unexpected profile: %+v", u)
	}
}

func TestSignup_Duplicate(t *testing.T) {
	ta := newTestAuthService(t)
	ctx := context.Background()

	req := model.SignupRequest{Email: "a@x.com", Password: "pw123"}
	if err := ta.svc.Signup(ctx, req); err != nil {
		t.Fatalf("first Signup error: %v", err)
	}
	if err := ta.svc.Signup(ctx, req); err != ErrUserExists {
		t.Fatalf("second Signup error = %v, want ErrUserExists", err)
	}
}

func TestSignup_PasswordTooLong(t *testing.T) {
	ta := newTestAuthService(t)

	err := ta.svc.Signup(context.Background(), model.SignupRequest{Email: "a@x.com", Password: strings.Repeat("p", 100)})
	if err != ErrPasswordTooLong {
		t.Fatalf("Signup error = %v, want ErrPasswordTooLong", err)
	}
}

func TestSignup_StoreError(t *testing.T) {
	ta := newTestAuthService(t)
	ta.close()

	err := ta.svc.Signup(context.Background(), model.SignupRequest{Email: "a@x.com", Password: "pw123"})
	if err == nil || errors.Is(err, ErrUserExists) {
		t.Fatalf("Signup error = %v, want store error", err)
	}
}

func TestLogin(t *testing.T) {
	ta := newTestAuthService(t)
	ctx := context.Background()

	if err := ta.svc.Signup(ctx, model.SignupRequest{Email: "a@x.com", Password: "pw123", LastName: strPtr("Lovelace")}); err != nil {
		t.Fatalf("Signup error: %v", err)
	}

	resp, err := ta.svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw123"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if resp.Message != "Login successful" || resp.User.Email != "a@x.com" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.User.LastName == nil || *resp.User.LastName != "Lovelace" || resp.User.FirstName != nil {
		t.Errorf("unexpected profile: %+v", resp.User)
	}

	userID, err := ta.tokens.Validate(resp.Token)
	if err != nil {
		t.Fatalf("token did not validate: %v", err)
	}

	profile, err := ta.svc.Profile(ctx, userID)
	if err != nil || profile.Email != "a@x.com" {
		t.Fatalf("Profile = %+v, %v", profile, err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ta := newTestAuthService(t)
	ctx := context.Background()

	if err := ta.svc.Signup(ctx, model.SignupRequest{Email: "a@x.com", Password: "pw123"}); err != nil {
		t.Fatalf("Signup error: %v", err)
	}

	for _, req := range []model.LoginRequest{
		{Email: "a@x.com", Password: "wrong"},
		{Email: "nobody@x.com", Password: "pw123"},
		{Email: "A@X.COM", Password: "pw123"},
	} {
		if _, err := ta.svc.Login(ctx, req); err != ErrInvalidCredentials {
			t.Errorf("Login(%q) error = %v, want ErrInvalidCredentials", req.Email, err)
		}
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	ta := newTestAuthService(t)

	if _, err := ta.svc.Login(context.Background(), model.LoginRequest{Email: "a@x.com"}); err != ErrCredentialsRequired {
		t.Errorf("Login error = %v, want ErrCredentialsRequired", err)
	}
}

func TestProfile_NotFound(t *testing.T) {
	ta := newTestAuthService(t)

	if _, err := ta.svc.Profile(context.Background(), 999); err != ErrUserNotFound {
		t.Errorf("Profile error = %v, want ErrUserNotFound", err)
	}
}
