package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/smita-2184/llm-eval/internal/config"
	"github.com/smita-2184/llm-eval/internal/model"
)

type stubUserRepo struct {
	users       map[string]*model.User
	existsCalls int
	createErr   error
	lastLoginAt time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[string]*model.User{}}
}

func (r *stubUserRepo) Create(ctx context.Context, user *model.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.users[user.Username] = user
	return nil
}

func (r *stubUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.users[username], nil
}

func (r *stubUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	r.existsCalls++
	_, ok := r.users[username]
	return ok, nil
}

func (r *stubUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.lastLoginAt = at
	return nil
}

func newTestAuthService(repo *stubUserRepo) *AuthService {
	return NewAuthService(repo, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}, testLogger())
}

func registrationForm() *model.RegistrationForm {
	return &model.RegistrationForm{
		Username: "  alice ",
		Password: "hunter22",
		Gender:   "female",
		Course:   "Chemistry",
		Semester: "Semester 3",
		Major:    "Organic Chemistry",
	}
}

func TestRegisterAndSignIn(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	user, err := svc.Register(context.Background(), registrationForm())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("username not trimmed: %q", user.Username)
	}
	if user.ID == "" || user.Role != "user" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Semester != 3 {
		t.Fatalf("semester = %d, want 3", user.Semester)
	}
	if !user.CreatedAt.Equal(fixed) || !user.LastLogin.Equal(fixed) {
		t.Fatalf("timestamps not set from clock: %+v", user)
	}
	if user.PasswordHash == "hunter22" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	resp, err := svc.SignIn(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("SignIn returned empty token")
	}
	if resp.User.ID != user.ID {
		t.Fatalf("SignIn user = %+v, want id %s", resp.User, user.ID)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), registrationForm()); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), registrationForm()); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate register error = %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterRequiresUsernameAndPassword(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	form := registrationForm()
	form.Username = "   "
	if _, err := svc.Register(context.Background(), form); err == nil {
		t.Fatal("blank username accepted")
	}

	form = registrationForm()
	form.Password = ""
	if _, err := svc.Register(context.Background(), form); err == nil {
		t.Fatal("empty password accepted")
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)
	if _, err := svc.Register(context.Background(), registrationForm()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Unknown user and wrong password collapse into the same error.
	if _, err := svc.SignIn(context.Background(), "bob", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.SignIn(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
}

func TestCheckUsername(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)
	if _, err := svc.Register(context.Background(), registrationForm()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	available, err := svc.CheckUsername(context.Background(), "alice")
	if err != nil || available {
		t.Fatalf("taken username reported available (available=%v, err=%v)", available, err)
	}
	available, err = svc.CheckUsername(context.Background(), "bob")
	if err != nil || !available {
		t.Fatalf("free username reported taken (available=%v, err=%v)", available, err)
	}

	calls := repo.existsCalls
	available, err = svc.CheckUsername(context.Background(), "   ")
	if err != nil || available {
		t.Fatalf("blank username must not be available (available=%v, err=%v)", available, err)
	}
	if repo.existsCalls != calls {
		t.Fatal("blank username must be answered without a store read")
	}
}

func TestParseSemester(t *testing.T) {
	cases := []struct {
		label string
		want  int
	}{
		{"Semester 3", 3},
		{"Semester 1", 1},
		{"semester 8", 8},
		{"7", 7},
		{"Semester 12", 8},
		{"Semester 0", 1},
		{"Semester -2", 1},
		{"", 1},
		{"not a semester", 1},
	}
	for _, tc := range cases {
		if got := parseSemester(tc.label); got != tc.want {
			t.Errorf("parseSemester(%q) = %d, want %d", tc.label, got, tc.want)
		}
	}
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)
	if _, err := svc.Register(context.Background(), registrationForm()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	resp, err := svc.SignIn(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	claims, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Username != "alice" || claims.UserID != resp.User.ID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejections(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)
	if _, err := svc.Register(context.Background(), registrationForm()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	resp, err := svc.SignIn(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if _, err := svc.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token error = %v, want ErrInvalidToken", err)
	}

	other := NewAuthService(repo, config.AuthConfig{JWTSecret: "different-secret", TokenTTL: time.Hour}, testLogger())
	if _, err := other.ValidateToken(resp.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong-secret token error = %v, want ErrInvalidToken", err)
	}

	// Tokens past their expiry no longer validate.
	past := NewAuthService(repo, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}, testLogger())
	past.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	stale, err := past.SignIn(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if _, err := svc.ValidateToken(stale.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token error = %v, want ErrInvalidToken", err)
	}
}
