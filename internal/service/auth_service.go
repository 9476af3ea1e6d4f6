package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/smita-2184/llm-eval/internal/config"
	"github.com/smita-2184/llm-eval/internal/model"
	"github.com/smita-2184/llm-eval/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUsernameTaken      = errors.New("Username already exists")
)

// AuthService handles registration, sign-in and session tokens.
type AuthService struct {
	repo      repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
	logger    *logrus.Logger
}

func NewAuthService(repo repository.UserRepository, cfg config.AuthConfig, logger *logrus.Logger) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// parseSemester extracts the number from a "Semester N" form label. Anything
// unparseable falls back to 1; parsed values are clamped to 1..8.
func parseSemester(label string) int {
	fields := strings.Fields(strings.TrimSpace(label))
	semester := 1
	if len(fields) > 0 {
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
			semester = n
		}
	}
	if semester < 1 {
		semester = 1
	}
	if semester > 8 {
		semester = 8
	}
	return semester
}

// CheckUsername reports whether the username is still free. Empty input is
// never available and is answered without a store read.
func (s *AuthService) CheckUsername(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}
	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Register creates a new user. The password is stored as a bcrypt hash only.
func (s *AuthService) Register(ctx context.Context, form *model.RegistrationForm) (*model.User, error) {
	username := strings.TrimSpace(form.Username)
	if username == "" || form.Password == "" {
		return nil, errors.New("username and password are required")
	}

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         "user",
		Course:       strings.TrimSpace(form.Course),
		Major:        strings.TrimSpace(form.Major),
		Semester:     parseSemester(form.Semester),
		Gender:       strings.TrimSpace(form.Gender),
		CreatedAt:    now,
		LastLogin:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("username", username).Info("User registered")
	return user, nil
}

// SignIn verifies the credentials and issues a session token.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WithError(err).WithField("username", user.Username).Warn("Failed to update last login")
	}
	user.LastLogin = now

	token, err := s.issueToken(user, now)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: user}, nil
}

func (s *AuthService) issueToken(user *model.User, now time.Time) (string, error) {
	claims := &model.SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*model.SessionClaims, error) {
	claims := &model.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
