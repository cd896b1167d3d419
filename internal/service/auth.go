package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tonggak/milestones/internal/model"
	"github.com/tonggak/milestones/internal/repository"
	"github.com/tonggak/milestones/internal/validation"
)

var (
	ErrUnauthorized   = errors.New("not allowed, admin access required")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrSignupDisabled = errors.New("sign-up is closed, contact an administrator if you need access")
)

const sessionCookieName = "auth_token"

type AuthService struct {
	userRepository  repository.UserRepository
	adminRepository repository.AdminRepository
	jwtSecret       string
	isProduction    bool
	jwtExpiry       time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	adminRepository repository.AdminRepository,
	jwtSecret string,
	isProduction bool,
	jwtExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:  userRepository,
		adminRepository: adminRepository,
		jwtSecret:       jwtSecret,
		isProduction:    isProduction,
		jwtExpiry:       jwtExpiry,
	}
}

// UserByEmail looks up an existing account. Sign-up is closed to
// self-service: an unknown email maps to ErrSignupDisabled, never to an
// account creation.
func (s *AuthService) UserByEmail(email string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrSignupDisabled
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *AuthService) UserByID(id string) (*model.User, error) {
	return s.userRepository.ByID(id)
}

// AuthenticateOAuth signs in an existing user by provider-verified email.
// Unknown emails are rejected (closed sign-up), matching the OTP flow.
func (s *AuthService) AuthenticateOAuth(email, provider string) (*model.User, error) {
	user, err := s.UserByEmail(email)
	if err != nil {
		return nil, err
	}

	slog.Info("user authenticated via oauth", "user_id", user.ID, "email", user.Email, "provider", provider)
	return user, nil
}

// IsAdmin resolves admin membership for the user with a live lookup.
// Deliberately never cached: revocation takes effect on the next call.
func (s *AuthService) IsAdmin(userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.adminRepository.IsAdmin(userID)
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) SetSessionCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) SessionCookieName() string {
	return sessionCookieName
}

func (s *AuthService) SessionExpiry() time.Duration {
	return s.jwtExpiry
}
