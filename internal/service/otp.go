package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/tonggak/milestones/internal/model"
	"github.com/tonggak/milestones/internal/repository"
	"github.com/tonggak/milestones/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrSessionExpired    = errors.New("session expired, request a new verification code")
	ErrInvalidCodeFormat = errors.New("verification code must be 6 digits")
	ErrCodeExpired       = errors.New("verification code has expired, request a new one")
	ErrCodeIncorrect     = errors.New("verification code is incorrect, check and try again")
)

const otpSessionCookieName = "otp_session"

// OTPService owns the email one-time-code handshake: a short-lived
// HTTP-only cookie binds the pending verification to the browser that
// requested it, and the code itself lives bcrypt-hashed in the tokens table.
type OTPService struct {
	authService  *AuthService
	tokenRepo    repository.TokenRepository
	emailService *EmailService
	isProduction bool
	codeExpiry   time.Duration
}

func NewOTPService(
	authService *AuthService,
	tokenRepo repository.TokenRepository,
	emailService *EmailService,
	isProduction bool,
	codeExpiry time.Duration,
) *OTPService {
	return &OTPService{
		authService:  authService,
		tokenRepo:    tokenRepo,
		emailService: emailService,
		isProduction: isProduction,
		codeExpiry:   codeExpiry,
	}
}

// StartSession validates the address, issues a fresh code, and binds the
// pending verification to this browser via the otp_session cookie. A repeat
// request supersedes the previous code and restarts the timer.
func (s *OTPService) StartSession(w http.ResponseWriter, email string) error {
	user, err := s.authService.UserByEmail(email)
	if err != nil {
		// ErrSignupDisabled and ErrInvalidEmail pass through verbatim;
		// the raw lookup error never reaches the client.
		if errors.Is(err, ErrSignupDisabled) || errors.Is(err, ErrInvalidEmail) {
			return err
		}
		slog.Error("otp session start failed", "error", err, "email", email)
		return fmt.Errorf("failed to send verification code")
	}

	// Supersede any earlier code for this user
	err = s.tokenRepo.DeleteByUserAndType(user.ID, model.TokenTypeOTP)
	if err != nil {
		slog.Warn("failed to delete old otp tokens", "error", err, "user_id", user.ID)
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeOTP,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(s.codeExpiry),
	}
	err = s.tokenRepo.Create(token)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	err = s.emailService.SendOTPEmail(user.Email, code)
	if err != nil {
		slog.Error("failed to send otp email", "error", err, "email", user.Email)
		return fmt.Errorf("failed to send verification code")
	}

	s.setSessionCookie(w, user.Email)

	slog.Info("otp code sent", "email", user.Email)
	return nil
}

// SessionEmail returns the email bound to the pending verification, or ""
// when no session is active (never started, expired, or already consumed).
func (s *OTPService) SessionEmail(r *http.Request) string {
	cookie, err := r.Cookie(otpSessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Verify checks the submitted code against the pending session. The cookie
// is cleared only on success; a failed attempt leaves the session intact so
// the user can retry or request a new code.
func (s *OTPService) Verify(w http.ResponseWriter, r *http.Request, code string) (*model.User, error) {
	email := s.SessionEmail(r)
	if email == "" {
		return nil, ErrSessionExpired
	}

	// Format check happens before any lookup
	err := validation.ValidateOTPCode(code)
	if err != nil {
		return nil, ErrInvalidCodeFormat
	}

	user, err := s.authService.UserByEmail(email)
	if err != nil {
		// The account vanished mid-handshake; treat as an expired session.
		slog.Warn("otp verify for unknown user", "error", err, "email", email)
		return nil, ErrSessionExpired
	}

	token, err := s.tokenRepo.ActiveByUserAndType(user.ID, model.TokenTypeOTP)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrCodeExpired
		}
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(token.CodeHash), []byte(code))
	if err != nil {
		// Token stays active so the user may retry the same code
		return nil, ErrCodeIncorrect
	}

	err = s.tokenRepo.Consume(token.ID)
	if err != nil {
		// Lost the race against a concurrent verify or the expiry window
		return nil, ErrCodeExpired
	}

	s.clearSessionCookie(w)

	slog.Info("otp verified", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// ClearSession drops the pending verification cookie, e.g. on logout.
func (s *OTPService) ClearSession(w http.ResponseWriter) {
	s.clearSessionCookie(w)
}

func (s *OTPService) setSessionCookie(w http.ResponseWriter, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     otpSessionCookieName,
		Value:    email,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.codeExpiry.Seconds()),
	})
}

func (s *OTPService) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     otpSessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// generateOTPCode returns 6 cryptographically random decimal digits.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
