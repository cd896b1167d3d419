package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tonggak/milestones/internal/config"
	"github.com/tonggak/milestones/internal/ctxkeys"
	"github.com/tonggak/milestones/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type authHandler struct {
	authService       *service.AuthService
	otpService        *service.OTPService
	googleOAuthConfig *oauth2.Config
}

func NewAuthHandler(authService *service.AuthService, otpService *service.OTPService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		otpService:  otpService,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// Me returns the current identity with a live admin check
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	admin, err := h.authService.IsAdmin(user.ID)
	if err != nil {
		slog.Error("admin check failed", "error", err, "user_id", user.ID)
		respondError(w, "something went wrong, please try again", http.StatusInternalServerError)
		return
	}
	user.IsAdmin = admin

	respondJSON(w, http.StatusOK, user)
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearSessionCookie(w)
	h.otpService.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GoogleAuth redirects the user to the Google OAuth consent screen
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	// Generate secure state token for CSRF protection
	state := generateOAuthState()

	cfg := ctxkeys.Config(r.Context())
	isProduction := cfg != nil && cfg.IsProduction()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction, // Secure flag based on APP_ENV (safer than r.TLS behind load balancers)
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback exchanges the authorization code for a session and
// redirects to the intended next path. Exchange failures are not surfaced
// as errors; the user lands back on the login entry point.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		h.redirectTo(w, r, "/login")
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		h.redirectTo(w, r, "/login")
		return
	}

	token, err := h.googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		h.redirectTo(w, r, "/login")
		return
	}

	client := h.googleOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		h.redirectTo(w, r, "/login")
		return
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var userInfo struct {
		Email string `json:"email"`
	}
	err = json.NewDecoder(resp.Body).Decode(&userInfo)
	if err != nil {
		slog.Error("failed to decode google user info", "error", err)
		h.redirectTo(w, r, "/login")
		return
	}

	user, err := h.authService.AuthenticateOAuth(userInfo.Email, "google")
	if err != nil {
		// Closed sign-up: unknown accounts land back on login
		slog.Warn("oauth authentication rejected", "error", err, "email", userInfo.Email)
		h.redirectTo(w, r, "/login")
		return
	}

	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		h.redirectTo(w, r, "/login")
		return
	}

	h.authService.SetSessionCookie(w, jwtToken, time.Now().Add(h.authService.SessionExpiry()))

	slog.Info("user logged in with google oauth", "user_id", user.ID, "email", user.Email)

	next := r.URL.Query().Get("next")
	if next == "" || next[0] != '/' {
		next = "/"
	}
	h.redirectTo(w, r, next)
}

// redirectTo builds an absolute redirect. Behind a reverse proxy the
// forwarded host wins over the request's own origin.
func (h *authHandler) redirectTo(w http.ResponseWriter, r *http.Request, path string) {
	forwardedHost := r.Header.Get("X-Forwarded-Host")
	if forwardedHost != "" {
		http.Redirect(w, r, "https://"+forwardedHost+path, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
