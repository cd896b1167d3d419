package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tonggak/milestones/internal/service"
)

type otpHandler struct {
	otpService  *service.OTPService
	authService *service.AuthService
}

func NewOTPHandler(otpService *service.OTPService, authService *service.AuthService) *otpHandler {
	return &otpHandler{
		otpService:  otpService,
		authService: authService,
	}
}

// Start sends a one-time code to the given email and opens a pending
// verification session bound to a cookie.
func (h *otpHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err = h.otpService.StartSession(w, req.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "code sent"})
}

// Session reports the email of the pending verification, if one exists.
// The client uses this to rehydrate the verify form after a reload.
func (h *otpHandler) Session(w http.ResponseWriter, r *http.Request) {
	email := h.otpService.SessionEmail(r)
	if email == "" {
		respondJSON(w, http.StatusOK, map[string]any{"email": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"email": email})
}

func (h *otpHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.otpService.Verify(w, r, req.Code)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		respondError(w, "something went wrong, please try again", http.StatusInternalServerError)
		return
	}
	h.authService.SetSessionCookie(w, token, time.Now().Add(h.authService.SessionExpiry()))

	slog.Info("user logged in with otp", "user_id", user.ID, "email", user.Email)

	respondJSON(w, http.StatusOK, user)
}
