package routes

import (
	"net/http"

	"github.com/tonggak/milestones/internal/app"
	"github.com/tonggak/milestones/internal/handler"
	"github.com/tonggak/milestones/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.OTPService, app.Cfg)
	otp := handler.NewOTPHandler(app.OTPService, app.AuthService)
	milestone := handler.NewMilestoneHandler(app.MilestoneService, app.ImageService)

	mux := http.NewServeMux()

	// Auth flow (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	// OAuth
	mux.HandleFunc("GET /auth/google", rateLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /auth/google/callback", rateLimiter(auth.GoogleCallback))

	// Email one-time codes
	mux.HandleFunc("POST /auth/otp", rateLimiter(otp.Start))
	mux.HandleFunc("GET /auth/otp/session", otp.Session)
	mux.HandleFunc("POST /auth/otp/verify", rateLimiter(otp.Verify))

	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// API (authenticated)
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(auth.Me))

	mux.HandleFunc("GET /api/milestones", middleware.RequireAuth(milestone.List))
	mux.HandleFunc("GET /api/milestones/{id}", middleware.RequireAuth(milestone.GetByID))
	mux.HandleFunc("POST /api/milestones", middleware.RequireAuth(milestone.Create))
	mux.HandleFunc("PATCH /api/milestones/{id}", middleware.RequireAuth(milestone.Update))
	mux.HandleFunc("DELETE /api/milestones/{id}", middleware.RequireAuth(milestone.Delete))

	mux.HandleFunc("POST /api/images", middleware.RequireAuth(milestone.UploadImage))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService),
	)
}
