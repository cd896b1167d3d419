package service_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tonggak/milestones/internal/repository"
	"github.com/tonggak/milestones/internal/service"
	"github.com/tonggak/milestones/internal/testutil"
)

// testStack wires the full service graph against a throwaway database and
// an in-memory object store, mirroring how app.New assembles production.
type testStack struct {
	DB         *sqlx.DB
	Storage    *testutil.FakeStorage
	Auth       *service.AuthService
	OTP        *service.OTPService
	Images     *service.ImageService
	Milestones *service.MilestoneService
	Tokens     repository.TokenRepository
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	database := testutil.NewTestDB(t)
	store := testutil.NewFakeStorage()

	userRepo := repository.NewUserRepository(database)
	adminRepo := repository.NewAdminRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	milestoneRepo := repository.NewMilestoneRepository(database)

	emailService := service.NewEmailService("", "noreply@example.com", "Milestones", true)
	authService := service.NewAuthService(userRepo, adminRepo, "test-secret", false, time.Hour)
	otpService := service.NewOTPService(authService, tokenRepo, emailService, false, 10*time.Minute)
	imageService := service.NewImageService(authService, store, time.Hour, false)
	milestoneService := service.NewMilestoneService(milestoneRepo, authService, imageService)

	return &testStack{
		DB:         database,
		Storage:    store,
		Auth:       authService,
		OTP:        otpService,
		Images:     imageService,
		Milestones: milestoneService,
		Tokens:     tokenRepo,
	}
}

func strPtr(s string) *string {
	return &s
}
