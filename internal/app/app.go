package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tonggak/milestones/internal/config"
	"github.com/tonggak/milestones/internal/db"
	"github.com/tonggak/milestones/internal/repository"
	"github.com/tonggak/milestones/internal/service"
	"github.com/tonggak/milestones/internal/storage"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	AuthService      *service.AuthService
	OTPService       *service.OTPService
	EmailService     *service.EmailService
	ImageService     *service.ImageService
	MilestoneService *service.MilestoneService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	adminRepository := repository.NewAdminRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	milestoneRepository := repository.NewMilestoneRepository(database)

	// Storage
	imageStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		adminRepository,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
	)
	otpService := service.NewOTPService(
		authService,
		tokenRepository,
		emailService,
		cfg.IsProduction(),
		cfg.OTPCodeExpiry,
	)
	imageService := service.NewImageService(authService, imageStorage, cfg.S3PresignExpiry, cfg.IsDevelopment())
	milestoneService := service.NewMilestoneService(milestoneRepository, authService, imageService)

	return &App{
		Cfg:              cfg,
		DB:               database,
		AuthService:      authService,
		OTPService:       otpService,
		EmailService:     emailService,
		ImageService:     imageService,
		MilestoneService: milestoneService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
