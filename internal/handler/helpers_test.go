package handler_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/tonggak/milestones/internal/ctxkeys"
	"github.com/tonggak/milestones/internal/model"
	"github.com/tonggak/milestones/internal/repository"
	"github.com/tonggak/milestones/internal/service"
	"github.com/tonggak/milestones/internal/testutil"
)

type handlerStack struct {
	DB         *sqlx.DB
	Storage    *testutil.FakeStorage
	Auth       *service.AuthService
	OTP        *service.OTPService
	Images     *service.ImageService
	Milestones *service.MilestoneService
}

func newHandlerStack(t *testing.T) *handlerStack {
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

	return &handlerStack{
		DB:         database,
		Storage:    store,
		Auth:       authService,
		OTP:        otpService,
		Images:     imageService,
		Milestones: milestoneService,
	}
}

// multipartBody builds a multipart form from text fields plus an optional
// image file part carrying the given content type.
func multipartBody(t *testing.T, fields map[string]string, imageData []byte, imageType string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}

	if imageData != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="upload.bin"`)
		header.Set("Content-Type", imageType)

		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(imageData)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

// authedRequest builds a request with the user already resolved into the
// context, as the auth middleware would have done.
func authedRequest(method, target string, body io.Reader, contentType string, user *model.User) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req.WithContext(ctxkeys.WithUser(req.Context(), user))
}
