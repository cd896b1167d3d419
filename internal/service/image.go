package service

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tonggak/milestones/internal/model"
	"github.com/tonggak/milestones/internal/storage"
	"github.com/tonggak/milestones/internal/validation"
)

var (
	ErrInvalidImageKey   = errors.New("invalid image key")
	ErrUploadFailed      = errors.New("failed to upload image, please try again")
	ErrImageAccessFailed = errors.New("failed to access image")
	ErrImageDeleteFailed = errors.New("failed to delete image")
)

const keyTokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ImageService guards the image pipeline: admin-only writes, two
// independent content checks (declared type and magic bytes), and
// time-limited signed URLs for reads.
type ImageService struct {
	authService   *AuthService
	storage       storage.Storage
	presignExpiry time.Duration
	isDev         bool
}

func NewImageService(authService *AuthService, store storage.Storage, presignExpiry time.Duration, isDev bool) *ImageService {
	return &ImageService{
		authService:   authService,
		storage:       store,
		presignExpiry: presignExpiry,
		isDev:         isDev,
	}
}

// Upload validates and stores an image, returning the object key. The
// admin check runs before any validation. The stored extension comes from
// the verified MIME type, never from a client-supplied filename.
func (s *ImageService) Upload(userID string, data []byte, declaredType string) (string, error) {
	admin, err := s.authService.IsAdmin(userID)
	if err != nil {
		return "", fmt.Errorf("failed to check admin status: %w", err)
	}
	if !admin {
		return "", ErrUnauthorized
	}

	err = validation.ValidateImage(data, declaredType)
	if err != nil {
		return "", err
	}

	ext, ok := validation.ImageExtension(declaredType)
	if !ok {
		return "", validation.ErrUnsupportedImageType
	}

	token, err := randomKeyToken(6)
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	key := fmt.Sprintf("%s%d-%s.%s", model.ImageKeyPrefix, time.Now().UnixMilli(), token, ext)

	err = s.storage.Save(key, bytes.NewReader(data), declaredType)
	if err != nil {
		slog.Error("image upload failed", "error", err, "key", key, "user_id", userID)
		if s.isDev {
			return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		return "", ErrUploadFailed
	}

	slog.Info("image uploaded", "key", key, "size", len(data), "user_id", userID)
	return key, nil
}

// ResolveDisplayURL turns a stored key into a URL the browser can load.
// Legacy absolute URLs (pre-migration records) pass through unsigned;
// managed keys get a fresh signed URL on every call, never cached.
func (s *ImageService) ResolveDisplayURL(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidImageKey
	}

	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key, nil
	}

	url, err := s.storage.PresignedURL(key, s.presignExpiry)
	if err != nil {
		slog.Error("presign failed", "error", err, "key", key)
		if s.isDev {
			return "", fmt.Errorf("%w: %v", ErrImageAccessFailed, err)
		}
		return "", ErrImageAccessFailed
	}

	return url, nil
}

// Delete removes a managed object. Empty keys, legacy absolute URLs, and
// keys outside the managed prefix are a no-op success: deletion is scoped
// strictly to objects this application created. Store failures are logged
// and reported but never retried; callers treat them as advisory.
func (s *ImageService) Delete(userID, key string) error {
	admin, err := s.authService.IsAdmin(userID)
	if err != nil {
		return fmt.Errorf("failed to check admin status: %w", err)
	}
	if !admin {
		return ErrUnauthorized
	}

	if key == "" {
		return nil
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return nil
	}
	if !strings.HasPrefix(key, model.ImageKeyPrefix) {
		return nil
	}

	err = s.storage.Delete(key)
	if err != nil {
		slog.Error("image delete failed", "error", err, "key", key, "user_id", userID)
		if s.isDev {
			return fmt.Errorf("%w: %v", ErrImageDeleteFailed, err)
		}
		return ErrImageDeleteFailed
	}

	slog.Info("image deleted", "key", key, "user_id", userID)
	return nil
}

// randomKeyToken returns n random base36 characters for key uniqueness.
func randomKeyToken(n int) (string, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	for i := range b {
		b[i] = keyTokenAlphabet[int(b[i])%len(keyTokenAlphabet)]
	}
	return string(b), nil
}
