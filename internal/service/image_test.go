package service_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonggak/milestones/internal/service"
	"github.com/tonggak/milestones/internal/testutil"
	"github.com/tonggak/milestones/internal/validation"
)

func TestImageUpload_AdminCheckedBeforeValidation(t *testing.T) {
	stack := newTestStack(t)
	user := testutil.NewTestUser(t, stack.DB, "pat@example.com")

	// Garbage payload: a validation error here would mean the pipeline ran
	// before the permission check
	_, err := stack.Images.Upload(user.ID, []byte("not an image"), "application/pdf")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Empty(t, stack.Storage.Objects)
}

func TestImageUpload_Success(t *testing.T) {
	stack := newTestStack(t)
	admin := testutil.NewTestAdmin(t, stack.DB, "admin@example.com")

	key, err := stack.Images.Upload(admin.ID, testutil.SampleJPEG(), "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "milestones/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, testutil.SampleJPEG(), stack.Storage.Objects[key])
}

func TestImageUpload_ExtensionFromVerifiedType(t *testing.T) {
	stack := newTestStack(t)
	admin := testutil.NewTestAdmin(t, stack.DB, "admin@example.com")

	key, err := stack.Images.Upload(admin.ID, testutil.SampleWebP(), "image/webp")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".webp"))
}

func TestImageUpload_ContentMismatch(t *testing.T) {
	stack := newTestStack(t)
	admin := testutil.NewTestAdmin(t, stack.DB, "admin@example.com")

	_, err := stack.Images.Upload(admin.ID, testutil.SampleJPEG(), "image/png")
	assert.ErrorIs(t, err, validation.ErrImageContentMismatch)
	assert.Empty(t, stack.Storage.Objects)
}

func TestImageUpload_StoreFailure(t *testing.T) {
	stack := newTestStack(t)
	admin := testutil.NewTestAdmin(t, stack.DB, "admin@example.com")
	stack.Storage.SaveErr = errors.New("bucket on fire")

	_, err := stack.Images.Upload(admin.ID, testutil.SampleJPEG(), "image/jpeg")
	require.ErrorIs(t, err, service.ErrUploadFailed)
	// Backend detail stays out of the message outside development
	assert.NotContains(t, err.Error(), "bucket on fire")
}

func TestResolveDisplayURL(t *testing.T) {
	stack := newTestStack(t)

	// Managed keys get signed
	url, err := stack.Images.ResolveDisplayURL("milestones/123-abc.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://store.test/milestones/123-abc.jpg"))

	// Legacy absolute URLs pass through untouched, never re-signed,
	// and repeat calls return the identical string
	legacy := "https://legacy.example.com/photo.png"
	url, err = stack.Images.ResolveDisplayURL(legacy)
	require.NoError(t, err)
	assert.Equal(t, legacy, url)

	again, err := stack.Images.ResolveDisplayURL(legacy)
	require.NoError(t, err)
	assert.Equal(t, url, again)

	_, err = stack.Images.ResolveDisplayURL("")
	assert.ErrorIs(t, err, service.ErrInvalidImageKey)
}

func TestResolveDisplayURL_FreshPerCall(t *testing.T) {
	stack := newTestStack(t)

	first, err := stack.Images.ResolveDisplayURL("milestones/123-abc.jpg")
	require.NoError(t, err)
	second, err := stack.Images.ResolveDisplayURL("milestones/123-abc.jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestImageDelete_ScopedToManagedPrefix(t *testing.T) {
	stack := newTestStack(t)
	admin := testutil.NewTestAdmin(t, stack.DB, "admin@example.com")

	// Any store call for these would fail loudly; a no-op succeeds
	stack.Storage.DeleteErr = errors.New("delete should not be called")

	assert.NoError(t, stack.Images.Delete(admin.ID, ""))
	assert.NoError(t, stack.Images.Delete(admin.ID, "https://legacy.example.com/photo.png"))
	assert.NoError(t, stack.Images.Delete(admin.ID, "avatars/42.png"))
}

func TestImageDelete_RemovesObject(t *testing.T) {
	stack := newTestStack(t)
	admin := testutil.NewTestAdmin(t, stack.DB, "admin@example.com")

	key, err := stack.Images.Upload(admin.ID, testutil.SamplePNG(), "image/png")
	require.NoError(t, err)

	require.NoError(t, stack.Images.Delete(admin.ID, key))
	assert.Empty(t, stack.Storage.Objects)

	// Deleting an already absent object is not an error
	assert.NoError(t, stack.Images.Delete(admin.ID, key))
}

func TestImageDelete_RequiresAdmin(t *testing.T) {
	stack := newTestStack(t)
	user := testutil.NewTestUser(t, stack.DB, "pat@example.com")

	err := stack.Images.Delete(user.ID, "milestones/123-abc.jpg")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}
