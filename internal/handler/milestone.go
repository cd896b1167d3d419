package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tonggak/milestones/internal/ctxkeys"
	"github.com/tonggak/milestones/internal/model"
	"github.com/tonggak/milestones/internal/service"
	"github.com/tonggak/milestones/internal/validation"
)

// multipart forms are held in memory up to the image size cap plus some
// slack for the text fields
const maxMultipartMemory = validation.MaxImageSize + 64*1024

type milestoneHandler struct {
	milestoneService *service.MilestoneService
	imageService     *service.ImageService
}

func NewMilestoneHandler(milestoneService *service.MilestoneService, imageService *service.ImageService) *milestoneHandler {
	return &milestoneHandler{
		milestoneService: milestoneService,
		imageService:     imageService,
	}
}

func (h *milestoneHandler) List(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.milestoneService.List()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, milestones)
}

func (h *milestoneHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	milestone, err := h.milestoneService.ByID(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, milestone)
}

// Create accepts a multipart form with title, event_date, an optional
// description and an optional image file. The image is stored before the
// record is written; if the write fails the fresh upload is cleaned up.
func (h *milestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := r.ParseMultipartForm(maxMultipartMemory)
	if err != nil {
		respondError(w, "invalid form data", http.StatusBadRequest)
		return
	}

	input := model.CreateMilestoneInput{
		Title:     r.FormValue("title"),
		EventDate: r.FormValue("event_date"),
	}
	if desc := r.FormValue("description"); desc != "" {
		input.Description = &desc
	}

	imageKey, uploaded, err := h.uploadFormImage(r, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if uploaded {
		input.ImageURL = &imageKey
	}

	milestone, err := h.milestoneService.Create(user.ID, input)
	if err != nil {
		if uploaded {
			deleteErr := h.imageService.Delete(user.ID, imageKey)
			if deleteErr != nil {
				slog.Warn("failed to clean up image after create failure", "error", deleteErr, "key", imageKey)
			}
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, milestone)
}

// Update applies a partial edit. Only fields present in the form are
// touched; a present-but-empty description or image_url clears the value.
// A new image file replaces the old one: the replacement is uploaded
// first, and the previous object is deleted only after the record update
// succeeds.
func (h *milestoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := r.ParseMultipartForm(maxMultipartMemory)
	if err != nil {
		respondError(w, "invalid form data", http.StatusBadRequest)
		return
	}

	input := model.UpdateMilestoneInput{ID: r.PathValue("id")}
	if v, ok := formField(r, "title"); ok {
		input.Title = &v
	}
	if v, ok := formField(r, "description"); ok {
		input.Description = &v
	}
	if v, ok := formField(r, "event_date"); ok {
		input.EventDate = &v
	}
	if v, ok := formField(r, "image_url"); ok {
		input.ImageURL = &v
	}

	// Capture the stored image reference up front so we know what to retire
	previousImage, err := h.milestoneService.StoredImage(input.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	imageKey, uploaded, err := h.uploadFormImage(r, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if uploaded {
		input.ImageURL = &imageKey
	}

	milestone, err := h.milestoneService.Update(user.ID, input)
	if err != nil {
		if uploaded {
			deleteErr := h.imageService.Delete(user.ID, imageKey)
			if deleteErr != nil {
				slog.Warn("failed to clean up image after update failure", "error", deleteErr, "key", imageKey)
			}
		}
		respondServiceError(w, err)
		return
	}

	// The old object is only retired once the new state is durable. The
	// delete is advisory and a no-op for legacy absolute URLs.
	imageCleared := input.ImageURL != nil && *input.ImageURL == ""
	if (uploaded || imageCleared) && previousImage != "" && previousImage != imageKey {
		deleteErr := h.imageService.Delete(user.ID, previousImage)
		if deleteErr != nil {
			slog.Warn("failed to delete replaced image", "error", deleteErr, "key", previousImage)
		}
	}

	respondJSON(w, http.StatusOK, milestone)
}

func (h *milestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	id := r.PathValue("id")

	storedImage, err := h.milestoneService.StoredImage(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Blob cleanup runs first; failures are advisory and never block the
	// record delete
	if storedImage != "" {
		deleteErr := h.imageService.Delete(user.ID, storedImage)
		if deleteErr != nil {
			slog.Warn("failed to delete milestone image", "error", deleteErr, "key", storedImage)
		}
	}

	err = h.milestoneService.Delete(user.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadImage stores a standalone image and returns its object key.
func (h *milestoneHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := r.ParseMultipartForm(maxMultipartMemory)
	if err != nil {
		respondError(w, "invalid form data", http.StatusBadRequest)
		return
	}

	key, uploaded, err := h.uploadFormImage(r, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !uploaded {
		respondError(w, "image file is required", http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// uploadFormImage reads the optional "image" file part and stores it.
// The second return value reports whether a file was present at all.
func (h *milestoneHandler) uploadFormImage(r *http.Request, userID string) (string, bool, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", false, nil
		}
		return "", false, err
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close uploaded file", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(file, validation.MaxImageSize+1))
	if err != nil {
		return "", false, err
	}

	key, err := h.imageService.Upload(userID, data, header.Header.Get("Content-Type"))
	if err != nil {
		return "", false, err
	}
	return key, true, nil
}

// formField distinguishes an absent field from a present-but-empty one.
func formField(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
