package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tonggak/milestones/internal/model"
	"github.com/tonggak/milestones/internal/repository"
	"github.com/tonggak/milestones/internal/validation"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// MilestoneService is the CRUD facade over milestone records. Reads are
// open to any authenticated identity; writes require admin membership,
// re-checked on every call.
type MilestoneService struct {
	repo         repository.MilestoneRepository
	authService  *AuthService
	imageService *ImageService
}

func NewMilestoneService(repo repository.MilestoneRepository, authService *AuthService, imageService *ImageService) *MilestoneService {
	return &MilestoneService{
		repo:         repo,
		authService:  authService,
		imageService: imageService,
	}
}

func (s *MilestoneService) IsAdmin(userID string) (bool, error) {
	return s.authService.IsAdmin(userID)
}

// List returns all milestones ordered by event date descending, with
// managed image keys resolved to signed display URLs. A per-item
// resolution failure degrades gracefully: the raw key is returned and the
// listing continues.
func (s *MilestoneService) List() ([]*model.Milestone, error) {
	milestones, err := s.repo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}

	for _, m := range milestones {
		s.resolveImage(m)
	}

	return milestones, nil
}

func (s *MilestoneService) ByID(id string) (*model.Milestone, error) {
	m, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}

	s.resolveImage(m)
	return m, nil
}

// StoredImage returns the raw image reference persisted for a milestone,
// before any display resolution. Callers use it to retire the previous
// object when an image is replaced or a record removed.
func (s *MilestoneService) StoredImage(id string) (string, error) {
	_, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: invalid milestone id", ErrInvalidInput)
	}

	m, err := s.repo.ByID(id)
	if err != nil {
		return "", err
	}
	if m.ImageURL == nil {
		return "", nil
	}
	return *m.ImageURL, nil
}

func (s *MilestoneService) Create(userID string, input model.CreateMilestoneInput) (*model.Milestone, error) {
	admin, err := s.authService.IsAdmin(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check admin status: %w", err)
	}
	if !admin {
		return nil, ErrUnauthorized
	}

	err = validateCreate(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	m := &model.Milestone{
		ID:        uuid.New().String(),
		Title:     input.Title,
		EventDate: input.EventDate,
		CreatedBy: &userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Description != nil && *input.Description != "" {
		m.Description = input.Description
	}
	if input.ImageURL != nil && *input.ImageURL != "" {
		m.ImageURL = input.ImageURL
	}

	err = s.repo.Create(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}

	slog.Info("milestone created", "id", m.ID, "title", m.Title, "user_id", userID)
	s.resolveImage(m)
	return m, nil
}

// Update applies a partial update. A nil field is left untouched; a field
// explicitly set must pass the same validation as create. An explicit
// empty description or image clears the value.
func (s *MilestoneService) Update(userID string, input model.UpdateMilestoneInput) (*model.Milestone, error) {
	admin, err := s.authService.IsAdmin(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check admin status: %w", err)
	}
	if !admin {
		return nil, ErrUnauthorized
	}

	err = validateUpdate(input)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.ByID(input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		m.Title = *input.Title
	}
	if input.EventDate != nil {
		m.EventDate = *input.EventDate
	}
	if input.Description != nil {
		if *input.Description == "" {
			m.Description = nil
		} else {
			m.Description = input.Description
		}
	}
	if input.ImageURL != nil {
		if *input.ImageURL == "" {
			m.ImageURL = nil
		} else {
			m.ImageURL = input.ImageURL
		}
	}

	err = s.repo.Update(m)
	if err != nil {
		return nil, err
	}

	slog.Info("milestone updated", "id", m.ID, "user_id", userID)
	s.resolveImage(m)
	return m, nil
}

// Delete removes the record only. The associated stored image must be
// deleted by the calling workflow beforehand; this service does not
// cascade into the object store.
func (s *MilestoneService) Delete(userID, id string) error {
	admin, err := s.authService.IsAdmin(userID)
	if err != nil {
		return fmt.Errorf("failed to check admin status: %w", err)
	}
	if !admin {
		return ErrUnauthorized
	}

	_, err = uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid milestone id", ErrInvalidInput)
	}

	err = s.repo.Delete(id)
	if err != nil {
		return err
	}

	slog.Info("milestone deleted", "id", id, "user_id", userID)
	return nil
}

// resolveImage swaps a stored image reference for a display URL in place.
// Failures leave the raw value so one broken object cannot take down a
// whole listing.
func (s *MilestoneService) resolveImage(m *model.Milestone) {
	if m.ImageURL == nil || *m.ImageURL == "" {
		return
	}

	url, err := s.imageService.ResolveDisplayURL(*m.ImageURL)
	if err != nil {
		slog.Warn("image resolution failed", "error", err, "milestone_id", m.ID)
		return
	}
	m.ImageURL = &url
}

// validateCreate reports the first violated rule, matching the
// field-by-field order of the input form.
func validateCreate(input model.CreateMilestoneInput) error {
	err := validation.ValidateMilestoneTitle(input.Title)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if input.Description != nil {
		err = validation.ValidateMilestoneDescription(*input.Description)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
	}
	err = validation.ValidateEventDate(input.EventDate)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return nil
}

func validateUpdate(input model.UpdateMilestoneInput) error {
	_, err := uuid.Parse(input.ID)
	if err != nil {
		return fmt.Errorf("%w: invalid milestone id", ErrInvalidInput)
	}
	if input.Title != nil {
		err = validation.ValidateMilestoneTitle(*input.Title)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
	}
	if input.Description != nil {
		err = validation.ValidateMilestoneDescription(*input.Description)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
	}
	if input.EventDate != nil {
		err = validation.ValidateEventDate(*input.EventDate)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
	}
	return nil
}
