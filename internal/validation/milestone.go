package validation

import (
	"errors"
	"regexp"
)

const (
	MilestoneTitleMaxLen       = 200
	MilestoneDescriptionMaxLen = 2000
)

// eventDateRe matches ISO calendar dates (YYYY-MM-DD), no time component.
var eventDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func ValidateMilestoneTitle(title string) error {
	if title == "" {
		return errors.New("title is required")
	}
	if len(title) > MilestoneTitleMaxLen {
		return errors.New("title must be at most 200 characters")
	}
	return nil
}

func ValidateMilestoneDescription(description string) error {
	if len(description) > MilestoneDescriptionMaxLen {
		return errors.New("description must be at most 2000 characters")
	}
	return nil
}

func ValidateEventDate(date string) error {
	if !eventDateRe.MatchString(date) {
		return errors.New("event date must be in YYYY-MM-DD format")
	}
	return nil
}
