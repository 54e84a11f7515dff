package task

import (
	"strings"
	"unicode/utf8"

	"github.com/example/task-tracker/domain/apperror"
)

const (
	MinTitleLength       = 3
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// NormalizeDraft validates a draft and returns it trimmed, with the status
// defaulted to PENDING and an empty description dropped.
func NormalizeDraft(d Draft) (Draft, *apperror.Error) {
	if d.Title == "" {
		return Draft{}, apperror.Validation("Missing required fields: title")
	}
	title, verr := normalizeTitle(d.Title)
	if verr != nil {
		return Draft{}, verr
	}
	d.Title = title

	if d.Description != nil {
		desc, verr := normalizeDescription(*d.Description)
		if verr != nil {
			return Draft{}, verr
		}
		d.Description = desc
	}

	if d.Status == "" {
		d.Status = StatusPending
	} else if !d.Status.Valid() {
		return Draft{}, apperror.Validation("Status must be either PENDING or COMPLETED")
	}
	return d, nil
}

// NormalizePatch validates a patch and returns it trimmed. A description that
// trims to empty is kept as a pointer to "" so Apply clears it.
func NormalizePatch(p Patch) (Patch, *apperror.Error) {
	if p.Empty() {
		return Patch{}, apperror.Validation("At least one field must be provided for update")
	}
	if p.Title != nil {
		title, verr := normalizeTitle(*p.Title)
		if verr != nil {
			return Patch{}, verr
		}
		p.Title = &title
	}
	if p.Description != nil {
		desc, verr := normalizeDescription(*p.Description)
		if verr != nil {
			return Patch{}, verr
		}
		if desc == nil {
			empty := ""
			desc = &empty
		}
		p.Description = desc
	}
	if p.Status != nil && !p.Status.Valid() {
		return Patch{}, apperror.Validation("Status must be either PENDING or COMPLETED")
	}
	return p, nil
}

func normalizeTitle(raw string) (string, *apperror.Error) {
	title := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(title)
	if n < MinTitleLength {
		return "", apperror.Validation("Title must be at least 3 characters long")
	}
	if n > MaxTitleLength {
		return "", apperror.Validation("Title must be at most 200 characters long")
	}
	return title, nil
}

func normalizeDescription(raw string) (*string, *apperror.Error) {
	desc := strings.TrimSpace(raw)
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return nil, apperror.Validation("Description must be at most 1000 characters long")
	}
	if desc == "" {
		return nil, nil
	}
	return &desc, nil
}
