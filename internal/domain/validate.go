package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrUnknownEmoji  = errors.New("unknown mood")
	ErrMissingEmoji  = errors.New("a new day needs a mood")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Note length bounds for the note form, in characters
const (
	MinNoteLen = 3
	MaxNoteLen = 100
)

// FieldError is a validation failure attached to one input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field level failures
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Add records a failure for field
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field failed
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when nothing was added, so callers can return it as error
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NoteForm is the richer entry path: a note with a mandatory rating and tags
type NoteForm struct {
	Date   string
	Note   string
	Rating int
	Tags   []string
}

// Validate checks the form. Rating 0 means the user picked none.
func (f NoteForm) Validate() error {
	verr := &ValidationError{}
	if _, err := ParseDate(f.Date); err != nil {
		verr.Add("date", err.Error())
	}

	n := utf8.RuneCountInString(strings.TrimSpace(f.Note))
	switch {
	case n < MinNoteLen:
		verr.Add("note", fmt.Sprintf("note must be at least %d characters", MinNoteLen))
	case n > MaxNoteLen:
		verr.Add("note", fmt.Sprintf("note must be at most %d characters", MaxNoteLen))
	}

	switch {
	case f.Rating == 0:
		verr.Add("rating", "rating is required")
	case f.Rating < MinRating || f.Rating > MaxRating:
		verr.Add("rating", ErrInvalidRating.Error())
	}
	return verr.OrNil()
}

// Patch converts a valid form into a store update.
// Call Validate first. A form without tags keeps the stored ones.
func (f NoteForm) Patch() Patch {
	note := strings.TrimSpace(f.Note)
	rating := f.Rating
	var tags []string
	for _, t := range f.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return Patch{Date: f.Date, Note: &note, Rating: &rating, Tags: tags}
}
