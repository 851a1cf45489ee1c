package domain

import (
	"fmt"
	"slices"
	"time"
)

// DateLayout is the calendar date format used as the record key
const DateLayout = "2006-01-02"

// Record is one day's mood entry.
// The json names are the persisted slot format and must not change.
type Record struct {
	Date   string   `json:"fecha" yaml:"date"`
	Emoji  string   `json:"emoji" yaml:"emoji"`
	Note   string   `json:"nota,omitempty" yaml:"note,omitempty"`
	Rating int      `json:"rating,omitempty" yaml:"rating,omitempty"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Clone returns a copy that shares no memory with r
func (r Record) Clone() Record {
	r.Tags = slices.Clone(r.Tags)
	return r
}

// HasNote reports whether the record carries a non-empty note
func (r Record) HasNote() bool {
	return r.Note != ""
}

// Patch is a partial record update keyed by Date.
// Nil (or empty, for Emoji) fields are left untouched on merge. A non-nil
// empty Tags slice clears the tags.
type Patch struct {
	Date   string   `json:"fecha"`
	Emoji  string   `json:"emoji,omitempty"`
	Note   *string  `json:"nota,omitempty"`
	Rating *int     `json:"rating,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Apply merges p onto r and returns the result. r is not modified.
func (p Patch) Apply(r Record) Record {
	out := r.Clone()
	out.Date = p.Date
	if p.Emoji != "" {
		out.Emoji = p.Emoji
	}
	if p.Note != nil {
		out.Note = *p.Note
	}
	if p.Rating != nil {
		out.Rating = *p.Rating
	}
	if p.Tags != nil {
		out.Tags = slices.Clone(p.Tags)
	}
	return out
}

// Validate checks the shape of the fields present in p.
// Note length is only enforced by NoteForm.
func (p Patch) Validate() error {
	verr := &ValidationError{}
	if _, err := ParseDate(p.Date); err != nil {
		verr.Add("date", err.Error())
	}
	if p.Emoji != "" {
		if _, ok := LookupMood(p.Emoji); !ok {
			verr.Add("emoji", fmt.Sprintf("%s: %q", ErrUnknownEmoji, p.Emoji))
		}
	}
	if p.Rating != nil && (*p.Rating < MinRating || *p.Rating > MaxRating) {
		verr.Add("rating", ErrInvalidRating.Error())
	}
	return verr.OrNil()
}

// ParseDate parses an ISO calendar date and rejects non-canonical forms
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate returns the record key for the calendar day of t in t's location
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Window returns the n record keys ending at today, oldest first
func Window(today time.Time, n int) []string {
	y, m, d := today.Date()
	dates := make([]string, n)
	for i := 0; i < n; i++ {
		dates[i] = FormatDate(time.Date(y, m, d-(n-1-i), 0, 0, 0, 0, today.Location()))
	}
	return dates
}
