package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iki-leo/emoji-mood-tracker/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func Test_Patch_Apply_Keeps_Fields_When_Absent_From_Patch(t *testing.T) {
	t.Parallel()

	rec := domain.Record{Date: "2024-02-01", Emoji: "😴", Rating: 2, Tags: []string{"work"}}
	got := domain.Patch{Date: "2024-02-01", Note: ptr("tired day")}.Apply(rec)

	assert.Equal(t, domain.Record{
		Date:   "2024-02-01",
		Emoji:  "😴",
		Note:   "tired day",
		Rating: 2,
		Tags:   []string{"work"},
	}, got)
}

func Test_Patch_Apply_Does_Not_Alias_Tags(t *testing.T) {
	t.Parallel()

	tags := []string{"a"}
	rec := domain.Patch{Date: "2024-02-01", Emoji: "😊", Tags: tags}.Apply(domain.Record{})
	tags[0] = "changed"

	assert.Equal(t, []string{"a"}, rec.Tags)
}

func Test_Patch_Apply_Clears_Tags_When_Empty_Slice_Given(t *testing.T) {
	t.Parallel()

	rec := domain.Record{Date: "2024-02-01", Emoji: "😊", Tags: []string{"a"}}
	got := domain.Patch{Date: "2024-02-01", Tags: []string{}}.Apply(rec)

	assert.Empty(t, got.Tags)
}

func Test_Patch_Validate_Reports_Each_Bad_Field(t *testing.T) {
	t.Parallel()

	err := domain.Patch{Date: "2024-2-1", Emoji: "🦄", Rating: ptr(9)}.Validate()

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("date"))
	assert.True(t, verr.Has("emoji"))
	assert.True(t, verr.Has("rating"))
}

func Test_Patch_Validate_Accepts_Mood_Value_Names(t *testing.T) {
	t.Parallel()

	require.NoError(t, domain.Patch{Date: "2024-02-01", Emoji: "tired"}.Validate())
	require.NoError(t, domain.Patch{Date: "2024-02-01", Emoji: "🎉"}.Validate())
}

func Test_ParseDate_Rejects_Non_Canonical_Dates(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "2024-02-30", "2024-2-01", "01/02/2024", "2024-02-01T00:00:00Z"} {
		_, err := domain.ParseDate(in)
		assert.Truef(t, errors.Is(err, domain.ErrInvalidDate), "ParseDate(%q) = %v", in, err)
	}

	d, err := domain.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.February, d.Month())
}

func Test_Window_Spans_Consecutive_Days_Ending_Today(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	got := domain.Window(today, 30)

	require.Len(t, got, 30)
	assert.Equal(t, "2024-02-01", got[0])
	assert.Equal(t, "2024-02-29", got[28])
	assert.Equal(t, "2024-03-01", got[29])
}

func Test_Window_Uses_Calendar_Day_Of_The_Given_Location(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*3600)
	// 20:00 UTC is already the next day in Tokyo
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC).In(tokyo)

	got := domain.Window(now, 1)
	assert.Equal(t, []string{"2024-03-02"}, got)
}

func Test_NoteForm_Validate_Reports_Field_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		form   domain.NoteForm
		fields []string
	}{
		{
			name:   "TooShortAndNoRating",
			form:   domain.NoteForm{Date: "2024-02-01", Note: "ok"},
			fields: []string{"note", "rating"},
		},
		{
			name:   "TooLong",
			form:   domain.NoteForm{Date: "2024-02-01", Note: strings.Repeat("x", 101), Rating: 3},
			fields: []string{"note"},
		},
		{
			name:   "RatingOutOfRange",
			form:   domain.NoteForm{Date: "2024-02-01", Note: "fine day", Rating: 6},
			fields: []string{"rating"},
		},
		{
			name:   "BadDate",
			form:   domain.NoteForm{Date: "yesterday", Note: "fine day", Rating: 3},
			fields: []string{"date"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var verr *domain.ValidationError
			require.ErrorAs(t, tc.form.Validate(), &verr)
			require.Len(t, verr.Fields, len(tc.fields))
			for _, f := range tc.fields {
				assert.True(t, verr.Has(f), "missing field error for %s", f)
			}
		})
	}
}

func Test_NoteForm_Counts_Characters_Not_Bytes(t *testing.T) {
	t.Parallel()

	form := domain.NoteForm{Date: "2024-02-01", Note: strings.Repeat("é", 100), Rating: 4}
	require.NoError(t, form.Validate())
}

func Test_NoteForm_Patch_Trims_And_Drops_Empty_Tags(t *testing.T) {
	t.Parallel()

	form := domain.NoteForm{Date: "2024-02-01", Note: "  long day  ", Rating: 2, Tags: []string{" work ", "", "  "}}
	require.NoError(t, form.Validate())

	p := form.Patch()
	require.NotNil(t, p.Note)
	require.NotNil(t, p.Rating)
	assert.Equal(t, "long day", *p.Note)
	assert.Equal(t, 2, *p.Rating)
	assert.Equal(t, []string{"work"}, p.Tags)
}

func Test_NoteForm_Patch_Keeps_Stored_Tags_When_None_Given(t *testing.T) {
	t.Parallel()

	p := domain.NoteForm{Date: "2024-02-01", Note: "long day", Rating: 2}.Patch()
	assert.Nil(t, p.Tags)
}

func Test_LookupMood_Finds_By_Emoji_And_Value(t *testing.T) {
	t.Parallel()

	m, ok := domain.LookupMood("love")
	require.True(t, ok)
	assert.Equal(t, "🥰", m.Emoji)

	_, ok = domain.LookupMood("🦄")
	assert.False(t, ok)

	for _, e := range domain.DemoEmojis {
		_, ok := domain.LookupMood(e)
		assert.True(t, ok, "demo emoji %s missing from catalog", e)
	}
	assert.Len(t, domain.Catalog, 8)
}
