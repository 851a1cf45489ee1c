package stats_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iki-leo/emoji-mood-tracker/internal/domain"
	"github.com/Iki-leo/emoji-mood-tracker/internal/stats"
	"github.com/Iki-leo/emoji-mood-tracker/internal/store"
)

var today = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

func Test_Compute_Reports_Unavailable_When_Journal_Empty(t *testing.T) {
	t.Parallel()

	summary, ok := stats.Compute(nil, today)
	assert.False(t, ok)
	assert.Nil(t, summary)

	summary, ok = stats.Compute([]domain.Record{}, today)
	assert.False(t, ok)
	assert.Nil(t, summary)
}

func Test_Compute_Summarizes_Two_Day_Journal(t *testing.T) {
	t.Parallel()

	records := []domain.Record{
		{Date: "2024-01-01", Emoji: "😊", Rating: 5},
		{Date: "2024-01-02", Emoji: "😢", Rating: 1},
	}

	s, ok := stats.Compute(records, today)
	require.True(t, ok)

	assert.Equal(t, []stats.EmojiCount{{Emoji: "😊", Count: 1}, {Emoji: "😢", Count: 1}}, s.Distribution)
	assert.InDelta(t, 3.0, s.AverageRating, 1e-9)
	assert.Equal(t, "😊", s.MostFrequent, "first-encountered mood wins a tie")
	assert.Equal(t, 1, s.MostFrequentCount)
	assert.Equal(t, 2, s.Total)
	assert.Zero(t, s.WithNotes)
	assert.Empty(t, s.TopTags)
	assert.Equal(t, []stats.EmojiRating{
		{Emoji: "😊", Average: 5, Rated: 1},
		{Emoji: "😢", Average: 1, Rated: 1},
	}, s.RatingByEmoji)
}

func Test_Compute_Averages_Over_All_Days_Including_Unrated(t *testing.T) {
	t.Parallel()

	records := []domain.Record{
		{Date: "2024-01-01", Emoji: "😊", Rating: 4},
		{Date: "2024-01-02", Emoji: "😊"},
		{Date: "2024-01-03", Emoji: "😐", Note: "quiet"},
		{Date: "2024-01-04", Emoji: "😢", Rating: 2, Note: "rain"},
	}

	s, ok := stats.Compute(records, today)
	require.True(t, ok)

	assert.InDelta(t, 1.5, s.AverageRating, 1e-9)
	assert.Equal(t, 2, s.WithNotes)
	assert.Equal(t, "😊", s.MostFrequent)
	assert.Equal(t, 2, s.MostFrequentCount)
	assert.Equal(t, 2, s.Count("😊"))
	assert.Zero(t, s.Count("🎉"))
	assert.False(t, math.IsNaN(s.AverageRating))

	// unrated days are left out of the per-mood average
	assert.Equal(t, []stats.EmojiRating{
		{Emoji: "😊", Average: 4, Rated: 1},
		{Emoji: "😢", Average: 2, Rated: 1},
	}, s.RatingByEmoji)
}

func Test_Compute_Picks_Strictly_Most_Frequent_Emoji(t *testing.T) {
	t.Parallel()

	records := []domain.Record{
		{Date: "2024-01-01", Emoji: "😐"},
		{Date: "2024-01-02", Emoji: "😡"},
		{Date: "2024-01-03", Emoji: "😡"},
		{Date: "2024-01-04", Emoji: "😐"},
		{Date: "2024-01-05", Emoji: "😡"},
	}

	s, ok := stats.Compute(records, today)
	require.True(t, ok)
	assert.Equal(t, "😡", s.MostFrequent)
	assert.Equal(t, 3, s.MostFrequentCount)
}

func Test_Compute_Trailing_Series_Marks_Missing_Days(t *testing.T) {
	t.Parallel()

	records := []domain.Record{
		{Date: "2024-03-05", Emoji: "🤔", Rating: 4},
		{Date: "2023-12-01", Emoji: "😊", Rating: 5},
	}

	s, ok := stats.Compute(records, today)
	require.True(t, ok)
	require.Len(t, s.Trailing, stats.TrailingDays)

	populated := 0
	for i, p := range s.Trailing {
		if i == 19 {
			continue
		}
		assert.False(t, p.Complete)
		assert.Zero(t, p.Rating)
		assert.Equal(t, domain.NoData, p.Emoji)
	}
	for _, p := range s.Trailing {
		if p.Complete {
			populated++
		}
	}
	assert.Equal(t, 1, populated)

	want := stats.Point{Date: "2024-03-05", Label: "05/03", Rating: 4, Emoji: "🤔", Complete: true}
	assert.Equal(t, want, s.Trailing[19])
	assert.Equal(t, "2024-02-15", s.Trailing[0].Date)
	assert.Equal(t, "2024-03-15", s.Trailing[29].Date)
	assert.Equal(t, "15/03", s.Trailing[29].Label)
}

func Test_Compute_Top_Tags_Sorted_By_Count_With_Stable_Ties(t *testing.T) {
	t.Parallel()

	records := []domain.Record{
		{Date: "2024-01-01", Emoji: "😊", Tags: []string{"work", "gym"}},
		{Date: "2024-01-02", Emoji: "😊", Tags: []string{"gym", "family", "work"}},
		{Date: "2024-01-03", Emoji: "😊", Tags: []string{"read", "a", "b", "c"}},
		{Date: "2024-01-04", Emoji: "😊", Tags: []string{"c", "c"}},
	}

	s, ok := stats.Compute(records, today)
	require.True(t, ok)

	want := []stats.TagCount{
		{Tag: "c", Count: 3},
		{Tag: "work", Count: 2},
		{Tag: "gym", Count: 2},
		{Tag: "family", Count: 1},
		{Tag: "read", Count: 1},
	}
	if diff := cmp.Diff(want, s.TopTags); diff != "" {
		t.Fatalf("top tags mismatch (-want +got):\n%s", diff)
	}
}

func Test_Compute_Is_Deterministic(t *testing.T) {
	t.Parallel()

	slot := store.NewMemorySlot(store.DefaultSlotName, nil)
	st := store.Open(context.Background(), slot, nil)
	require.NoError(t, st.LoadDemo(context.Background(), today, store.NewDemoRand(3)))
	records := st.All().Records

	a, _ := stats.Compute(records, today)
	b, _ := stats.Compute(records, today)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("repeated compute differs:\n%s", diff)
	}
	assert.Equal(t, store.DemoDays, a.Total)
	assert.Equal(t, store.DemoDays, a.WithNotes)
	for _, p := range a.Trailing {
		assert.True(t, p.Complete)
	}
}

func Test_Memo_Recomputes_Only_When_Version_Or_Day_Changes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.Open(ctx, store.NewMemorySlot(store.DefaultSlotName, nil), nil)
	memo := &stats.Memo{}

	_, ok := memo.Get(st.All(), today)
	assert.False(t, ok)

	require.NoError(t, st.Upsert(ctx, domain.Patch{Date: "2024-03-15", Emoji: "😊"}))
	first, ok := memo.Get(st.All(), today)
	require.True(t, ok)

	again, _ := memo.Get(st.All(), today)
	assert.Same(t, first, again)
	assert.Equal(t, 1, memo.Hits())

	tomorrow, _ := memo.Get(st.All(), today.AddDate(0, 0, 1))
	assert.NotSame(t, first, tomorrow)
	assert.Equal(t, "2024-03-16", tomorrow.Trailing[29].Date)
}

func Test_Memo_Watch_Warms_Cache_After_Mutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.Open(ctx, store.NewMemorySlot(store.DefaultSlotName, nil), nil)
	memo := &stats.Memo{}
	cancel := memo.Watch(st, func() time.Time { return today })
	defer cancel()

	require.NoError(t, st.Upsert(ctx, domain.Patch{Date: "2024-03-15", Emoji: "😊", Rating: ptr(4)}))

	s, ok := memo.Get(st.All(), today)
	require.True(t, ok)
	assert.Equal(t, 1, memo.Hits())
	assert.InDelta(t, 4.0, s.AverageRating, 1e-9)
}

func ptr[T any](v T) *T { return &v }
