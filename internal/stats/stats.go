// Package stats derives journal statistics from a set of records.
// Everything here is pure; the same records and day give the same Summary.
package stats

import (
	"slices"
	"time"

	"github.com/Iki-leo/emoji-mood-tracker/internal/domain"
)

const (
	// TrailingDays is the length of the trend series
	TrailingDays = 30
	// TopTagLimit caps the popular tag list
	TopTagLimit = 5
)

// EmojiCount is how many days carried one mood
type EmojiCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// EmojiRating is the mean rating of the rated days for one mood
type EmojiRating struct {
	Emoji   string  `json:"emoji"`
	Average float64 `json:"average"`
	Rated   int     `json:"rated"`
}

// Point is one day of the trend series. Days without a record have
// Complete=false, Rating 0 and the domain.NoData emoji.
type Point struct {
	Date     string `json:"date"`
	Label    string `json:"label"`
	Rating   int    `json:"rating"`
	Emoji    string `json:"emoji"`
	Complete bool   `json:"complete"`
}

// TagCount is how often a tag was used across all days
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary is the full statistics view
type Summary struct {
	Total             int           `json:"total"`
	WithNotes         int           `json:"withNotes"`
	AverageRating     float64       `json:"averageRating"`
	MostFrequent      string        `json:"mostFrequent"`
	MostFrequentCount int           `json:"mostFrequentCount"`
	Distribution      []EmojiCount  `json:"distribution"`
	RatingByEmoji     []EmojiRating `json:"ratingByEmoji"`
	Trailing          []Point       `json:"trailing"`
	TopTags           []TagCount    `json:"topTags"`
}

// Count returns the number of days with emoji
func (s *Summary) Count(emoji string) int {
	for _, c := range s.Distribution {
		if c.Emoji == emoji {
			return c.Count
		}
	}
	return 0
}

// Compute builds the summary for records as seen on today.
// It reports ok=false when there are no records.
func Compute(records []domain.Record, today time.Time) (*Summary, bool) {
	if len(records) == 0 {
		return nil, false
	}

	s := &Summary{Total: len(records)}
	s.Distribution, s.RatingByEmoji = distribution(records)
	s.Trailing = trailing(records, today)
	s.TopTags = topTags(records, TopTagLimit)

	sum := 0
	for _, r := range records {
		sum += r.Rating
		if r.HasNote() {
			s.WithNotes++
		}
	}
	// unrated days count as 0 and still weigh in the mean
	s.AverageRating = float64(sum) / float64(len(records))

	s.MostFrequent = domain.DefaultEmoji
	for _, c := range s.Distribution {
		// strictly greater, so the first mood seen wins a tie
		if c.Count > s.MostFrequentCount {
			s.MostFrequent = c.Emoji
			s.MostFrequentCount = c.Count
		}
	}
	return s, true
}

func distribution(records []domain.Record) ([]EmojiCount, []EmojiRating) {
	var counts []EmojiCount
	pos := map[string]int{}
	type acc struct{ sum, n int }
	ratings := map[string]*acc{}

	for _, r := range records {
		i, ok := pos[r.Emoji]
		if !ok {
			i = len(counts)
			pos[r.Emoji] = i
			counts = append(counts, EmojiCount{Emoji: r.Emoji})
		}
		counts[i].Count++

		if r.Rating > 0 {
			a := ratings[r.Emoji]
			if a == nil {
				a = &acc{}
				ratings[r.Emoji] = a
			}
			a.sum += r.Rating
			a.n++
		}
	}

	var byEmoji []EmojiRating
	for _, c := range counts {
		if a := ratings[c.Emoji]; a != nil {
			byEmoji = append(byEmoji, EmojiRating{
				Emoji:   c.Emoji,
				Average: float64(a.sum) / float64(a.n),
				Rated:   a.n,
			})
		}
	}
	return counts, byEmoji
}

func trailing(records []domain.Record, today time.Time) []Point {
	byDate := make(map[string]domain.Record, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}

	dates := domain.Window(today, TrailingDays)
	points := make([]Point, len(dates))
	for i, d := range dates {
		p := Point{Date: d, Label: label(d), Emoji: domain.NoData}
		if r, ok := byDate[d]; ok {
			p.Rating = r.Rating
			p.Emoji = r.Emoji
			p.Complete = true
		}
		points[i] = p
	}
	return points
}

// label renders a YYYY-MM-DD key as dd/mm
func label(date string) string {
	t, err := domain.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("02/01")
}

func topTags(records []domain.Record, limit int) []TagCount {
	var tags []TagCount
	pos := map[string]int{}
	for _, r := range records {
		for _, t := range r.Tags {
			i, ok := pos[t]
			if !ok {
				i = len(tags)
				pos[t] = i
				tags = append(tags, TagCount{Tag: t})
			}
			tags[i].Count++
		}
	}

	slices.SortStableFunc(tags, func(a, b TagCount) int {
		return b.Count - a.Count
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}
