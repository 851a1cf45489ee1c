package domain

// Mood describes one selectable emotional state
type Mood struct {
	Emoji       string `json:"emoji" yaml:"emoji"`
	Label       string `json:"label" yaml:"label"`
	Value       string `json:"value" yaml:"value"`
	Color       string `json:"color" yaml:"color"`
	Description string `json:"description" yaml:"description"`
}

// Rating bounds for a day
const (
	MinRating = 1
	MaxRating = 5
)

// NoData is the emoji used for days without a record in fixed-shape output
const NoData = "❌"

// DefaultEmoji is reported as the most frequent mood when nothing was counted
const DefaultEmoji = "😊"

// Catalog lists every mood a record may carry, in display order
var Catalog = []Mood{
	{Emoji: "😊", Label: "Happy", Value: "happy", Color: "#4caf50", Description: "Feeling good"},
	{Emoji: "😐", Label: "Neutral", Value: "neutral", Color: "#ffc107", Description: "So-so"},
	{Emoji: "😢", Label: "Sad", Value: "sad", Color: "#2196f3", Description: "Rough day"},
	{Emoji: "😡", Label: "Angry", Value: "angry", Color: "#f44336", Description: "In a mood"},
	{Emoji: "🥰", Label: "In love", Value: "love", Color: "#e91e63", Description: "❤️"},
	{Emoji: "😴", Label: "Tired", Value: "tired", Color: "#9c27b0", Description: "Off to bed"},
	{Emoji: "🤔", Label: "Thoughtful", Value: "thinking", Color: "#795548", Description: "Reflecting"},
	{Emoji: "🎉", Label: "Celebrating", Value: "celebration", Color: "#ff9800", Description: "Party!"},
}

// DemoEmojis is the subset the demo generator picks from
var DemoEmojis = []string{"😊", "😐", "😢", "😡", "🥰", "😴"}

// LookupMood finds a catalog mood by emoji or by value name
func LookupMood(key string) (Mood, bool) {
	for _, m := range Catalog {
		if m.Emoji == key || m.Value == key {
			return m, true
		}
	}
	return Mood{}, false
}
