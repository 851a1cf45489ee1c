package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Iki-leo/emoji-mood-tracker/internal/domain"
)

// Encode serializes records as the slot's JSON array
func Encode(records []domain.Record) ([]byte, error) {
	if records == nil {
		records = []domain.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return data, nil
}

// Decode parses a slot value. Empty input is an empty journal.
// A later entry for an already seen date replaces the earlier one in place,
// so the result always holds one record per date. An entry without a valid
// date, with an emoji outside the catalog or with a rating out of range
// makes the whole value corrupt.
func Decode(data []byte) ([]domain.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []domain.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	index := make(map[string]int, len(raw))
	records := make([]domain.Record, 0, len(raw))
	for n, r := range raw {
		if err := checkStored(r); err != nil {
			return nil, fmt.Errorf("decode records: entry %d: %w", n, err)
		}
		if i, ok := index[r.Date]; ok {
			records[i] = r
			continue
		}
		index[r.Date] = len(records)
		records = append(records, r)
	}
	return records, nil
}

func checkStored(r domain.Record) error {
	if _, err := domain.ParseDate(r.Date); err != nil {
		return err
	}
	if m, ok := domain.LookupMood(r.Emoji); !ok || m.Emoji != r.Emoji {
		return fmt.Errorf("%w: %q", domain.ErrUnknownEmoji, r.Emoji)
	}
	if r.Rating != 0 && (r.Rating < domain.MinRating || r.Rating > domain.MaxRating) {
		return fmt.Errorf("%w: %d", domain.ErrInvalidRating, r.Rating)
	}
	return nil
}
