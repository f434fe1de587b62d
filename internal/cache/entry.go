package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is the stored cache record. Data is kept raw so the store never needs
// to know the shape of what it caches.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	ExpiresAt time.Time       `json:"expires_at"`
	IsDemo    bool            `json:"is_demo"`
}

// Decode unmarshals the entry payload into v.
func (e *Entry) Decode(v any) error {
	if e == nil {
		return fmt.Errorf("nil cache entry")
	}
	return json.Unmarshal(e.Data, v)
}

// Expired reports whether the entry is past its logical expiry at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// AgeSeconds returns the whole seconds elapsed since the entry was written.
func (e *Entry) AgeSeconds(now time.Time) int64 {
	age := now.Sub(e.Timestamp)
	if age < 0 {
		return 0
	}
	return int64(age.Seconds())
}

// FormatAge renders an age in seconds the way the dashboard shows it.
func FormatAge(seconds int64) string {
	switch {
	case seconds < 60:
		return "только что"
	case seconds < 3600:
		return fmt.Sprintf("%d мин. назад", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d ч. назад", seconds/3600)
	default:
		return fmt.Sprintf("%d дн. назад", seconds/86400)
	}
}
