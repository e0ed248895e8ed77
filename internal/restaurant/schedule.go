package restaurant

import (
	"encoding/json"
	"time"
)

// Window is a single opening window within a day, with "HH:MM" bounds.
// Times compare lexicographically, which is correct for zero-padded HH:MM.
type Window struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Schedule is a weekly opening schedule keyed by short day name
// (Mon, Tue, ... Sun).
type Schedule map[string][]Window

// dayNames in display order.
var dayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// OpenAt reports whether the schedule is open at the given time.
//
// A nil/empty schedule fails open: availability over precision, preserved
// as a product decision. A schedule that exists but has no windows for the
// day is closed.
func (s Schedule) OpenAt(t time.Time) bool {
	if len(s) == 0 {
		return true
	}

	windows, ok := s[t.Format("Mon")]
	if !ok || len(windows) == 0 {
		return false
	}

	now := t.Format("15:04")
	for _, w := range windows {
		from := w.From
		if from == "" {
			from = "00:00"
		}
		to := w.To
		if to == "" {
			to = "23:59"
		}
		if from <= now && now <= to {
			return true
		}
	}
	return false
}

// Summary returns a compact per-day display form, e.g. {"Mon": "09:00-22:00"}.
// Only the first window of each day is shown.
func (s Schedule) Summary() map[string]string {
	if len(s) == 0 {
		return nil
	}
	result := make(map[string]string)
	for _, day := range dayNames {
		windows := s[day]
		if len(windows) == 0 {
			continue
		}
		result[day] = windows[0].From + "-" + windows[0].To
	}
	return result
}

// ParseSchedule decodes a schedule from its JSON storage form. Malformed
// data yields a nil schedule, which fails open, rather than an error.
func ParseSchedule(raw []byte) Schedule {
	if len(raw) == 0 {
		return nil
	}
	var s Schedule
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return s
}
