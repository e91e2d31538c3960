package history

import (
	"fmt"
	"sort"
	"time"
)

const dayMs = int64(24 * time.Hour / time.Millisecond)

// GroupByTime buckets records into labeled groups by elapsed wall-clock
// time. Records with a non-positive timestamp are discarded; the rest are
// sorted strictly descending by timestamp, bucketed by whole days elapsed,
// and emitted in first-seen bucket order. A pure, idempotent projection:
// the same input and now always yield the same output.
func GroupByTime(records []Record, now time.Time) []Group {
	valid := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Timestamp > 0 {
			valid = append(valid, r)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Timestamp > valid[j].Timestamp
	})

	var groups []Group
	index := make(map[string]int)
	for _, r := range valid {
		title := groupTitle(daysSince(r.Timestamp, now))
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, Group{Title: title})
		}
		groups[i].Items = append(groups[i].Items, r)
	}

	return groups
}

// daysSince returns whole days elapsed between a millisecond timestamp and
// now. Future timestamps clamp to 0 (today).
func daysSince(timestampMs int64, now time.Time) int {
	diff := now.UnixMilli() - timestampMs
	if diff < 0 {
		return 0
	}
	return int(diff / dayMs)
}

// groupTitle maps elapsed whole days to a bucket label.
func groupTitle(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 14:
		return "last week"
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	default:
		return fmt.Sprintf("%d months ago", days/30)
	}
}

// FormatRelative renders a millisecond timestamp relative to now:
// same-day times as "just now" / "{n} minutes ago" / "{n} hours ago",
// yesterday as "yesterday HH:MM", same-year dates as "MM-DD HH:MM", and
// anything older with the full date.
func FormatRelative(timestampMs int64, now time.Time) string {
	t := time.UnixMilli(timestampMs)
	diff := now.Sub(t)
	days := daysSince(timestampMs, now)

	if days == 0 {
		mins := int(diff / time.Minute)
		if mins < 60 {
			if mins <= 1 {
				return "just now"
			}
			return fmt.Sprintf("%d minutes ago", mins)
		}
		return fmt.Sprintf("%d hours ago", int(diff/time.Hour))
	}

	if days == 1 {
		return "yesterday " + t.Format("15:04")
	}

	if t.Year() == now.Year() {
		return t.Format("01-02 15:04")
	}
	return t.Format("2006-01-02 15:04")
}
