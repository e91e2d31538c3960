package history

import (
	"reflect"
	"testing"
	"time"
)

// groupNow is the fixed reference time for grouping tests.
var groupNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// recordAt creates a record whose timestamp lies the given duration before
// groupNow.
func recordAt(id string, ago time.Duration) Record {
	return Record{ID: id, Timestamp: groupNow.Add(-ago).UnixMilli()}
}

func TestGroupByTime_TodayAndYesterday(t *testing.T) {
	// ~25h ago lands in yesterday; order of input doesn't matter.
	records := []Record{
		recordAt("old", 25*time.Hour),
		recordAt("new", 0),
	}

	groups := GroupByTime(records, groupNow)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Title != "today" || groups[1].Title != "yesterday" {
		t.Errorf("titles = [%s, %s], want [today, yesterday]", groups[0].Title, groups[1].Title)
	}
	if groups[0].Items[0].ID != "new" || groups[1].Items[0].ID != "old" {
		t.Errorf("records landed in wrong groups: %+v", groups)
	}
}

func TestGroupByTime_Empty(t *testing.T) {
	groups := GroupByTime(nil, groupNow)
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}

func TestGroupByTime_Idempotent(t *testing.T) {
	records := []Record{
		recordAt("a", 2*time.Hour),
		recordAt("b", 26*time.Hour),
		recordAt("c", 80*time.Hour),
		recordAt("d", 10*24*time.Hour),
	}

	first := GroupByTime(records, groupNow)
	second := GroupByTime(records, groupNow)
	if !reflect.DeepEqual(first, second) {
		t.Error("grouping the same input twice produced different output")
	}
}

func TestGroupByTime_Buckets(t *testing.T) {
	cases := []struct {
		ago   time.Duration
		title string
	}{
		{0, "today"},
		{30 * time.Hour, "yesterday"},
		{3 * 24 * time.Hour, "3 days ago"},
		{6 * 24 * time.Hour, "6 days ago"},
		{8 * 24 * time.Hour, "last week"},
		{15 * 24 * time.Hour, "2 weeks ago"},
		{29 * 24 * time.Hour, "4 weeks ago"},
		{45 * 24 * time.Hour, "1 months ago"},
		{70 * 24 * time.Hour, "2 months ago"},
	}
	for _, tc := range cases {
		groups := GroupByTime([]Record{recordAt("x", tc.ago)}, groupNow)
		if len(groups) != 1 || groups[0].Title != tc.title {
			t.Errorf("ago=%v: groups = %+v, want single %q", tc.ago, groups, tc.title)
		}
	}
}

func TestGroupByTime_DiscardsInvalidTimestamps(t *testing.T) {
	records := []Record{
		{ID: "bad", Timestamp: 0},
		{ID: "negative", Timestamp: -5},
		recordAt("good", time.Hour),
	}
	groups := GroupByTime(records, groupNow)
	if len(groups) != 1 || len(groups[0].Items) != 1 || groups[0].Items[0].ID != "good" {
		t.Errorf("expected only the valid record, got %+v", groups)
	}
}

func TestGroupByTime_DescendingWithinBucket(t *testing.T) {
	records := []Record{
		recordAt("older", 3*time.Hour),
		recordAt("newest", time.Minute),
		recordAt("middle", time.Hour),
	}
	groups := GroupByTime(records, groupNow)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	want := []string{"newest", "middle", "older"}
	for i, r := range groups[0].Items {
		if r.ID != want[i] {
			t.Errorf("position %d = %s, want %s", i, r.ID, want[i])
		}
	}
}

func TestFormatRelative(t *testing.T) {
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
	}
	for _, tc := range cases {
		got := FormatRelative(groupNow.Add(-tc.ago).UnixMilli(), groupNow)
		if got != tc.want {
			t.Errorf("ago=%v: got %q, want %q", tc.ago, got, tc.want)
		}
	}

	// Yesterday keeps the clock time.
	yesterday := time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)
	if got := FormatRelative(yesterday.UnixMilli(), groupNow); got != "yesterday 09:30" {
		t.Errorf("yesterday format = %q", got)
	}

	// Same year: short date.
	march := time.Date(2024, 3, 2, 8, 5, 0, 0, time.UTC)
	if got := FormatRelative(march.UnixMilli(), groupNow); got != "03-02 08:05" {
		t.Errorf("same-year format = %q", got)
	}

	// Older: full date.
	old := time.Date(2022, 11, 20, 22, 15, 0, 0, time.UTC)
	if got := FormatRelative(old.UnixMilli(), groupNow); got != "2022-11-20 22:15" {
		t.Errorf("full-date format = %q", got)
	}
}

func TestGroupTitle_Exhaustive(t *testing.T) {
	// Spot-check the integer division edges.
	edges := map[int]string{
		0: "today", 1: "yesterday", 2: "2 days ago", 6: "6 days ago",
		7: "last week", 13: "last week", 14: "2 weeks ago", 29: "4 weeks ago",
		30: "1 months ago", 59: "1 months ago", 60: "2 months ago",
	}
	for days, want := range edges {
		if got := groupTitle(days); got != want {
			t.Errorf("groupTitle(%d) = %q, want %q", days, got, want)
		}
	}
	// Sanity: every bucket label is non-empty for a wide range.
	for days := 0; days < 400; days++ {
		if groupTitle(days) == "" {
			t.Fatalf("empty title for %d days", days)
		}
	}
}
