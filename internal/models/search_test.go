package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayCount(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int
	}{
		{"single day", date(2025, 9, 10), date(2025, 9, 10), 1},
		{"three days", date(2025, 9, 10), date(2025, 9, 12), 3},
		{"month boundary", date(2025, 9, 28), date(2025, 10, 2), 5},
		{"inverted range", date(2025, 9, 12), date(2025, 9, 10), 0},
		{"ignores time of day", date(2025, 9, 10).Add(23 * time.Hour), date(2025, 9, 11), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayCount(tt.start, tt.end); got != tt.expected {
				t.Errorf("DayCount() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestPartitionBundles(t *testing.T) {
	tests := []struct {
		name        string
		start       time.Time
		end         time.Time
		maxSize     int
		wantBundles int
		wantLengths []int
	}{
		{"exact fit", date(2025, 9, 10), date(2025, 9, 12), 3, 1, []int{3}},
		{"even split", date(2025, 9, 1), date(2025, 9, 14), 7, 2, []int{7, 7}},
		{"remainder bundle", date(2025, 9, 1), date(2025, 9, 10), 4, 3, []int{4, 4, 2}},
		{"single date", date(2025, 9, 1), date(2025, 9, 1), 7, 1, []int{1}},
		{"size one", date(2025, 9, 1), date(2025, 9, 3), 1, 3, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundles := PartitionBundles(1, tt.start, tt.end, tt.maxSize)
			if len(bundles) != tt.wantBundles {
				t.Fatalf("got %d bundles, want %d", len(bundles), tt.wantBundles)
			}

			total := 0
			for i, b := range bundles {
				if b.Sequence != i {
					t.Errorf("bundle %d has sequence %d", i, b.Sequence)
				}
				if b.Status != BundlePending {
					t.Errorf("bundle %d status = %s, want PENDING", i, b.Status)
				}
				if b.Length() != tt.wantLengths[i] {
					t.Errorf("bundle %d length = %d, want %d", i, b.Length(), tt.wantLengths[i])
				}
				total += b.Length()
			}

			if want := DayCount(tt.start, tt.end); total != want {
				t.Errorf("bundle lengths sum to %d, want %d", total, want)
			}

			// Contiguity: each bundle starts the day after the previous ends
			for i := 1; i < len(bundles); i++ {
				expected := bundles[i-1].EndDate.AddDate(0, 0, 1)
				if !bundles[i].StartDate.Equal(expected) {
					t.Errorf("bundle %d starts %s, want %s (gap or overlap)",
						i, bundles[i].StartDate.Format(DateLayout), expected.Format(DateLayout))
				}
			}
			if !bundles[0].StartDate.Equal(NormalizeDate(tt.start)) {
				t.Errorf("first bundle starts %s, want %s", bundles[0].StartDate, tt.start)
			}
			if !bundles[len(bundles)-1].EndDate.Equal(NormalizeDate(tt.end)) {
				t.Errorf("last bundle ends %s, want %s", bundles[len(bundles)-1].EndDate, tt.end)
			}
		})
	}
}

func TestPartitionBundlesCeilCount(t *testing.T) {
	// ceil(L/B) bundles for a few (L, B) combinations
	for _, tc := range []struct{ days, size, want int }{
		{30, 7, 5},
		{7, 7, 1},
		{8, 7, 2},
		{1, 30, 1},
		{365, 14, 27},
	} {
		start := date(2025, 1, 1)
		end := start.AddDate(0, 0, tc.days-1)
		got := len(PartitionBundles(1, start, end, tc.size))
		if got != tc.want {
			t.Errorf("days=%d size=%d: got %d bundles, want %d", tc.days, tc.size, got, tc.want)
		}
	}
}

func TestTerminalSearchStatus(t *testing.T) {
	tests := []struct {
		name      string
		succeeded int
		total     int
		expected  SearchStatus
	}{
		{"all succeeded", 5, 5, SearchCompleted},
		{"none succeeded", 0, 5, SearchFailed},
		{"mixed", 3, 5, SearchPartial},
		{"single success", 1, 1, SearchCompleted},
		{"single failure", 0, 1, SearchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TerminalSearchStatus(tt.succeeded, tt.total); got != tt.expected {
				t.Errorf("TerminalSearchStatus(%d, %d) = %s, want %s",
					tt.succeeded, tt.total, got, tt.expected)
			}
		})
	}
}

func TestSearchStatusTerminal(t *testing.T) {
	terminal := []SearchStatus{SearchCompleted, SearchPartial, SearchFailed, SearchCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []SearchStatus{SearchPending, SearchRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestBundleDates(t *testing.T) {
	b := Bundle{StartDate: date(2025, 9, 10), EndDate: date(2025, 9, 12)}
	dates := b.Dates()
	if len(dates) != 3 {
		t.Fatalf("got %d dates, want 3", len(dates))
	}
	for i, want := range []string{"2025-09-10", "2025-09-11", "2025-09-12"} {
		if got := dates[i].Format(DateLayout); got != want {
			t.Errorf("dates[%d] = %s, want %s", i, got, want)
		}
	}
}
