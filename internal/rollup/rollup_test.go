package rollup

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/klarsyn/viewstat/internal/pages"
	"github.com/klarsyn/viewstat/internal/store"
)

var now = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func setupTestReader(t *testing.T) (*miniredis.Miniredis, *Reader) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return s, New(store.NewRedisWithClient(client))
}

func seed(t *testing.T, s *miniredis.Miniredis, key, val string) {
	t.Helper()
	if err := s.Set(key, val); err != nil {
		t.Fatalf("seed %q: %v", key, err)
	}
}

func seedVisitors(t *testing.T, s *miniredis.Miniredis, key string, hashes ...string) {
	t.Helper()
	buf, err := json.Marshal(hashes)
	if err != nil {
		t.Fatalf("marshal visitor set: %v", err)
	}
	seed(t, s, key, string(buf))
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
	}{
		{"24h", Period24h},
		{"week", PeriodWeek},
		{"month", PeriodMonth},
		{"year", PeriodYear},
		{"all", PeriodAll},
		{"", Period24h},
		{"garbage", Period24h},
	}
	for _, tt := range tests {
		if got := ParsePeriod(tt.in); got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimeseries_Empty24Hours(t *testing.T) {
	_, r := setupTestReader(t)

	points, err := r.Timeseries(context.Background(), pages.Home, Period24h, now)
	if err != nil {
		t.Fatalf("Timeseries() error = %v", err)
	}
	if len(points) != 24 {
		t.Fatalf("len(points) = %d, want 24", len(points))
	}
	for i, p := range points {
		if p.Value != 0 {
			t.Errorf("point %d: value = %d, want 0", i, p.Value)
		}
	}
	// Ascending hour labels ending at the current hour.
	if got := points[23].Label; got != "14:00" {
		t.Errorf("last label = %q, want %q", got, "14:00")
	}
	if got := points[22].Label; got != "13:00" {
		t.Errorf("second-to-last label = %q, want %q", got, "13:00")
	}
	if got := points[0].Label; got != "15:00" {
		t.Errorf("first label = %q, want %q", got, "15:00")
	}
}

func TestTimeseries_HourlyValues(t *testing.T) {
	s, r := setupTestReader(t)
	seed(t, s, "pageviews:home:2026-03-10-14", "7")
	seed(t, s, "pageviews:home:2026-03-10-13", "3")

	points, err := r.Timeseries(context.Background(), pages.Home, Period24h, now)
	if err != nil {
		t.Fatalf("Timeseries() error = %v", err)
	}
	if points[23].Value != 7 {
		t.Errorf("current hour value = %d, want 7", points[23].Value)
	}
	if points[22].Value != 3 {
		t.Errorf("previous hour value = %d, want 3", points[22].Value)
	}
}

func TestTimeseries_WeekDaily(t *testing.T) {
	s, r := setupTestReader(t)
	seed(t, s, "pageviews_daily:home:2026-03-10", "5")
	seed(t, s, "pageviews_daily:home:2026-03-09", "2")

	points, err := r.Timeseries(context.Background(), pages.Home, PeriodWeek, now)
	if err != nil {
		t.Fatalf("Timeseries() error = %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("len(points) = %d, want 7", len(points))
	}
	if points[6].Value != 5 || points[5].Value != 2 {
		t.Errorf("last two values = %d, %d, want 2, 5", points[5].Value, points[6].Value)
	}
	if got := points[6].Label; got != "10. mar" {
		t.Errorf("last label = %q, want %q", got, "10. mar")
	}
}

func TestTimeseries_MonthlyEqualsDailySum(t *testing.T) {
	s, r := setupTestReader(t)

	// Seed every day of February 2026 so the rollup has to touch all 28.
	var want int64
	for d := 1; d <= 28; d++ {
		seed(t, s, fmt.Sprintf("pageviews_daily:home:2026-02-%02d", d), fmt.Sprintf("%d", d))
		want += int64(d)
	}

	points, err := r.Timeseries(context.Background(), pages.Home, PeriodYear, now)
	if err != nil {
		t.Fatalf("Timeseries() error = %v", err)
	}
	if len(points) != 12 {
		t.Fatalf("len(points) = %d, want 12", len(points))
	}
	feb := points[10] // months ascending, ending at March 2026
	if feb.Label != "feb 2026" {
		t.Fatalf("month label = %q, want %q", feb.Label, "feb 2026")
	}
	if feb.Value != want {
		t.Errorf("monthly aggregate = %d, want %d (sum of daily counters)", feb.Value, want)
	}
}

func TestTimeseries_AllIs24Months(t *testing.T) {
	_, r := setupTestReader(t)
	points, err := r.Timeseries(context.Background(), pages.Home, PeriodAll, now)
	if err != nil {
		t.Fatalf("Timeseries() error = %v", err)
	}
	if len(points) != 24 {
		t.Fatalf("len(points) = %d, want 24", len(points))
	}
	if got := points[23].Label; got != "mar 2026" {
		t.Errorf("last label = %q, want %q", got, "mar 2026")
	}
	if got := points[0].Label; got != "apr 2024" {
		t.Errorf("first label = %q, want %q", got, "apr 2024")
	}
}

func TestVisitorsTimeseries_Daily(t *testing.T) {
	s, r := setupTestReader(t)
	seedVisitors(t, s, "visitors:home:2026-03-10", "aaa", "bbb", "ccc")
	seedVisitors(t, s, "visitors:home:2026-03-09", "ddd")

	points, err := r.VisitorsTimeseries(context.Background(), pages.Home, PeriodWeek, now)
	if err != nil {
		t.Fatalf("VisitorsTimeseries() error = %v", err)
	}
	if points[6].Value != 3 || points[5].Value != 1 {
		t.Errorf("last two values = %d, %d, want 1, 3", points[5].Value, points[6].Value)
	}
}

func TestVisitorsTimeseries_MonthlyUnion(t *testing.T) {
	s, r := setupTestReader(t)
	// Overlapping hashes across two days dedup within the month.
	seedVisitors(t, s, "visitors:home:2026-02-01", "aaa", "bbb")
	seedVisitors(t, s, "visitors:home:2026-02-02", "bbb", "ccc")

	points, err := r.VisitorsTimeseries(context.Background(), pages.Home, PeriodYear, now)
	if err != nil {
		t.Fatalf("VisitorsTimeseries() error = %v", err)
	}
	feb := points[10]
	if feb.Value != 3 {
		t.Errorf("monthly visitor union = %d, want 3", feb.Value)
	}
}

func TestVisitorsTimeseries_HourlyIsZeroExceptLastBucket(t *testing.T) {
	s, r := setupTestReader(t)
	seedVisitors(t, s, "visitors:home:2026-03-10", "aaa", "bbb", "ccc")

	points, err := r.VisitorsTimeseries(context.Background(), pages.Home, Period24h, now)
	if err != nil {
		t.Fatalf("VisitorsTimeseries() error = %v", err)
	}
	if len(points) != 24 {
		t.Fatalf("len(points) = %d, want 24", len(points))
	}
	for i := 0; i < 23; i++ {
		if points[i].Value != 0 {
			t.Errorf("point %d: value = %d, want 0", i, points[i].Value)
		}
	}
	if points[23].Value != 3 {
		t.Errorf("last point value = %d, want 3 (today's capped count)", points[23].Value)
	}
}

func TestSnapshot(t *testing.T) {
	s, r := setupTestReader(t)
	seed(t, s, "pageviews_forside", "120")
	seed(t, s, "visitors_total:home", "40")
	seedVisitors(t, s, "visitors:home:2026-03-10", "aaa", "bbb")

	snap, err := r.Snapshot(context.Background(), pages.Home, now)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.Page != pages.Home || snap.Label != "Forsiden" {
		t.Errorf("Page/Label = %q/%q, want home/Forsiden", snap.Page, snap.Label)
	}
	if snap.TotalViews != 120 {
		t.Errorf("TotalViews = %d, want 120", snap.TotalViews)
	}
	if snap.TotalVisitors != 40 {
		t.Errorf("TotalVisitors = %d, want 40", snap.TotalVisitors)
	}
	if snap.TodayVisitors != 2 {
		t.Errorf("TodayVisitors = %d, want 2", snap.TodayVisitors)
	}
}

func TestSnapshot_EmptyStore(t *testing.T) {
	_, r := setupTestReader(t)
	snap, err := r.Snapshot(context.Background(), pages.Premortem, now)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.TotalViews != 0 || snap.TotalVisitors != 0 || snap.TodayVisitors != 0 {
		t.Errorf("Snapshot = %+v, want all-zero counts", snap)
	}
}
