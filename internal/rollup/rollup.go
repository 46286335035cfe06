package rollup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/klarsyn/viewstat/internal/bucket"
	"github.com/klarsyn/viewstat/internal/pages"
	"github.com/klarsyn/viewstat/internal/store"
)

// Period selects the query window for a time series.
type Period string

const (
	Period24h   Period = "24h"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod maps a query parameter to a Period, defaulting to 24h.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return Period(s)
	default:
		return Period24h
	}
}

// Point is one labelled bucket in a time series.
type Point struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// Snapshot is the totals view for a single page.
type Snapshot struct {
	Page          pages.Page `json:"pageId"`
	Label         string     `json:"label"`
	TotalViews    int64      `json:"totalViews"`
	TotalVisitors int64      `json:"totalVisitors"`
	TodayVisitors int64      `json:"todayVisitors"`
}

// Reader is the read path: it reconstructs time series and totals from the
// raw counters at query time. Nothing is cached; monthly figures are always
// recomputed by summing the daily counters of each month.
type Reader struct {
	store store.Store
}

// New creates a Reader over s. A nil store means tracking is not configured.
func New(s store.Store) *Reader {
	return &Reader{store: s}
}

// Enabled reports whether a store is configured.
func (r *Reader) Enabled() bool {
	return r.store != nil
}

// Snapshot returns all-time views, all-time distinct visitors and today's
// capped visitor count for a page.
func (r *Reader) Snapshot(ctx context.Context, page pages.Page, now time.Time) (Snapshot, error) {
	out := Snapshot{Page: page, Label: page.Label()}
	total, err := r.readCount(ctx, bucket.Total(page).String())
	if err != nil {
		return out, err
	}
	visitors, err := r.readCount(ctx, bucket.TotalVisitors(page).String())
	if err != nil {
		return out, err
	}
	today, err := r.readList(ctx, bucket.VisitorSet(page, now).String())
	if err != nil {
		return out, err
	}
	out.TotalViews = total
	out.TotalVisitors = visitors
	out.TodayVisitors = int64(len(today))
	return out, nil
}

// Timeseries returns the view counts for the period, bucketed at the
// period's fixed granularity: 24h is 24 hourly points, week/month are 7/30
// daily points, year/all are 12/24 monthly points. Points are ordered
// ascending and end at the bucket containing now.
func (r *Reader) Timeseries(ctx context.Context, page pages.Page, period Period, now time.Time) ([]Point, error) {
	switch period {
	case PeriodWeek:
		return r.dailySeries(ctx, page, now, 7)
	case PeriodMonth:
		return r.dailySeries(ctx, page, now, 30)
	case PeriodYear:
		return r.monthlySeries(ctx, page, now, 12)
	case PeriodAll:
		return r.monthlySeries(ctx, page, now, 24)
	default:
		return r.hourlySeries(ctx, page, now)
	}
}

// VisitorsTimeseries mirrors Timeseries but reports capped visitor counts.
// Daily points are the length of each day's visitor set. Monthly points
// dedup across the month by taking the union of the daily sets; a visitor
// seen on two days counts twice because the hash itself changes daily.
// Hourly points are zero except the last bucket, which carries today's
// total capped count: per-hour visitor sets are not stored, and this
// approximation is part of the dashboard contract.
func (r *Reader) VisitorsTimeseries(ctx context.Context, page pages.Page, period Period, now time.Time) ([]Point, error) {
	switch period {
	case PeriodWeek:
		return r.dailyVisitors(ctx, page, now, 7)
	case PeriodMonth:
		return r.dailyVisitors(ctx, page, now, 30)
	case PeriodYear:
		return r.monthlyVisitors(ctx, page, now, 12)
	case PeriodAll:
		return r.monthlyVisitors(ctx, page, now, 24)
	default:
		return r.hourlyVisitors(ctx, page, now)
	}
}

func (r *Reader) hourlySeries(ctx context.Context, page pages.Page, now time.Time) ([]Point, error) {
	points := make([]Point, 0, 24)
	for i := 23; i >= 0; i-- {
		t := now.Add(-time.Duration(i) * time.Hour)
		n, err := r.readCount(ctx, bucket.Hourly(page, t).String())
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Label: hourLabel(t), Value: n})
	}
	return points, nil
}

func (r *Reader) dailySeries(ctx context.Context, page pages.Page, now time.Time, days int) ([]Point, error) {
	points := make([]Point, 0, days)
	for i := days - 1; i >= 0; i-- {
		t := now.AddDate(0, 0, -i)
		n, err := r.readCount(ctx, bucket.Daily(page, t).String())
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Label: dayLabel(t), Value: n})
	}
	return points, nil
}

func (r *Reader) monthlySeries(ctx context.Context, page pages.Page, now time.Time, months int) ([]Point, error) {
	points := make([]Point, 0, months)
	base := monthStart(now)
	for i := months - 1; i >= 0; i-- {
		m := base.AddDate(0, -i, 0)
		var total int64
		for _, day := range dayStamps(m) {
			n, err := r.readCount(ctx, bucket.DailyOn(page, day).String())
			if err != nil {
				return nil, err
			}
			total += n
		}
		points = append(points, Point{Label: monthLabel(m), Value: total})
	}
	return points, nil
}

func (r *Reader) hourlyVisitors(ctx context.Context, page pages.Page, now time.Time) ([]Point, error) {
	today, err := r.readList(ctx, bucket.VisitorSet(page, now).String())
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, 24)
	for i := 23; i >= 0; i-- {
		t := now.Add(-time.Duration(i) * time.Hour)
		var n int64
		if i == 0 {
			n = int64(len(today))
		}
		points = append(points, Point{Label: hourLabel(t), Value: n})
	}
	return points, nil
}

func (r *Reader) dailyVisitors(ctx context.Context, page pages.Page, now time.Time, days int) ([]Point, error) {
	points := make([]Point, 0, days)
	for i := days - 1; i >= 0; i-- {
		t := now.AddDate(0, 0, -i)
		list, err := r.readList(ctx, bucket.VisitorSet(page, t).String())
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Label: dayLabel(t), Value: int64(len(list))})
	}
	return points, nil
}

func (r *Reader) monthlyVisitors(ctx context.Context, page pages.Page, now time.Time, months int) ([]Point, error) {
	points := make([]Point, 0, months)
	base := monthStart(now)
	for i := months - 1; i >= 0; i-- {
		m := base.AddDate(0, -i, 0)
		union := make(map[string]struct{})
		for _, day := range dayStamps(m) {
			list, err := r.readList(ctx, bucket.VisitorSetOn(page, day).String())
			if err != nil {
				return nil, err
			}
			for _, h := range list {
				union[h] = struct{}{}
			}
		}
		points = append(points, Point{Label: monthLabel(m), Value: int64(len(union))})
	}
	return points, nil
}

func (r *Reader) readCount(ctx context.Context, key string) (int64, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		slog.Warn("unparsable counter value", "key", key, "value", raw)
		return 0, nil
	}
	return n, nil
}

func (r *Reader) readList(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		slog.Warn("unparsable visitor set", "key", key)
		return nil, nil
	}
	return list, nil
}

// monthStart returns the first instant of the UTC month containing t.
func monthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// dayStamps lists the day buckets of the month starting at m.
func dayStamps(m time.Time) []string {
	last := m.AddDate(0, 1, -1).Day()
	out := make([]string, 0, last)
	for d := 1; d <= last; d++ {
		out = append(out, fmt.Sprintf("%04d-%02d-%02d", m.Year(), int(m.Month()), d))
	}
	return out
}

// Norwegian short month names for display labels.
var monthNames = [...]string{
	"jan", "feb", "mar", "apr", "mai", "jun",
	"jul", "aug", "sep", "okt", "nov", "des",
}

func hourLabel(t time.Time) string {
	return t.UTC().Format("15") + ":00"
}

func dayLabel(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%d. %s", u.Day(), monthNames[int(u.Month())-1])
}

func monthLabel(m time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[int(m.Month())-1], m.Year())
}
