package track

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/klarsyn/viewstat/internal/bucket"
	"github.com/klarsyn/viewstat/internal/pages"
	"github.com/klarsyn/viewstat/internal/store"
	"github.com/klarsyn/viewstat/internal/visitor"
)

// DefaultVisitorSetCap bounds the per-day visitor hash list. Beyond the cap
// new distinct visitors are still counted, just not enumerated.
const DefaultVisitorSetCap = 10000

// DefaultRetention is how long hourly/daily counters and visitor sets are
// kept. All-time counters never expire.
const DefaultRetention = 400 * 24 * time.Hour

// Summary reports the outcome of one recorded view.
type Summary struct {
	Page       pages.Page `json:"pageId"`
	TotalViews int64      `json:"views"`
	NewVisitor bool       `json:"isNewVisitor"`
}

// Options configures a Tracker. Zero values select the defaults above.
type Options struct {
	VisitorSetCap int
	Retention     time.Duration
}

// Tracker is the write path: it owns every counter and visitor-set key in
// the store and is the only component that mutates them. All updates are
// independent single-key get-then-put operations with no cross-key
// atomicity; partial writes can persist if a request dies mid-sequence,
// which is acceptable for advisory analytics data.
type Tracker struct {
	store     store.Store
	cap       int
	retention time.Duration
}

// New creates a Tracker over s. A nil store means tracking is not
// configured; every RecordView then degrades to a no-op.
func New(s store.Store, opts Options) *Tracker {
	if opts.VisitorSetCap <= 0 {
		opts.VisitorSetCap = DefaultVisitorSetCap
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	return &Tracker{store: s, cap: opts.VisitorSetCap, retention: opts.Retention}
}

// Enabled reports whether a store is configured.
func (t *Tracker) Enabled() bool {
	return t.store != nil
}

// RecordView records one page load at time now from the given client
// address. Unknown page identifiers fall back to the default page. Up to
// five store reads and five writes are issued; the first store error aborts
// the remaining sequence and is returned for logging, with whatever writes
// already landed left in place.
func (t *Tracker) RecordView(ctx context.Context, pageID, addr string, now time.Time) (Summary, error) {
	page := pages.Normalize(pageID)
	sum := Summary{Page: page}
	if t.store == nil {
		return sum, nil
	}

	day := bucket.DayStamp(now)
	hash := visitor.Hash(addr, day)

	total, err := t.increment(ctx, bucket.Total(page), 0)
	if err != nil {
		return sum, err
	}
	sum.TotalViews = total

	if _, err := t.increment(ctx, bucket.Hourly(page, now), t.retention); err != nil {
		return sum, err
	}
	if _, err := t.increment(ctx, bucket.Daily(page, now), t.retention); err != nil {
		return sum, err
	}

	newVisitor, err := t.recordVisitor(ctx, page, now, hash)
	if err != nil {
		return sum, err
	}
	sum.NewVisitor = newVisitor
	return sum, nil
}

// increment reads the counter at k, treating absent or unparsable values as
// zero, and writes back value+1. The expiry is re-applied on every write so
// active buckets keep sliding their retention window forward.
func (t *Tracker) increment(ctx context.Context, k bucket.Key, ttl time.Duration) (int64, error) {
	key := k.String()
	n, err := t.readCount(ctx, key)
	if err != nil {
		return 0, err
	}
	n++
	if err := t.store.Put(ctx, key, strconv.FormatInt(n, 10), ttl); err != nil {
		return 0, err
	}
	return n, nil
}

// recordVisitor applies the two-structure visitor design: a capped hash list
// as the enumerable sample, and an unbounded counter as the exact count. The
// counter increments for every distinct daily hash even when the list is
// full, so it never undercounts past the cap.
func (t *Tracker) recordVisitor(ctx context.Context, page pages.Page, now time.Time, hash string) (bool, error) {
	setKey := bucket.VisitorSet(page, now).String()
	list, err := t.readList(ctx, setKey)
	if err != nil {
		return false, err
	}
	for _, h := range list {
		if h == hash {
			return false, nil
		}
	}

	if len(list) < t.cap {
		list = append(list, hash)
		buf, err := json.Marshal(list)
		if err != nil {
			return false, err
		}
		if err := t.store.Put(ctx, setKey, string(buf), t.retention); err != nil {
			// The exact counter below still advances when the sample write
			// fails; the set is the enumerable sample, not the count.
			slog.Warn("visitor set write failed", "key", setKey, "error", err)
		}
	}

	if _, err := t.increment(ctx, bucket.TotalVisitors(page), 0); err != nil {
		return true, err
	}
	return true, nil
}

func (t *Tracker) readCount(ctx context.Context, key string) (int64, error) {
	raw, ok, err := t.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// A mangled counter restarts from zero rather than failing the view.
		slog.Warn("unparsable counter value", "key", key, "value", raw)
		return 0, nil
	}
	return n, nil
}

func (t *Tracker) readList(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := t.store.Get(ctx, key)
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
