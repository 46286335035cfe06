package bucket

import (
	"time"

	"github.com/klarsyn/viewstat/internal/pages"
)

// Kind is the storage namespace a key belongs to. Distinct kinds render with
// distinct prefixes, so no two (page, bucket, kind) triples ever collide.
type Kind int

const (
	KindTotal Kind = iota
	KindHourly
	KindDaily
	KindVisitorSet
	KindTotalVisitors
)

// Key is a typed descriptor for one stored value. It is rendered to the
// store-specific key string only at the adapter boundary, keeping the scheme
// independent of the backing store.
type Key struct {
	Kind   Kind
	Page   pages.Page
	Bucket string // hour or day stamp; empty for all-time kinds
}

// Total is the all-time view counter for a page. Never time-boxed.
func Total(p pages.Page) Key {
	return Key{Kind: KindTotal, Page: p}
}

// Hourly is the view counter for the UTC hour containing t.
func Hourly(p pages.Page, t time.Time) Key {
	return Key{Kind: KindHourly, Page: p, Bucket: HourStamp(t)}
}

// Daily is the view counter for the UTC calendar day containing t.
func Daily(p pages.Page, t time.Time) Key {
	return Key{Kind: KindDaily, Page: p, Bucket: DayStamp(t)}
}

// DailyOn is the view counter for an explicit day stamp.
func DailyOn(p pages.Page, day string) Key {
	return Key{Kind: KindDaily, Page: p, Bucket: day}
}

// VisitorSet is the capped list of visitor hashes for the UTC day containing t.
func VisitorSet(p pages.Page, t time.Time) Key {
	return Key{Kind: KindVisitorSet, Page: p, Bucket: DayStamp(t)}
}

// VisitorSetOn is the visitor set for an explicit day stamp.
func VisitorSetOn(p pages.Page, day string) Key {
	return Key{Kind: KindVisitorSet, Page: p, Bucket: day}
}

// TotalVisitors is the all-time distinct-visitor counter for a page.
func TotalVisitors(p pages.Page) Key {
	return Key{Kind: KindTotalVisitors, Page: p}
}

// String renders the descriptor to the persisted key contract. Other tooling
// depends on these exact shapes; do not change them without a migration.
func (k Key) String() string {
	switch k.Kind {
	case KindTotal:
		return "pageviews_" + k.Page.LegacyName()
	case KindHourly:
		return "pageviews:" + string(k.Page) + ":" + k.Bucket
	case KindDaily:
		return "pageviews_daily:" + string(k.Page) + ":" + k.Bucket
	case KindVisitorSet:
		return "visitors:" + string(k.Page) + ":" + k.Bucket
	case KindTotalVisitors:
		return "visitors_total:" + string(k.Page)
	}
	return ""
}

// HourStamp formats t as the UTC hour bucket YYYY-MM-DD-HH.
func HourStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02-15")
}

// DayStamp formats t as the UTC day bucket YYYY-MM-DD.
func DayStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
