package timeseries

import (
	"sort"
	"time"
)

// Point is a single timestamped reading. Value is nil when the source field
// was empty or unparseable; an absent reading is never the same as zero.
type Point struct {
	Timestamp time.Time
	Value     *float64
}

// Float returns a pointer to v, for building Points from literals.
func Float(v float64) *float64 { return &v }

// Series is a sequence of points for one physical quantity. Insertion order
// is whatever the source produced; callers that need temporal order must
// call SortByTime before merging.
type Series []Point

// SortByTime orders the series by timestamp ascending (stable).
func (s Series) SortByTime() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// ByTimestamp indexes the series by exact timestamp. Later points win when a
// timestamp repeats.
func (s Series) ByTimestamp() map[time.Time]*float64 {
	m := make(map[time.Time]*float64, len(s))
	for _, p := range s {
		m[p.Timestamp] = p.Value
	}
	return m
}

// HourKey identifies one calibration bucket: a calendar date plus an hour of
// day. Both the measured and the modeled series are aggregated to this
// granularity before scale factors are computed.
type HourKey struct {
	Date string // "2006-01-02"
	Hour int    // 0..23
}

// HourKeyOf buckets a timestamp.
func HourKeyOf(t time.Time) HourKey {
	return HourKey{Date: t.Format("2006-01-02"), Hour: t.Hour()}
}

// DayKeyOf returns the calendar-date key for a timestamp.
func DayKeyOf(t time.Time) string { return t.Format("2006-01-02") }
