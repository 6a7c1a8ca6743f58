// Package analytics holds the calendar arithmetic behind the dashboard
// revenue series. Every function works in UTC.
package analytics

import (
	"math"
	"sort"
	"time"
)

// Granularity names the width of a revenue bucket
type Granularity string

const (
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// Dashboard series lengths
const (
	WeeksInSeries = 7
	YearsInSeries = 5
)

// Series returns the dashboard buckets for a granularity: the months of the
// current year, the trailing weeks, or the trailing years
func Series(g Granularity, now time.Time) []Bucket {
	switch g {
	case Month:
		return MonthsOfYear(now)
	case Week:
		return TrailingWeeks(now, WeeksInSeries)
	case Year:
		return TrailingYears(now, YearsInSeries)
	default:
		return []Bucket{}
	}
}

// Bucket is the half-open interval [Start, End)
type Bucket struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in [Start, End)
func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// StartOfDay truncates t to UTC midnight
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns the Monday 00:00 UTC of the ISO week containing t
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// MonthsOfYear returns the twelve calendar months of the year containing now
func MonthsOfYear(now time.Time) []Bucket {
	start := StartOfYear(now)
	buckets := make([]Bucket, 12)
	for i := range buckets {
		from := start.AddDate(0, i, 0)
		buckets[i] = Bucket{Start: from, End: from.AddDate(0, 1, 0)}
	}
	return buckets
}

// TrailingWeeks returns n Monday-aligned weeks, oldest first, the last one
// being the week containing now
func TrailingWeeks(now time.Time, n int) []Bucket {
	return trailing(StartOfWeek(now), n, func(t time.Time, k int) time.Time { return t.AddDate(0, 0, 7*k) })
}

// TrailingYears returns n calendar years, oldest first, ending with the
// year containing now
func TrailingYears(now time.Time, n int) []Bucket {
	return trailing(StartOfYear(now), n, func(t time.Time, k int) time.Time { return t.AddDate(k, 0, 0) })
}

func trailing(current time.Time, n int, step func(time.Time, int) time.Time) []Bucket {
	if n <= 0 {
		return []Bucket{}
	}
	buckets := make([]Bucket, n)
	for i := range buckets {
		from := step(current, i-(n-1))
		buckets[i] = Bucket{Start: from, End: step(from, 1)}
	}
	return buckets
}

// Locate returns the index of the bucket containing t, or -1. buckets must
// be contiguous and ordered oldest first.
func Locate(buckets []Bucket, t time.Time) int {
	i := sort.Search(len(buckets), func(i int) bool { return t.Before(buckets[i].End) })
	if i < len(buckets) && buckets[i].Contains(t) {
		return i
	}
	return -1
}

// InTrailingWindow reports whether now-window <= t <= now
func InTrailingWindow(t, now time.Time, window time.Duration) bool {
	return !t.Before(now.Add(-window)) && !t.After(now)
}

// Round rounds half away from zero to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
