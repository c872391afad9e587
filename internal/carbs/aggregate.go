package carbs

import (
	"sort"
	"time"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

// DefaultWindowDays is the length of the daily series shown in statistics
const DefaultWindowDays = 30

// daysPerWeek is the fixed divisor of the weekly average
const daysPerWeek = 7

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// StartOfDay returns local midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// addDays moves by calendar days, so DST transitions keep the result at midnight.
func addDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, day.Location())
}

// TotalForDay sums the entries falling on day's calendar day, evaluated in day's location.
func TotalForDay(entries []*domain.CarbEntry, day time.Time) float64 {
	want := keyOf(day)
	loc := day.Location()

	var total float64
	for _, e := range entries {
		if keyOf(e.Timestamp.In(loc)) == want {
			total += e.Value
		}
	}
	return total
}

// TotalForToday sums the entries of now's calendar day
func TotalForToday(entries []*domain.CarbEntry, now time.Time) float64 {
	return TotalForDay(entries, now)
}

// EntriesForDay returns the entries of day's calendar day in input order.
func EntriesForDay(entries []*domain.CarbEntry, day time.Time) []*domain.CarbEntry {
	want := keyOf(day)
	loc := day.Location()

	var out []*domain.CarbEntry
	for _, e := range entries {
		if keyOf(e.Timestamp.In(loc)) == want {
			out = append(out, e)
		}
	}
	return out
}

// GroupByDay partitions entries by calendar day in loc.
// Groups are ordered newest day first and entries inside a group newest first;
// entries with identical timestamps keep their input order.
func GroupByDay(entries []*domain.CarbEntry, loc *time.Location) []domain.DayGroup {
	index := make(map[dayKey]int)
	var groups []domain.DayGroup

	for _, e := range entries {
		local := e.Timestamp.In(loc)
		k := keyOf(local)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, domain.DayGroup{Day: StartOfDay(local)})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Day.After(groups[j].Day)
	})
	for _, g := range groups {
		entries := g.Entries
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		})
	}
	return groups
}

// DailySeries returns one total per calendar day for the windowDays days ending
// today, oldest first. Days without entries have a zero total.
func DailySeries(entries []*domain.CarbEntry, now time.Time, windowDays int) []domain.DayTotal {
	if windowDays <= 0 {
		return nil
	}
	loc := now.Location()

	totals := make(map[dayKey]float64)
	for _, e := range entries {
		totals[keyOf(e.Timestamp.In(loc))] += e.Value
	}

	today := StartOfDay(now)
	series := make([]domain.DayTotal, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		day := addDays(today, -i)
		series = append(series, domain.DayTotal{Date: day, Total: totals[keyOf(day)]})
	}
	return series
}

// WeekStart returns midnight of the first day of t's calendar week.
func WeekStart(t time.Time, firstWeekday time.Weekday) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) - int(firstWeekday) + daysPerWeek) % daysPerWeek
	return addDays(day, -offset)
}

// WeeklySeries averages the daily totals inside each calendar week, ordered by week start.
// A partially covered week is averaged over the days present in the series.
func WeeklySeries(daily []domain.DayTotal, firstWeekday time.Weekday) []domain.WeekAverage {
	type bucket struct {
		start time.Time
		sum   float64
		n     int
	}
	index := make(map[dayKey]int)
	var buckets []bucket

	for _, d := range daily {
		start := WeekStart(d.Date, firstWeekday)
		k := keyOf(start)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, bucket{start: start})
		}
		buckets[i].sum += d.Total
		buckets[i].n++
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].start.Before(buckets[j].start)
	})

	weekly := make([]domain.WeekAverage, 0, len(buckets))
	for _, b := range buckets {
		weekly = append(weekly, domain.WeekAverage{
			WeekStart: b.start,
			Average:   b.sum / float64(b.n),
		})
	}
	return weekly
}

// WeeklyAverage divides the total of the trailing seven calendar days (today
// included) by seven, however many of those days have entries.
func WeeklyAverage(entries []*domain.CarbEntry, now time.Time) float64 {
	today := StartOfDay(now)
	from := addDays(today, -(daysPerWeek - 1))
	until := addDays(today, 1)

	var total float64
	for _, e := range entries {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(until) {
			total += e.Value
		}
	}
	return total / daysPerWeek
}

// MonthlyTotal sums the entries from the start of now's calendar month through now.
func MonthlyTotal(entries []*domain.CarbEntry, now time.Time) float64 {
	y, m, _ := now.Date()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())

	var total float64
	for _, e := range entries {
		if !e.Timestamp.Before(monthStart) && !e.Timestamp.After(now) {
			total += e.Value
		}
	}
	return total
}

// LowestDay returns the day with the smallest positive total, or nil when no
// day has one. Ties go to the earliest day of the series.
func LowestDay(daily []domain.DayTotal) *domain.DayTotal {
	var lowest *domain.DayTotal
	for i := range daily {
		d := daily[i]
		if d.Total <= 0 {
			continue
		}
		if lowest == nil || d.Total < lowest.Total {
			lowest = &d
		}
	}
	return lowest
}

// HighestDay returns the day with the largest total, or nil when every total
// is zero. Ties go to the earliest day of the series.
func HighestDay(daily []domain.DayTotal) *domain.DayTotal {
	var highest *domain.DayTotal
	for i := range daily {
		d := daily[i]
		if highest == nil || d.Total > highest.Total {
			highest = &d
		}
	}
	if highest == nil || highest.Total <= 0 {
		return nil
	}
	return highest
}

// Statistics derives every aggregate from the same entry snapshot.
func Statistics(entries []*domain.CarbEntry, now time.Time, firstWeekday time.Weekday) domain.Statistics {
	daily := DailySeries(entries, now, DefaultWindowDays)
	return domain.Statistics{
		Daily:         daily,
		Weekly:        WeeklySeries(daily, firstWeekday),
		WeeklyAverage: WeeklyAverage(entries, now),
		MonthlyTotal:  MonthlyTotal(entries, now),
		LowestDay:     LowestDay(daily),
		HighestDay:    HighestDay(daily),
	}
}
