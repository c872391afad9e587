package carbs

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func at(loc *time.Location, y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

func entry(id string, ts time.Time, v float64) *domain.CarbEntry {
	return &domain.CarbEntry{ID: id, Timestamp: ts, Value: v}
}

func values(entries []*domain.CarbEntry) []float64 {
	out := make([]float64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out
}

func TestTotalForDay(t *testing.T) {
	loc := berlin(t)
	entries := []*domain.CarbEntry{
		entry("a", at(loc, 2025, 7, 16, 0, 0), 2),
		entry("b", at(loc, 2025, 7, 16, 23, 59), 3.5),
		entry("c", at(loc, 2025, 7, 15, 23, 59), 100),
		entry("d", at(loc, 2025, 7, 17, 0, 0), 100),
	}

	assert.Equal(t, 5.5, TotalForDay(entries, at(loc, 2025, 7, 16, 12, 0)))
	assert.Equal(t, 0.0, TotalForDay(nil, at(loc, 2025, 7, 16, 12, 0)))
	assert.Equal(t, 5.5, TotalForToday(entries, at(loc, 2025, 7, 16, 8, 30)))
}

func TestTotalForDayUsesCalendarOfDay(t *testing.T) {
	loc := berlin(t)
	// 23:30 UTC on the 15th is already the 16th in Berlin.
	e := entry("a", time.Date(2025, 7, 15, 23, 30, 0, 0, time.UTC), 4)

	assert.Equal(t, 4.0, TotalForDay([]*domain.CarbEntry{e}, at(loc, 2025, 7, 16, 10, 0)))
	assert.Equal(t, 0.0, TotalForDay([]*domain.CarbEntry{e}, at(loc, 2025, 7, 15, 10, 0)))
}

func TestEndToEndDayTotal(t *testing.T) {
	loc := berlin(t)
	day := at(loc, 2025, 7, 16, 0, 0)
	entries := []*domain.CarbEntry{
		entry("a", day.Add(8*time.Hour), 1.0),
		entry("b", day.Add(12*time.Hour), 9.1),
		entry("c", day.Add(18*time.Hour), 6.0),
	}

	total := TotalForDay(entries, day)
	assert.InDelta(t, 16.1, total, 1e-9)
	assert.Equal(t, "16.1g", FormatGrams(total, language.English))
	assert.Equal(t, domain.ClassNormal, Evaluate(total, domain.Thresholds{WarnLimit: 20, WarnEnabled: true}).Class)
}

func TestGroupByDayOrder(t *testing.T) {
	loc := berlin(t)
	entries := []*domain.CarbEntry{
		entry("a", at(loc, 2025, 7, 16, 9, 0), 5),
		entry("b", at(loc, 2025, 7, 16, 20, 0), 10),
		entry("c", at(loc, 2025, 7, 15, 19, 0), 8),
		entry("d", at(loc, 2025, 7, 15, 8, 0), 6),
	}

	groups := GroupByDay(entries, loc)
	require.Len(t, groups, 2)

	assert.Equal(t, at(loc, 2025, 7, 16, 0, 0), groups[0].Day)
	assert.Equal(t, []float64{10, 5}, values(groups[0].Entries))
	assert.Equal(t, at(loc, 2025, 7, 15, 0, 0), groups[1].Day)
	assert.Equal(t, []float64{8, 6}, values(groups[1].Entries))
	assert.Equal(t, 14.0, groups[1].Total())
}

func TestGroupByDayPartition(t *testing.T) {
	loc := berlin(t)
	base := at(loc, 2025, 7, 1, 6, 0)
	var entries []*domain.CarbEntry
	for i := 0; i < 50; i++ {
		ts := base.Add(time.Duration(i*7) * time.Hour)
		entries = append(entries, entry(string(rune('A'+i)), ts, float64(i)))
	}
	// same instant twice must keep both records
	entries = append(entries, entry("dup1", base, 1), entry("dup2", base, 1))

	groups := GroupByDay(entries, loc)

	seen := make(map[*domain.CarbEntry]int)
	count := 0
	for _, g := range groups {
		for _, e := range g.Entries {
			seen[e]++
			count++
			assert.Equal(t, g.Day, StartOfDay(e.Timestamp.In(loc)))
		}
	}
	assert.Equal(t, len(entries), count)
	for _, e := range entries {
		assert.Equal(t, 1, seen[e], "entry %s", e.ID)
	}
	for i := 1; i < len(groups); i++ {
		assert.True(t, groups[i-1].Day.After(groups[i].Day))
	}
}

func TestGroupByDayKeepsReferences(t *testing.T) {
	loc := berlin(t)
	e := entry("a", at(loc, 2025, 7, 16, 9, 0), 5)

	groups := GroupByDay([]*domain.CarbEntry{e}, loc)
	require.Len(t, groups, 1)
	assert.Same(t, e, groups[0].Entries[0])
}

func TestGroupByDayAcrossDST(t *testing.T) {
	loc := berlin(t)
	// clocks jump from 02:00 to 03:00 on 2025-03-30
	entries := []*domain.CarbEntry{
		entry("a", at(loc, 2025, 3, 30, 0, 30), 1),
		entry("b", at(loc, 2025, 3, 30, 23, 30), 2),
		entry("c", at(loc, 2025, 3, 31, 0, 15), 4),
	}

	groups := GroupByDay(entries, loc)
	require.Len(t, groups, 2)
	assert.Equal(t, 4.0, groups[0].Total())
	assert.Equal(t, 3.0, groups[1].Total())
}

func TestDailySeries(t *testing.T) {
	loc := berlin(t)
	now := at(loc, 2025, 7, 16, 12, 0)
	entries := []*domain.CarbEntry{
		entry("today", at(loc, 2025, 7, 16, 8, 0), 3),
		entry("yesterday", at(loc, 2025, 7, 15, 21, 0), 2),
		entry("first", at(loc, 2025, 6, 17, 7, 0), 1),
		entry("outside", at(loc, 2025, 6, 16, 23, 0), 50),
	}

	series := DailySeries(entries, now, DefaultWindowDays)
	require.Len(t, series, DefaultWindowDays)

	assert.Equal(t, at(loc, 2025, 6, 17, 0, 0), series[0].Date)
	assert.Equal(t, 1.0, series[0].Total)
	assert.Equal(t, at(loc, 2025, 7, 16, 0, 0), series[29].Date)
	assert.Equal(t, 3.0, series[29].Total)
	assert.Equal(t, 2.0, series[28].Total)

	var sum float64
	for i, d := range series {
		sum += d.Total
		if i > 0 {
			assert.True(t, d.Date.After(series[i-1].Date))
		}
	}
	assert.Equal(t, 6.0, sum)
}

func TestDailySeriesEmpty(t *testing.T) {
	loc := berlin(t)
	series := DailySeries(nil, at(loc, 2025, 7, 16, 12, 0), 7)
	require.Len(t, series, 7)
	for _, d := range series {
		assert.Zero(t, d.Total)
	}
	assert.Nil(t, DailySeries(nil, at(loc, 2025, 7, 16, 12, 0), 0))
}

func TestDailySeriesAcrossDST(t *testing.T) {
	loc := berlin(t)
	now := at(loc, 2025, 4, 2, 12, 0)
	entries := []*domain.CarbEntry{
		entry("late", at(loc, 2025, 3, 30, 23, 30), 5),
	}

	series := DailySeries(entries, now, 5)
	want := []domain.DayTotal{
		{Date: at(loc, 2025, 3, 29, 0, 0)},
		{Date: at(loc, 2025, 3, 30, 0, 0), Total: 5},
		{Date: at(loc, 2025, 3, 31, 0, 0)},
		{Date: at(loc, 2025, 4, 1, 0, 0)},
		{Date: at(loc, 2025, 4, 2, 0, 0)},
	}
	if diff := cmp.Diff(want, series); diff != "" {
		t.Errorf("DailySeries mismatch (-want +got):\n%s", diff)
	}
}

func TestWeeklySeries(t *testing.T) {
	loc := berlin(t)
	// 2025-07-16 is a Wednesday
	now := at(loc, 2025, 7, 16, 12, 0)
	entries := []*domain.CarbEntry{
		entry("a", at(loc, 2025, 7, 8, 12, 0), 14),
		entry("b", at(loc, 2025, 7, 15, 12, 0), 9),
	}
	daily := DailySeries(entries, now, 10)

	monday := WeeklySeries(daily, time.Monday)
	require.Len(t, monday, 2)
	assert.Equal(t, at(loc, 2025, 7, 7, 0, 0), monday[0].WeekStart)
	assert.InDelta(t, 2.0, monday[0].Average, 1e-9)
	assert.Equal(t, at(loc, 2025, 7, 14, 0, 0), monday[1].WeekStart)
	assert.InDelta(t, 3.0, monday[1].Average, 1e-9)

	sunday := WeeklySeries(daily, time.Sunday)
	require.Len(t, sunday, 2)
	assert.Equal(t, at(loc, 2025, 7, 6, 0, 0), sunday[0].WeekStart)
	assert.InDelta(t, 14.0/6, sunday[0].Average, 1e-9)
	assert.Equal(t, at(loc, 2025, 7, 13, 0, 0), sunday[1].WeekStart)
	assert.InDelta(t, 9.0/4, sunday[1].Average, 1e-9)
}

func TestWeekStart(t *testing.T) {
	loc := berlin(t)
	sunday := at(loc, 2025, 7, 20, 18, 0)
	assert.Equal(t, at(loc, 2025, 7, 14, 0, 0), WeekStart(sunday, time.Monday))
	assert.Equal(t, at(loc, 2025, 7, 20, 0, 0), WeekStart(sunday, time.Sunday))
}

func TestWeeklyAverageDividesBySeven(t *testing.T) {
	loc := berlin(t)
	now := at(loc, 2025, 7, 16, 20, 0)
	entries := []*domain.CarbEntry{
		entry("a", at(loc, 2025, 7, 16, 8, 0), 25),
		entry("b", at(loc, 2025, 7, 16, 13, 0), 15),
	}

	assert.InDelta(t, 40.0/7.0, WeeklyAverage(entries, now), 1e-9)
	assert.InDelta(t, 5.714, WeeklyAverage(entries, now), 1e-3)
}

func TestWeeklyAverageWindow(t *testing.T) {
	loc := berlin(t)
	now := at(loc, 2025, 7, 16, 20, 0)
	entries := []*domain.CarbEntry{
		entry("edge", at(loc, 2025, 7, 10, 0, 0), 7),
		entry("before", at(loc, 2025, 7, 9, 23, 59), 70),
		entry("later today", at(loc, 2025, 7, 16, 23, 0), 7),
	}

	assert.InDelta(t, 2.0, WeeklyAverage(entries, now), 1e-9)
	assert.Zero(t, WeeklyAverage(nil, now))
}

func TestMonthlyTotal(t *testing.T) {
	loc := berlin(t)
	now := at(loc, 2025, 7, 16, 12, 0)
	entries := []*domain.CarbEntry{
		entry("june", at(loc, 2025, 6, 30, 23, 59), 100),
		entry("first", at(loc, 2025, 7, 1, 0, 0), 4),
		entry("mid", at(loc, 2025, 7, 10, 9, 0), 6),
		entry("future", at(loc, 2025, 7, 16, 13, 0), 100),
	}

	assert.Equal(t, 10.0, MonthlyTotal(entries, now))
}

func TestLowestAndHighestDay(t *testing.T) {
	loc := berlin(t)
	day := func(d int, total float64) domain.DayTotal {
		return domain.DayTotal{Date: at(loc, 2025, 7, d, 0, 0), Total: total}
	}
	daily := []domain.DayTotal{day(1, 0), day(2, 5), day(3, 3), day(4, 3), day(5, 7), day(6, 7)}

	lowest := LowestDay(daily)
	require.NotNil(t, lowest)
	assert.Equal(t, day(3, 3), *lowest)

	highest := HighestDay(daily)
	require.NotNil(t, highest)
	assert.Equal(t, day(5, 7), *highest)
}

func TestLowestAndHighestDayWithoutData(t *testing.T) {
	loc := berlin(t)
	daily := DailySeries(nil, at(loc, 2025, 7, 16, 12, 0), DefaultWindowDays)

	assert.Nil(t, LowestDay(daily))
	assert.Nil(t, HighestDay(daily))
	assert.Nil(t, LowestDay(nil))
	assert.Nil(t, HighestDay(nil))
}

func TestStatisticsSnapshot(t *testing.T) {
	loc := berlin(t)
	now := at(loc, 2025, 7, 16, 12, 0)
	entries := []*domain.CarbEntry{
		entry("a", at(loc, 2025, 7, 16, 8, 0), 6),
		entry("b", at(loc, 2025, 7, 14, 8, 0), 2),
		entry("c", at(loc, 2025, 7, 1, 8, 0), 1),
	}

	stats := Statistics(entries, now, time.Monday)

	assert.Len(t, stats.Daily, DefaultWindowDays)
	assert.NotEmpty(t, stats.Weekly)
	assert.InDelta(t, 8.0/7, stats.WeeklyAverage, 1e-9)
	assert.Equal(t, 9.0, stats.MonthlyTotal)
	require.NotNil(t, stats.LowestDay)
	assert.Equal(t, 1.0, stats.LowestDay.Total)
	require.NotNil(t, stats.HighestDay)
	assert.Equal(t, 6.0, stats.HighestDay.Total)
}
