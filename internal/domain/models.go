package domain

import (
	"time"
)

// CarbEntry is a single timestamped amount of carbohydrates in grams.
// Entries are never updated in place; ID is assigned by the store on insert.
type CarbEntry struct {
	ID        string
	Timestamp time.Time
	Value     float64
}

// DayGroup holds all entries sharing one calendar day.
// Entries point at the records returned by the store so deletes address them by ID.
type DayGroup struct {
	Day     time.Time
	Entries []*CarbEntry
}

// Total sums the values of all entries in the group
func (g *DayGroup) Total() float64 {
	var total float64
	for _, e := range g.Entries {
		total += e.Value
	}
	return total
}

// DayTotal is one point of a daily series
type DayTotal struct {
	Date  time.Time
	Total float64
}

// WeekAverage is the average daily total of one calendar week
type WeekAverage struct {
	WeekStart time.Time
	Average   float64
}

// Statistics is a consistent snapshot of every aggregate derived from one entry list.
type Statistics struct {
	Daily         []DayTotal
	Weekly        []WeekAverage
	WeeklyAverage float64
	MonthlyTotal  float64
	LowestDay     *DayTotal
	HighestDay    *DayTotal
}

// DisplayClass classifies today's total against the thresholds.
type DisplayClass string

const (
	ClassNormal  DisplayClass = "normal"
	ClassCaution DisplayClass = "caution"
	ClassWarning DisplayClass = "warning"
)

// Default threshold values
const (
	DefaultCautionLimit = 15.0
	DefaultWarnLimit    = 20.0
)

// Thresholds are the two independently toggleable daily limits.
type Thresholds struct {
	CautionLimit   float64
	CautionEnabled bool
	WarnLimit      float64
	WarnEnabled    bool
}

// DefaultThresholds returns the factory settings: caution 15g, warn 20g, both enabled.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CautionLimit:   DefaultCautionLimit,
		CautionEnabled: true,
		WarnLimit:      DefaultWarnLimit,
		WarnEnabled:    true,
	}
}

// Settings is everything a user can change on the settings surface.
type Settings struct {
	Thresholds      Thresholds
	LookupEnabled   bool
	LookupAPIKey    string
	QuickAddEnabled bool

	// ServerKey is set on load when the operator configured a shared key.
	// It is never persisted.
	ServerKey bool
}

// DefaultSettings returns the settings of a fresh install
func DefaultSettings() Settings {
	return Settings{
		Thresholds: DefaultThresholds(),
	}
}

// LookupActive reports whether food lookup can be used.
// Enabling lookup without any API key has no effect.
func (s Settings) LookupActive() bool {
	return s.LookupEnabled && (s.LookupAPIKey != "" || s.ServerKey)
}

// QuickAddPresets are the fixed one-tap amounts in grams.
var QuickAddPresets = []float64{0.1, 0.5, 1, 4, 6, 10}

// FoodCandidate is one search result of a food composition lookup.
type FoodCandidate struct {
	ID                 int
	Name               string
	CarbsPer100g       float64
	StillLoadingDetail bool
}

// ChangeKind describes a write to the entry store
type ChangeKind string

const (
	ChangeInserted ChangeKind = "inserted"
	ChangeDeleted  ChangeKind = "deleted"
)

// Change is published after every successful write.
type Change struct {
	Kind    ChangeKind
	Owner   int64
	EntryID string
	At      time.Time
}
