package services

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"time"

	"golang.org/x/text/language"

	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	apperrors "github.com/vladimiradmaev/carbclarity/internal/errors"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

// DefaultSeedDays is how far back Seed generates data when days is not positive
const DefaultSeedDays = 35

var seedValues = []float64{0.1, 0.5, 1, 2, 3, 4, 5, 6}

// Calendar fixes the clock and the local calendar aggregations run in.
type Calendar struct {
	Location     *time.Location
	FirstWeekday time.Weekday
	Now          func() time.Time
}

// DefaultCalendar uses the system clock in loc with Monday-based weeks
func DefaultCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{Location: loc, FirstWeekday: time.Monday, Now: time.Now}
}

func (c Calendar) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Dashboard is the "today" view
type Dashboard struct {
	Total      float64
	Evaluation carbs.Evaluation
	Entries    []*domain.CarbEntry
}

// EntryService is the single creation path for carb entries of one owner.
type EntryService struct {
	owner     int64
	repo      domain.EntryRepository
	publisher domain.ChangePublisher
	calendar  Calendar
}

// NewEntryService creates a service for owner. publisher may be nil.
func NewEntryService(owner int64, repo domain.EntryRepository, publisher domain.ChangePublisher, calendar Calendar) *EntryService {
	return &EntryService{
		owner:     owner,
		repo:      repo,
		publisher: publisher,
		calendar:  calendar,
	}
}

func (s *EntryService) publish(kind domain.ChangeKind, id string, at time.Time) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(domain.Change{Kind: kind, Owner: s.owner, EntryID: id, At: at})
}

// Add validates amount and stores it with the current time.
// A rejected amount returns INVALID_AMOUNT and leaves the store untouched.
func (s *EntryService) Add(ctx context.Context, amount *float64) (*domain.CarbEntry, error) {
	value, ok := carbs.ValidateAmount(amount)
	if !ok {
		return nil, apperrors.NewInvalidAmountError(amount)
	}

	entry := &domain.CarbEntry{Timestamp: s.calendar.now(), Value: value}
	id, err := s.repo.Insert(ctx, entry)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	entry.ID = id

	logger.Info("Carb entry added", "owner", s.owner, "entry_id", id, "value", value)
	s.publish(domain.ChangeInserted, id, entry.Timestamp)
	return entry, nil
}

// QuickAdd stores one of the fixed preset amounts
func (s *EntryService) QuickAdd(ctx context.Context, preset float64) (*domain.CarbEntry, error) {
	if !slices.Contains(domain.QuickAddPresets, preset) {
		return nil, apperrors.NewInvalidAmountError(&preset)
	}
	return s.Add(ctx, &preset)
}

// AddFromFood stores the carbs of amountEaten grams of a food with carbsPer100g.
func (s *EntryService) AddFromFood(ctx context.Context, carbsPer100g, amountEaten float64) (*domain.CarbEntry, error) {
	raw := carbs.FoodAmount(carbsPer100g, amountEaten)
	return s.Add(ctx, &raw)
}

func (s *EntryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return apperrors.NewEntryNotFoundError(err, id)
		}
		return apperrors.NewDatabaseError(err)
	}

	logger.Info("Carb entry deleted", "owner", s.owner, "entry_id", id)
	s.publish(domain.ChangeDeleted, id, s.calendar.now())
	return nil
}

// Entries returns a fresh snapshot of the store
func (s *EntryService) Entries(ctx context.Context) ([]*domain.CarbEntry, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return entries, nil
}

// Today returns today's total, its evaluation and today's entries newest first.
func (s *EntryService) Today(ctx context.Context, th domain.Thresholds) (Dashboard, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	now := s.calendar.now()
	todays := carbs.EntriesForDay(entries, now)
	slices.SortStableFunc(todays, func(a, b *domain.CarbEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	total := carbs.TotalForToday(entries, now)
	return Dashboard{
		Total:      total,
		Evaluation: carbs.Evaluate(total, th),
		Entries:    todays,
	}, nil
}

// History groups every entry by local calendar day, newest day first.
func (s *EntryService) History(ctx context.Context) ([]domain.DayGroup, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return carbs.GroupByDay(entries, s.calendar.now().Location()), nil
}

func (s *EntryService) Statistics(ctx context.Context) (domain.Statistics, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	return carbs.Statistics(entries, s.calendar.now(), s.calendar.FirstWeekday), nil
}

// Summary is the spoken answer to "how many carbs today".
func (s *EntryService) Summary(ctx context.Context, th domain.Thresholds, tag language.Tag) (string, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return "", err
	}
	now := s.calendar.now()
	todays := carbs.EntriesForDay(entries, now)
	return carbs.DailySummary(carbs.TotalForDay(todays, now), len(todays), th, tag), nil
}

// Seed fills the store with random entries for the last days days, today
// included. Values skip the validation gate. With clearExisting set, existing entries
// are deleted first.
func (s *EntryService) Seed(ctx context.Context, days int, clearExisting bool, rng *rand.Rand) (int, error) {
	if days <= 0 {
		days = DefaultSeedDays
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if clearExisting {
		existing, err := s.Entries(ctx)
		if err != nil {
			return 0, err
		}
		for _, e := range existing {
			if err := s.repo.Delete(ctx, e.ID); err != nil {
				return 0, apperrors.NewDatabaseError(err)
			}
		}
	}

	today := carbs.StartOfDay(s.calendar.now())
	inserted := 0
	for offset := 0; offset < days; offset++ {
		y, m, d := today.Date()
		count := 3 + rng.Intn(3)
		for i := 0; i < count; i++ {
			ts := time.Date(y, m, d-offset, 6+rng.Intn(17), rng.Intn(60), 0, 0, today.Location())
			entry := &domain.CarbEntry{
				Timestamp: ts,
				Value:     seedValues[rng.Intn(len(seedValues))],
			}
			if _, err := s.repo.Insert(ctx, entry); err != nil {
				return inserted, apperrors.NewDatabaseError(err)
			}
			inserted++
		}
	}

	logger.Info("Seeded mock carb entries", "owner", s.owner, "days", days, "entries", inserted)
	s.publish(domain.ChangeInserted, "", s.calendar.now())
	return inserted, nil
}
