package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	apperrors "github.com/vladimiradmaev/carbclarity/internal/errors"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
	"github.com/vladimiradmaev/carbclarity/internal/lookup"
)

// defaultDetailConcurrency bounds parallel detail requests of one session
const defaultDetailConcurrency = 4

// ErrStaleSearch is returned to a search that was overtaken by a newer one.
// Its results have been discarded.
var ErrStaleSearch = errors.New("search superseded by a newer one")

// RateLimiter hands out lookup tokens per owner
type RateLimiter interface {
	Allow(key int64) (bool, time.Duration)
}

// LookupConfig wires a LookupSession.
type LookupConfig struct {
	Owner    int64
	Entries  *EntryService
	Settings domain.SettingsRepository
	// NewLookup builds the food source for an API key
	NewLookup func(apiKey string) domain.FoodLookup
	// DefaultAPIKey is used when the stored settings carry no key
	DefaultAPIKey     string
	Limiter           RateLimiter
	DetailConcurrency int
}

// LookupState is a copy of the session's observable state
type LookupState struct {
	Query       string
	Foods       []domain.FoodCandidate
	Selected    *domain.FoodCandidate
	Amount      *float64
	Loading     bool
	HasSearched bool
	Err         error
}

// LookupSession holds the food search of one user. Only the most recently
// issued search may change the state; older ones are cancelled and dropped.
type LookupSession struct {
	cfg LookupConfig

	mu          sync.Mutex
	gen         uint64
	cancel      context.CancelFunc
	source      domain.FoodLookup
	lastQuery   string
	foods       []domain.FoodCandidate
	selected    *domain.FoodCandidate
	amount      *float64
	loading     bool
	hasSearched bool
	err         error
}

func NewLookupSession(cfg LookupConfig) *LookupSession {
	if cfg.DetailConcurrency <= 0 {
		cfg.DetailConcurrency = defaultDetailConcurrency
	}
	return &LookupSession{cfg: cfg}
}

func (s *LookupSession) apiKey(ctx context.Context) (string, error) {
	key := ""
	if s.cfg.Settings != nil {
		settings, err := s.cfg.Settings.Load(ctx)
		if err != nil {
			return "", apperrors.NewDatabaseError(err)
		}
		key = strings.TrimSpace(settings.LookupAPIKey)
	}
	if key == "" {
		key = strings.TrimSpace(s.cfg.DefaultAPIKey)
	}
	return key, nil
}

// invalidateLocked starts a new generation and cancels the in-flight search
func (s *LookupSession) invalidateLocked() uint64 {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	return s.gen
}

// Search looks query up and replaces the candidate list. A blank query clears
// the session. The returned slice is a copy.
func (s *LookupSession) Search(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		s.mu.Lock()
		s.invalidateLocked()
		s.foods = nil
		s.selected = nil
		s.loading = false
		s.hasSearched = false
		s.err = nil
		s.mu.Unlock()
		return nil, nil
	}

	key, err := s.apiKey(ctx)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, s.fail(apperrors.NewNoAPIKeyError())
	}

	if s.cfg.Limiter != nil {
		if ok, wait := s.cfg.Limiter.Allow(s.cfg.Owner); !ok {
			return nil, s.fail(apperrors.NewRateLimitError(
				fmt.Sprintf("Too many lookups, try again in %s", wait.Round(time.Second))).
				WithContext("retry_after", wait.String()))
		}
	}

	source := s.cfg.NewLookup(key)

	s.mu.Lock()
	gen := s.invalidateLocked()
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.lastQuery = q
	s.loading = true
	s.selected = nil
	s.err = nil
	s.mu.Unlock()

	foods, err := source.Search(reqCtx, q)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		logger.Debug("Dropping stale lookup result", "owner", s.cfg.Owner, "query", q)
		return nil, ErrStaleSearch
	}
	s.cancel = nil
	s.loading = false
	s.hasSearched = true
	if err != nil {
		classified := lookup.Classify(err)
		s.foods = nil
		s.err = classified
		logger.Warn("Food lookup failed", append(classified.LogFields(), "owner", s.cfg.Owner)...)
		return nil, classified
	}

	s.source = source
	s.foods = foods
	return slices.Clone(foods), nil
}

func (s *LookupSession) fail(err *apperrors.AppError) error {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	return err
}

// LoadDetails fetches the carbohydrate value of every candidate still loading.
// A failed or unknown detail leaves the candidate at 0g.
func (s *LookupSession) LoadDetails(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	source := s.source
	var pending []int
	for _, f := range s.foods {
		if f.StillLoadingDetail {
			pending = append(pending, f.ID)
		}
	}
	s.mu.Unlock()

	if source == nil || len(pending) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.DetailConcurrency)
	for _, id := range pending {
		g.Go(func() error {
			value, ok, err := source.Detail(gctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Debug("Food detail failed", "id", id, "error", err)
			}
			if err != nil || !ok {
				value = 0
			}
			s.applyDetail(gen, id, value)
			return nil
		})
	}
	return g.Wait()
}

func (s *LookupSession) applyDetail(gen uint64, id int, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	for i := range s.foods {
		if s.foods[i].ID == id {
			s.foods[i].CarbsPer100g = value
			s.foods[i].StillLoadingDetail = false
		}
	}
}

// Select picks a candidate of the current result list by id
func (s *LookupSession) Select(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.foods {
		if f.ID == id {
			food := f
			s.selected = &food
			return nil
		}
	}
	return apperrors.NewValidationError("Unknown food").WithContext("food_id", id)
}

func (s *LookupSession) SetAmount(amount *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount == nil {
		s.amount = nil
		return
	}
	v := *amount
	s.amount = &v
}

// CalculatedCarbs is the unrounded carbohydrate content of the selected food
// and amount, or 0 while either is missing.
func (s *LookupSession) CalculatedCarbs() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calculatedLocked()
}

func (s *LookupSession) calculatedLocked() float64 {
	if s.selected == nil || s.amount == nil || s.selected.CarbsPer100g <= 0 {
		return 0
	}
	return carbs.FoodAmount(s.selected.CarbsPer100g, *s.amount)
}

func (s *LookupSession) CanAdd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAddLocked()
}

func (s *LookupSession) canAddLocked() bool {
	return s.selected != nil && s.amount != nil && *s.amount > 0
}

// Commit stores the calculated carbs through the entry service and clears the
// selection and amount on success.
func (s *LookupSession) Commit(ctx context.Context) (*domain.CarbEntry, error) {
	s.mu.Lock()
	if !s.canAddLocked() {
		s.mu.Unlock()
		return nil, apperrors.NewValidationError("Select a food and enter the amount eaten")
	}
	per100g, amount := s.selected.CarbsPer100g, *s.amount
	s.mu.Unlock()

	entry, err := s.cfg.Entries.AddFromFood(ctx, per100g, amount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.selected = nil
	s.amount = nil
	s.mu.Unlock()
	return entry, nil
}

// Retry runs the last non-empty query again
func (s *LookupSession) Retry(ctx context.Context) ([]domain.FoodCandidate, error) {
	s.mu.Lock()
	q := s.lastQuery
	s.mu.Unlock()
	if q == "" {
		return nil, nil
	}
	return s.Search(ctx, q)
}

// Reset drops results, selection and amount. The last query is kept for Retry.
func (s *LookupSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	s.source = nil
	s.foods = nil
	s.selected = nil
	s.amount = nil
	s.loading = false
	s.hasSearched = false
	s.err = nil
}

func (s *LookupSession) State() LookupState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := LookupState{
		Query:       s.lastQuery,
		Foods:       slices.Clone(s.foods),
		Loading:     s.loading,
		HasSearched: s.hasSearched,
		Err:         s.err,
	}
	if s.selected != nil {
		sel := *s.selected
		st.Selected = &sel
	}
	if s.amount != nil {
		a := *s.amount
		st.Amount = &a
	}
	return st
}

// LookupSessions keeps one session per owner
type LookupSessions struct {
	mu       sync.Mutex
	sessions map[int64]*LookupSession
	build    func(owner int64) *LookupSession
}

func NewLookupSessions(build func(owner int64) *LookupSession) *LookupSessions {
	return &LookupSessions{
		sessions: make(map[int64]*LookupSession),
		build:    build,
	}
}

// Get returns the owner's session, creating it on first use
func (m *LookupSessions) Get(owner int64) *LookupSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[owner]
	if !ok {
		s = m.build(owner)
		m.sessions[owner] = s
	}
	return s
}
