// Package gamification implements XP accounting, the level curve, daily
// streak tracking, and badge unlock evaluation (spec.md §4.6). It is
// grounded on nomercy360-atamagaii's denormalized users.points column
// (internal/db/schema.go) generalized into a first-class, independently
// persisted engine state, per SPEC_FULL.md §4.6.
package gamification

import (
	"sync"
	"time"

	"eduengine/domain"
	"eduengine/internal/store"
)

const (
	totalXPKey   = "gamification.totalXP"
	xpHistoryKey = "gamification.xpHistory"
	badgesKey    = "gamification.badges"
	streakKey    = "gamification.streak"
)

// Engine owns a learner's gamification state and persists it to
// LocalStore under the keys documented in spec.md §6.
type Engine struct {
	mu    sync.Mutex
	store *store.LocalStore
	now   func() time.Time

	totalXP   int
	xpHistory []domain.XPEvent
	badges    []domain.Badge
	streak    domain.StreakInfo
}

// New loads any persisted gamification state from store, or starts from
// zero if none exists.
func New(s *store.LocalStore, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{store: s, now: now}

	var totalXP int
	if found, _ := s.Load(totalXPKey, &totalXP); found {
		e.totalXP = totalXP
	}
	var history []domain.XPEvent
	if found, _ := s.Load(xpHistoryKey, &history); found {
		e.xpHistory = history
	}
	var badges []domain.Badge
	if found, _ := s.Load(badgesKey, &badges); found {
		e.badges = badges
	}
	var streak domain.StreakInfo
	if found, _ := s.Load(streakKey, &streak); found {
		e.streak = streak
	}
	return e
}

func baseXP(rating domain.Rating) int {
	switch rating {
	case domain.RatingAgain:
		return 1
	case domain.RatingHard:
		return 3
	case domain.RatingGood:
		return 5
	case domain.RatingEasy:
		return 8
	default:
		return 0
	}
}

// AwardXP computes and applies the XP earned for event, using the
// streak value from *before* this event's own streak update (spec.md
// §4.6, §4.8), then advances the streak.
func (e *Engine) AwardXP(event domain.StudyEvent) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	amount := baseXP(event.Rating)
	if event.Rating.IsCorrect() && event.ResponseTimeS < 5 {
		amount += 2
	}
	streakBonus := e.streak.Current
	if streakBonus > 10 {
		streakBonus = 10
	}
	amount += streakBonus

	e.totalXP += amount
	e.xpHistory = append(e.xpHistory, domain.XPEvent{
		Amount:    amount,
		Reason:    event.Rating.DisplayName(),
		Timestamp: event.Timestamp,
	})
	if len(e.xpHistory) > domain.MaxXPHistory {
		e.xpHistory = e.xpHistory[len(e.xpHistory)-domain.MaxXPHistory:]
	}

	e.updateStreak(event.Timestamp)
	e.persistLocked()

	return amount
}

// updateStreak applies the calendar-day streak rule from spec.md §4.6.
// Callers must hold e.mu.
func (e *Engine) updateStreak(ts time.Time) {
	today := startOfDay(ts)

	if e.streak.LastStudyDay == nil {
		e.streak.Current = 1
		e.streak.Longest = 1
		e.streak.LastStudyDay = &today
		return
	}

	last := startOfDay(*e.streak.LastStudyDay)
	switch {
	case last.Equal(today):
		// unchanged
	case last.AddDate(0, 0, 1).Equal(today):
		e.streak.Current++
		if e.streak.Current > e.streak.Longest {
			e.streak.Longest = e.streak.Current
		}
	default:
		e.streak.Current = 1
	}
	e.streak.LastStudyDay = &today
}

func startOfDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

// levelThreshold returns the cumulative XP required to reach level L
// (spec.md §4.6: required(L) = sum_{i=1..L-1} i*100).
func levelThreshold(level int) int {
	total := 0
	for i := 1; i < level; i++ {
		total += i * 100
	}
	return total
}

// CurrentLevel returns the highest level whose threshold is <= totalXP.
func (e *Engine) CurrentLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return currentLevel(e.totalXP)
}

func currentLevel(totalXP int) int {
	level := 1
	for levelThreshold(level+1) <= totalXP {
		level++
	}
	return level
}

// LevelProgress returns the learner's fractional progress toward the
// next level, clamped to [0, 1].
func (e *Engine) LevelProgress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	level := currentLevel(e.totalXP)
	lo := levelThreshold(level)
	hi := levelThreshold(level + 1)
	if hi <= lo {
		return 1
	}
	progress := float64(e.totalXP-lo) / float64(hi-lo)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// TotalXP returns the learner's cumulative XP.
func (e *Engine) TotalXP() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalXP
}

// CurrentStreak returns the current consecutive-day streak length.
func (e *Engine) CurrentStreak() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streak.Current
}

// LongestStreak returns the longest consecutive-day streak ever reached.
func (e *Engine) LongestStreak() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streak.Longest
}

// XPHistory returns a copy of the bounded XP award history.
func (e *Engine) XPHistory() []domain.XPEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.XPEvent, len(e.xpHistory))
	copy(out, e.xpHistory)
	return out
}

// EarnedBadges returns a copy of the badges earned so far.
func (e *Engine) EarnedBadges() []domain.Badge {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Badge, len(e.badges))
	copy(out, e.badges)
	return out
}

// CheckBadges evaluates the fixed registry against progress and the
// engine's current streak/XP, in declaration order, and returns only the
// badges newly earned by this call (spec.md §4.6).
func (e *Engine) CheckBadges(progress domain.LearningProgress) []domain.Badge {
	e.mu.Lock()
	defer e.mu.Unlock()

	var newly []domain.Badge
	now := e.now()

	earned := make(map[string]bool, len(e.badges))
	for _, b := range e.badges {
		earned[b.Key] = true
	}

	for _, def := range Registry {
		if earned[def.Key] {
			continue
		}
		if def.Predicate(progress, e.streak, e.totalXP) {
			badge := domain.Badge{
				Key:         def.Key,
				Title:       def.Title,
				Description: def.Description,
				Icon:        def.Icon,
				Tier:        def.Tier,
				EarnedAt:    now,
			}
			e.badges = append(e.badges, badge)
			newly = append(newly, badge)
			earned[def.Key] = true
		}
	}

	if len(newly) > 0 {
		e.persistLocked()
	}
	return newly
}

// Reset zeros XP, clears history and badges, and resets the streak
// (spec.md §4.6).
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.totalXP = 0
	e.xpHistory = nil
	e.badges = nil
	e.streak = domain.StreakInfo{}
	e.persistLocked()
}

func (e *Engine) persistLocked() {
	_ = e.store.Save(totalXPKey, e.totalXP)
	_ = e.store.Save(xpHistoryKey, e.xpHistory)
	_ = e.store.Save(badgesKey, e.badges)
	_ = e.store.Save(streakKey, e.streak)
}
