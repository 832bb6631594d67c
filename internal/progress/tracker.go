// Package progress implements the progress tracker: the singleton
// LearningProgress aggregate, its event-driven updates, and its
// queries (spec.md §4.3). It is grounded on the aggregation shape of
// nomercy360-atamagaii's internal/db/stats.go (GetUserStudyStats,
// GetUserStudyHistory), generalized from SQL GROUP BY queries to an
// in-memory bounded event deque guarded by a mutex, and persisted
// through the shared LocalStore.
package progress

import (
	"sync"
	"time"

	"eduengine/domain"
	"eduengine/internal/store"
)

const progressKey = "progress"

// Tracker holds the singleton LearningProgress. All updates are
// serialized under a single mutex (spec.md §4.3, §5).
type Tracker struct {
	mu    sync.Mutex
	store *store.LocalStore
	snap  *domain.LearningProgress
}

// New loads any persisted snapshot from store, or starts from an empty
// one if none exists.
func New(s *store.LocalStore) *Tracker {
	t := &Tracker{store: s}

	var loaded domain.LearningProgress
	if found, _ := s.Load(progressKey, &loaded); found && loaded.Subjects != nil {
		t.snap = &loaded
	} else {
		t.snap = domain.NewLearningProgress()
	}
	return t
}

func (t *Tracker) persistLocked() {
	_ = t.store.Save(progressKey, t.snap)
}

// Record appends event to the tracker's bounded history, updates the
// global and per-subject aggregates, and persists the resulting
// snapshot (spec.md §4.3).
func (t *Tracker) Record(event domain.StudyEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.RecentEvents = append([]domain.StudyEvent{event}, t.snap.RecentEvents...)
	if len(t.snap.RecentEvents) > domain.MaxRecentEvents {
		t.snap.RecentEvents = t.snap.RecentEvents[:domain.MaxRecentEvents]
	}

	t.snap.TotalReviews++
	t.snap.TotalStudyTimeS += event.ResponseTimeS

	sp, ok := t.snap.Subjects[event.SubjectID]
	if !ok {
		sp = &domain.SubjectProgress{SubjectID: event.SubjectID, RecommendedDifficulty: domain.DifficultyMedium}
		t.snap.Subjects[event.SubjectID] = sp
	}
	sp.ReviewedCards++
	sp.StudyTimeS += event.ResponseTimeS
	ts := event.Timestamp
	sp.LastStudied = &ts

	correct, total := 0, 0
	for _, e := range t.snap.RecentEvents {
		if e.SubjectID != event.SubjectID {
			continue
		}
		total++
		if e.Rating.IsCorrect() {
			correct++
		}
	}
	if total > 0 {
		sp.Accuracy = float64(correct) / float64(total)
	}

	t.persistLocked()
}

// UpdateMastery overwrites a subject's total/mastered card counters,
// leaving every other field unchanged (spec.md §4.3).
func (t *Tracker) UpdateMastery(subjectID string, totalCards, masteredCards int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sp, ok := t.snap.Subjects[subjectID]
	if !ok {
		sp = &domain.SubjectProgress{SubjectID: subjectID, RecommendedDifficulty: domain.DifficultyMedium}
		t.snap.Subjects[subjectID] = sp
	}
	sp.TotalCards = totalCards
	sp.MasteredCards = masteredCards

	t.persistLocked()
}

// SetRecommendedDifficulty records the adaptive engine's current tier
// recommendation for a subject onto its progress aggregate.
func (t *Tracker) SetRecommendedDifficulty(subjectID string, difficulty domain.Difficulty) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sp, ok := t.snap.Subjects[subjectID]
	if !ok {
		sp = &domain.SubjectProgress{SubjectID: subjectID}
		t.snap.Subjects[subjectID] = sp
	}
	sp.RecommendedDifficulty = difficulty
	t.persistLocked()
}

// Snapshot returns a copy of the current LearningProgress. The Subjects
// map and its entries are copied, so later updates do not touch the
// returned value; the RecentEvents slice is shared and must be treated as
// read-only by callers.
func (t *Tracker) Snapshot() domain.LearningProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := *t.snap
	out.Subjects = make(map[string]*domain.SubjectProgress, len(t.snap.Subjects))
	for id, sp := range t.snap.Subjects {
		cp := *sp
		out.Subjects[id] = &cp
	}
	return out
}

// SubjectProgress returns the aggregate for subjectID, or false if the
// tracker has neither recorded an event nor a mastery update for it.
func (t *Tracker) SubjectProgress(subjectID string) (domain.SubjectProgress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sp, ok := t.snap.Subjects[subjectID]
	if !ok {
		return domain.SubjectProgress{}, false
	}
	return *sp, true
}

// EventsBetween returns recent events with Timestamp in [start, end].
func (t *Tracker) EventsBetween(start, end time.Time) []domain.StudyEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []domain.StudyEvent
	for _, e := range t.snap.RecentEvents {
		if !e.Timestamp.Before(start) && !e.Timestamp.After(end) {
			out = append(out, e)
		}
	}
	return out
}

// TodayEvents returns events recorded since the start of the current
// calendar day.
func (t *Tracker) TodayEvents() []domain.StudyEvent {
	now := time.Now()
	start := startOfDay(now)
	return t.EventsBetween(start, now)
}

// StudyDaysInLast counts the distinct calendar days, within the last n
// days, that have at least one recorded event.
func (t *Tracker) StudyDaysInLast(n int) int {
	t.mu.Lock()
	events := make([]domain.StudyEvent, len(t.snap.RecentEvents))
	copy(events, t.snap.RecentEvents)
	t.mu.Unlock()

	cutoff := startOfDay(time.Now()).AddDate(0, 0, -n+1)
	days := make(map[time.Time]struct{})
	for _, e := range events {
		day := startOfDay(e.Timestamp)
		if day.Before(cutoff) {
			continue
		}
		days[day] = struct{}{}
	}
	return len(days)
}

// Reset clears progress back to empty and persists it.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap = domain.NewLearningProgress()
	t.persistLocked()
}

func startOfDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
