// Package eduengine is the on-device adaptive learning engine: a
// coordinating facade over six deterministic engines (scheduler,
// adaptive difficulty, progress tracker, quiz generator, gamification,
// and recommendations) sharing one LocalStore (spec.md §1, §4.8).
package eduengine

import (
	"math/rand"
	"time"

	"eduengine/domain"
	"eduengine/internal/adaptive"
	"eduengine/internal/gamification"
	"eduengine/internal/progress"
	"eduengine/internal/quizgen"
	"eduengine/internal/recommend"
	"eduengine/internal/scheduler"
	"eduengine/internal/store"
)

// StudyResult is returned by RecordStudy (spec.md §4.8).
type StudyResult struct {
	UpdatedCard   domain.Card
	XPEarned      int
	NewBadges     []domain.Badge
	NextReviewAt  time.Time
	CurrentStreak int
}

// Engine is the facade: the single entry point a host embeds. It owns
// the shared LocalStore and one instance of each of the six engines,
// and is itself the synchronization boundary — callers may use an
// Engine from multiple goroutines; each sub-engine serializes its own
// state internally (spec.md §5, REDESIGN FLAGS "Concurrency").
type Engine struct {
	opts Options

	localStore *store.LocalStore
	scheduler  *scheduler.Scheduler
	adaptive   *adaptive.Engine
	progress   *progress.Tracker
	quizgen    *quizgen.Engine
	gamify     *gamification.Engine
	recommend  *recommend.Engine
}

// New validates opts, opens the LocalStore under its namespace, and
// wires the six engines together. The returned Engine is ready for
// RecordStudy and the rest of the facade API (spec.md §6).
func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	s, err := store.Open(opts.StorePath, opts.StorageNamespace, opts.Logger)
	if err != nil {
		return nil, err
	}

	now := time.Now

	sched := scheduler.New(scheduler.Options{
		InitialIntervalDays: opts.SM2.InitialIntervalDays,
		SecondIntervalDays:  opts.SM2.SecondIntervalDays,
		EFMin:               opts.SM2.EFMin,
		EFDefault:           opts.SM2.EFDefault,
		LapseMultiplier:     opts.SM2.LapseMultiplier,
		MinIntervalDays:     opts.SM2.MinIntervalDays,
		MaxIntervalDays:     opts.SM2.MaxIntervalDays,
		HardFactor:          opts.SM2.HardFactor,
		EasyBonus:           opts.SM2.EasyBonus,
	}, now)

	adaptiveEngine := adaptive.New(
		opts.AdaptiveWindowSize,
		adaptive.TargetRange{Lower: opts.AdaptiveTargetRange.Lower, Upper: opts.AdaptiveTargetRange.Upper},
		opts.AdaptiveSensitivity,
	)

	tracker := progress.New(s)
	gamify := gamification.New(s, now)
	quiz := quizgen.New(rand.New(rand.NewSource(time.Now().UnixNano())), now)
	rec := recommend.New(now)

	return &Engine{
		opts:       opts,
		localStore: s,
		scheduler:  sched,
		adaptive:   adaptiveEngine,
		progress:   tracker,
		quizgen:    quiz,
		gamify:     gamify,
		recommend:  rec,
	}, nil
}

// Close releases the underlying LocalStore's connection.
func (e *Engine) Close() error {
	return e.localStore.Close()
}

// RecordStudy executes the fixed seven-step pipeline documented in
// spec.md §4.8: schedule, record, adapt, award XP, check badges, and
// return a StudyResult. The engine never persists updatedCard itself —
// card storage is the caller's responsibility (spec.md §4.8).
func (e *Engine) RecordStudy(card domain.Card, rating domain.Rating, responseTimeS float64) StudyResult {
	updatedCard := e.scheduler.Review(card, rating)

	event := domain.StudyEvent{
		CardID:        card.CardID,
		SubjectID:     card.SubjectID,
		Rating:        rating,
		ResponseTimeS: responseTimeS,
		Timestamp:     *updatedCard.LastReviewAt,
	}

	e.progress.Record(event)
	e.adaptive.Ingest(event)
	e.progress.SetRecommendedDifficulty(event.SubjectID, e.adaptive.RecommendedDifficulty(event.SubjectID))

	xpEarned := e.gamify.AwardXP(event)
	newBadges := e.gamify.CheckBadges(e.progress.Snapshot())

	return StudyResult{
		UpdatedCard:   updatedCard,
		XPEarned:      xpEarned,
		NewBadges:     newBadges,
		NextReviewAt:  updatedCard.NextReviewAt,
		CurrentStreak: e.gamify.CurrentStreak(),
	}
}

// Quiz exposes the quiz-generation and scoring surface (spec.md §6
// quiz.generate / quiz.score).
type Quiz struct{ e *Engine }

// Quiz returns the quiz sub-API.
func (e *Engine) Quiz() Quiz { return Quiz{e: e} }

// Generate synthesizes a Quiz from cards (spec.md §4.4). A negative
// count reports domain.ErrInvalidInput (spec.md §7).
func (q Quiz) Generate(cards []domain.Card, count int, allowedTypes []domain.QuestionType, difficulty *domain.Difficulty, shuffle bool) (domain.Quiz, error) {
	return q.e.quizgen.Generate(cards, count, allowedTypes, difficulty, shuffle)
}

// GenerateFromQueue synthesizes a Quiz directly from a scheduler study
// queue (SPEC_FULL.md §4.4 expansion). A negative count reports
// domain.ErrInvalidInput (spec.md §7).
func (q Quiz) GenerateFromQueue(queue []domain.Card, count int, allowedTypes []domain.QuestionType, difficulty *domain.Difficulty, shuffle bool) (domain.Quiz, error) {
	return q.e.quizgen.GenerateFromQueue(queue, count, allowedTypes, difficulty, shuffle)
}

// Score grades a completed attempt (spec.md §4.4).
func (q Quiz) Score(quiz domain.Quiz, answers map[string]string, timeTaken float64) domain.QuizResult {
	return q.e.quizgen.Score(quiz, answers, timeTaken)
}

// Scheduler exposes the SM-2 scheduler surface (spec.md §6
// scheduler.review / .preview / .study_queue).
type Scheduler struct{ e *Engine }

// Scheduler returns the scheduler sub-API.
func (e *Engine) Scheduler() Scheduler { return Scheduler{e: e} }

// Review applies one rating to card and returns the updated card,
// without touching progress, adaptive, or gamification state. Prefer
// RecordStudy for a full study event; Review is exposed for hosts that
// want to preview or replay scheduling in isolation (spec.md §6).
func (s Scheduler) Review(card domain.Card, rating domain.Rating) domain.Card {
	return s.e.scheduler.Review(card, rating)
}

// Preview returns the prospective interval, in seconds, for every
// rating (spec.md §8 round-trip law).
func (s Scheduler) Preview(card domain.Card) map[domain.Rating]float64 {
	return s.e.scheduler.Preview(card)
}

// StudyQueue builds the ordered study queue, respecting the facade's
// configured MaxNewCardsPerDay / MaxReviewsPerDay (spec.md §6).
func (s Scheduler) StudyQueue(cards []domain.Card) []domain.Card {
	return s.e.scheduler.StudyQueue(cards, s.e.opts.MaxNewCardsPerDay, s.e.opts.MaxReviewsPerDay)
}

// Adaptive exposes the sliding-window difficulty engine (spec.md §6
// adaptive.recommended_difficulty / .performance_metrics).
type Adaptive struct{ e *Engine }

// Adaptive returns the adaptive sub-API.
func (e *Engine) Adaptive() Adaptive { return Adaptive{e: e} }

// RecommendedDifficulty returns the current tier for a subject.
func (a Adaptive) RecommendedDifficulty(subjectID string) domain.Difficulty {
	return a.e.adaptive.RecommendedDifficulty(subjectID)
}

// PerformanceMetrics returns a point-in-time snapshot of a subject's
// sliding window.
func (a Adaptive) PerformanceMetrics(subjectID string) adaptive.Snapshot {
	return a.e.adaptive.PerformanceMetrics(subjectID)
}

// Progress exposes the progress tracker's query surface (spec.md §6
// progress.subject_progress / .today_events / .study_days_in_last /
// .reset).
type Progress struct{ e *Engine }

// Progress returns the progress sub-API.
func (e *Engine) Progress() Progress { return Progress{e: e} }

// SubjectProgress returns the aggregate for subjectID, or false if no
// event has ever been recorded for it.
func (p Progress) SubjectProgress(subjectID string) (domain.SubjectProgress, bool) {
	return p.e.progress.SubjectProgress(subjectID)
}

// TodayEvents returns events recorded since the start of the current
// calendar day.
func (p Progress) TodayEvents() []domain.StudyEvent {
	return p.e.progress.TodayEvents()
}

// StudyDaysInLast counts the distinct calendar days, within the last n
// days, with at least one recorded event.
func (p Progress) StudyDaysInLast(n int) int {
	return p.e.progress.StudyDaysInLast(n)
}

// Snapshot returns the current LearningProgress, used by Recommend and
// by hosts that need the raw aggregate.
func (p Progress) Snapshot() domain.LearningProgress {
	return p.e.progress.Snapshot()
}

// Reset clears progress tracker state back to empty.
func (p Progress) Reset() {
	p.e.progress.Reset()
}

// Gamification exposes XP, level, streak, and badge queries (spec.md
// §6 gamification.current_level / .level_progress / .current_streak /
// .earned_badges / .reset).
type Gamification struct{ e *Engine }

// Gamification returns the gamification sub-API.
func (e *Engine) Gamification() Gamification { return Gamification{e: e} }

// CurrentLevel returns the learner's current level.
func (g Gamification) CurrentLevel() int { return g.e.gamify.CurrentLevel() }

// LevelProgress returns fractional progress toward the next level.
func (g Gamification) LevelProgress() float64 { return g.e.gamify.LevelProgress() }

// TotalXP returns cumulative XP earned.
func (g Gamification) TotalXP() int { return g.e.gamify.TotalXP() }

// CurrentStreak returns the current consecutive-day streak length.
func (g Gamification) CurrentStreak() int { return g.e.gamify.CurrentStreak() }

// LongestStreak returns the longest consecutive-day streak ever
// reached.
func (g Gamification) LongestStreak() int { return g.e.gamify.LongestStreak() }

// EarnedBadges returns every badge earned so far.
func (g Gamification) EarnedBadges() []domain.Badge { return g.e.gamify.EarnedBadges() }

// Reset clears XP, badges, and streak back to zero.
func (g Gamification) Reset() { g.e.gamify.Reset() }

// Recommendations exposes the recommendation engine (spec.md §6
// recommendations.recommend).
type Recommendations struct{ e *Engine }

// Recommendations returns the recommendations sub-API.
func (e *Engine) Recommendations() Recommendations { return Recommendations{e: e} }

// Recommend produces up to limit ranked Recommendations from the
// current card set and progress snapshot (spec.md §4.5).
func (r Recommendations) Recommend(cards []domain.Card, limit int) []domain.Recommendation {
	return r.e.recommend.Recommend(cards, r.e.progress.Snapshot(), limit)
}
