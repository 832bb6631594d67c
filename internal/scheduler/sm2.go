// Package scheduler implements the SM-2 variant spaced-repetition
// scheduler (spec.md §4.1). It is grounded on the ease/interval state
// machine in nomercy360-atamagaii's internal/db/progress.go (ReviewCard)
// and the pure, non-mutating CalculateNextReview style from
// DavidMiserak/GoCard's internal/algorithm/sm2.go, but implements the
// spec's exact SM-2 quality-grade formula rather than either teacher's
// ad hoc ease deltas.
package scheduler

import (
	"math"
	"sort"
	"time"

	"eduengine/domain"
)

// Options mirrors eduengine.SM2Options without importing the root
// package (which would create an import cycle); the facade constructs
// one of these from the public Options bundle.
type Options struct {
	InitialIntervalDays float64
	SecondIntervalDays  float64
	EFMin               float64
	EFDefault           float64
	LapseMultiplier     float64
	MinIntervalDays     float64
	MaxIntervalDays     float64
	HardFactor          float64
	EasyBonus           float64
}

// Scheduler applies SM-2 updates to cards. It holds no per-card state of
// its own; every operation is a pure function of its arguments.
type Scheduler struct {
	opts Options
	now  func() time.Time
}

// New returns a Scheduler configured with opts. now defaults to
// time.Now when nil; tests may override it for determinism.
func New(opts Options, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{opts: opts, now: now}
}

func (s *Scheduler) clampEF(ef float64) float64 {
	return math.Max(ef, s.opts.EFMin)
}

func (s *Scheduler) clampInterval(days float64) float64 {
	if days < s.opts.MinIntervalDays {
		return s.opts.MinIntervalDays
	}
	if days > s.opts.MaxIntervalDays {
		return s.opts.MaxIntervalDays
	}
	return days
}

// Review applies one rating to card and returns the updated card. The
// input card is never mutated (spec.md §4.1 "the scheduler is pure").
func (s *Scheduler) Review(card domain.Card, rating domain.Rating) domain.Card {
	now := s.now()
	q := rating.Quality()

	ef := card.EF
	if ef == 0 {
		ef = s.opts.EFDefault
	}
	newEF := s.clampEF(ef + (0.1 - float64(5-q)*(0.08+float64(5-q)*0.02)))

	updated := card
	updated.EF = newEF
	updated.TotalReviews = card.TotalReviews + 1
	updated.LastReviewAt = &now

	if rating.IsCorrect() {
		updated.CorrectCount = card.CorrectCount + 1
		updated.Reps = card.Reps + 1

		var interval float64
		switch {
		case updated.Reps == 1:
			interval = s.opts.InitialIntervalDays
		case updated.Reps == 2:
			interval = s.opts.SecondIntervalDays
		default:
			interval = card.IntervalDays * newEF
		}
		if rating == domain.RatingEasy {
			interval *= s.opts.EasyBonus
		}
		updated.IntervalDays = s.clampInterval(interval)
	} else {
		updated.Reps = 0
		var interval float64
		switch rating {
		case domain.RatingHard:
			interval = math.Max(s.opts.MinIntervalDays, card.IntervalDays*s.opts.HardFactor)
		default: // Again
			interval = math.Max(s.opts.MinIntervalDays, card.IntervalDays*s.opts.LapseMultiplier)
		}
		updated.IntervalDays = s.clampInterval(interval)
	}

	updated.NextReviewAt = now.Add(time.Duration(updated.IntervalDays * float64(24*time.Hour)))
	return updated
}

// Preview runs Review hypothetically for every rating and returns the
// prospective interval, in seconds, for each.
func (s *Scheduler) Preview(card domain.Card) map[domain.Rating]float64 {
	ratings := []domain.Rating{domain.RatingAgain, domain.RatingHard, domain.RatingGood, domain.RatingEasy}
	out := make(map[domain.Rating]float64, len(ratings))
	for _, r := range ratings {
		reviewed := s.Review(card, r)
		out[r] = reviewed.IntervalDays * 86400
	}
	return out
}

// StudyQueue builds the ordered study queue for a card pool: the most
// overdue due cards, truncated to maxReview, followed by the oldest new
// cards, truncated to maxNew (spec.md §4.1).
func (s *Scheduler) StudyQueue(cards []domain.Card, maxNew, maxReview int) []domain.Card {
	now := s.now()

	var due, fresh []domain.Card
	for _, c := range cards {
		switch {
		case c.IsNew():
			fresh = append(fresh, c)
		case c.IsDue(now):
			due = append(due, c)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReviewAt.Before(due[j].NextReviewAt)
	})
	if maxReview >= 0 && len(due) > maxReview {
		due = due[:maxReview]
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].CreatedAt.Before(fresh[j].CreatedAt)
	})
	if maxNew >= 0 && len(fresh) > maxNew {
		fresh = fresh[:maxNew]
	}

	queue := make([]domain.Card, 0, len(due)+len(fresh))
	queue = append(queue, due...)
	queue = append(queue, fresh...)
	return queue
}
