// Package recommend implements the priority-ranked recommendation engine
// (spec.md §4.5), combining the outputs of the scheduler, adaptive
// engine, and progress tracker into a ranked study queue. It is grounded
// on the due/overdue/new-card framing already present in
// nomercy360-atamagaii's internal/db/card.go (GetCardsWithProgress) and
// internal/db/stats.go (new-vs-review breakdowns), generalized from SQL
// ORDER BY clauses into the explicit sorts spec.md §4.5 requires.
package recommend

import (
	"fmt"
	"sort"
	"time"

	"eduengine/domain"
)

const staleSubjectThreshold = 3 * 24 * time.Hour

// DefaultLimit is used when a caller passes limit <= 0.
const DefaultLimit = 10

// Engine has no state of its own; Recommend is a pure function of its
// arguments.
type Engine struct {
	now func() time.Time
}

// New returns a recommendation Engine. now defaults to time.Now.
func New(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Recommend produces up to limit Recommendations, generated per the five
// rules in spec.md §4.5 and returned in non-increasing priority order.
func (e *Engine) Recommend(cards []domain.Card, progress domain.LearningProgress, limit int) []domain.Recommendation {
	if limit <= 0 {
		limit = DefaultLimit
	}
	now := e.now()

	var recs []domain.Recommendation

	if r, ok := e.overdueReview(cards, now); ok {
		recs = append(recs, r)
	}
	recs = append(recs, e.weakAreas(cards, progress)...)
	recs = append(recs, e.newContent(cards)...)
	if r, ok := e.lapsedReview(cards); ok {
		recs = append(recs, r)
	}
	recs = append(recs, e.staleSubjects(cards, progress, now)...)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Less(recs[j].Priority)
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// halvedMinutes implements OverdueReview's minutes = max(floor, count/2)
// (spec.md §4.5 rule 1).
func halvedMinutes(count int, floor int) int {
	m := count / 2
	if m < floor {
		m = floor
	}
	return m
}

// minutesFor implements the WeakArea/NewContent/LapsedReview minutes =
// max(floor, count) rule (spec.md §4.5 rules 2-4).
func minutesFor(count int, floor int) int {
	if count < floor {
		return floor
	}
	return count
}

func (e *Engine) overdueReview(cards []domain.Card, now time.Time) (domain.Recommendation, bool) {
	var due []domain.Card
	for _, c := range cards {
		if !c.IsNew() && c.IsDue(now) {
			due = append(due, c)
		}
	}
	if len(due) == 0 {
		return domain.Recommendation{}, false
	}

	sort.SliceStable(due, func(i, j int) bool { return due[i].NextReviewAt.Before(due[j].NextReviewAt) })

	ids := cardIDs(due, 20)
	return domain.Recommendation{
		Type:             domain.RecommendationOverdueReview,
		Title:            "Overdue Reviews",
		Description:      fmt.Sprintf("%d card(s) need review.", len(due)),
		Priority:         domain.PriorityCritical,
		CardIDs:          ids,
		EstimatedMinutes: halvedMinutes(len(due), 1),
	}, true
}

func (e *Engine) weakAreas(cards []domain.Card, progress domain.LearningProgress) []domain.Recommendation {
	type weak struct {
		subjectID string
		sp        *domain.SubjectProgress
	}
	var candidates []weak
	for id, sp := range progress.Subjects {
		if sp.Accuracy < 0.6 && sp.ReviewedCards > 5 {
			candidates = append(candidates, weak{subjectID: id, sp: sp})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].sp.Accuracy < candidates[j].sp.Accuracy })
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}

	var recs []domain.Recommendation
	for _, w := range candidates {
		subjectCards := filterBySubject(cards, w.subjectID)
		sort.SliceStable(subjectCards, func(i, j int) bool { return subjectCards[i].Accuracy() < subjectCards[j].Accuracy() })
		ids := cardIDs(subjectCards, 10)

		recs = append(recs, domain.Recommendation{
			Type:             domain.RecommendationWeakArea,
			Title:            "Strengthen Weak Area",
			Description:      "Your accuracy in this subject is below target.",
			Priority:         domain.PriorityHigh,
			CardIDs:          ids,
			SubjectID:        w.subjectID,
			EstimatedMinutes: minutesFor(len(ids), 2),
		})
	}
	return recs
}

func (e *Engine) newContent(cards []domain.Card) []domain.Recommendation {
	bySubject := make(map[string][]domain.Card)
	for _, c := range cards {
		if c.IsNew() {
			bySubject[c.SubjectID] = append(bySubject[c.SubjectID], c)
		}
	}

	subjectIDs := make([]string, 0, len(bySubject))
	for id := range bySubject {
		subjectIDs = append(subjectIDs, id)
	}
	// Map iteration order is non-deterministic; sort by the earliest
	// CreatedAt card in each group to obtain deterministic output
	// (spec.md §9 Open Questions).
	sort.SliceStable(subjectIDs, func(i, j int) bool {
		return earliestCreated(bySubject[subjectIDs[i]]).Before(earliestCreated(bySubject[subjectIDs[j]]))
	})
	if len(subjectIDs) > 3 {
		subjectIDs = subjectIDs[:3]
	}

	var recs []domain.Recommendation
	for _, id := range subjectIDs {
		group := bySubject[id]
		sort.SliceStable(group, func(i, j int) bool { return group[i].CreatedAt.Before(group[j].CreatedAt) })
		ids := cardIDs(group, 10)

		recs = append(recs, domain.Recommendation{
			Type:             domain.RecommendationNewContent,
			Title:            "New Content Available",
			Description:      "New cards are ready to learn.",
			Priority:         domain.PriorityMedium,
			CardIDs:          ids,
			SubjectID:        id,
			EstimatedMinutes: minutesFor(len(ids), 2),
		})
	}
	return recs
}

func (e *Engine) lapsedReview(cards []domain.Card) (domain.Recommendation, bool) {
	var lapsed []domain.Card
	for _, c := range cards {
		if c.IsLapsed() {
			lapsed = append(lapsed, c)
		}
	}
	if len(lapsed) == 0 {
		return domain.Recommendation{}, false
	}

	ids := cardIDs(lapsed, 15)
	return domain.Recommendation{
		Type:             domain.RecommendationLapsedReview,
		Title:            "Lapsed Cards",
		Description:      "Cards you recently forgot need another pass.",
		Priority:         domain.PriorityHigh,
		CardIDs:          ids,
		EstimatedMinutes: minutesFor(len(ids), 2),
	}, true
}

func (e *Engine) staleSubjects(cards []domain.Card, progress domain.LearningProgress, now time.Time) []domain.Recommendation {
	type stale struct {
		subjectID string
		lastStudy time.Time
	}
	var candidates []stale
	for id, sp := range progress.Subjects {
		if sp.TotalCards == 0 {
			continue
		}
		last := time.Time{} // -infinity sentinel
		if sp.LastStudied != nil {
			last = *sp.LastStudied
		}
		if now.Sub(last) > staleSubjectThreshold {
			candidates = append(candidates, stale{subjectID: id, lastStudy: last})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].lastStudy.Before(candidates[j].lastStudy) })
	if len(candidates) > 2 {
		candidates = candidates[:2]
	}

	var recs []domain.Recommendation
	for _, c := range candidates {
		subjectCards := filterBySubject(cards, c.subjectID)
		ids := cardIDs(subjectCards, 10)

		recs = append(recs, domain.Recommendation{
			Type:             domain.RecommendationStaleSubject,
			Title:            "Revisit a Stale Subject",
			Description:      "You haven't studied this subject in a while.",
			Priority:         domain.PriorityLow,
			CardIDs:          ids,
			SubjectID:        c.subjectID,
			EstimatedMinutes: 5,
		})
	}
	return recs
}

func cardIDs(cards []domain.Card, limit int) []string {
	if limit >= 0 && len(cards) > limit {
		cards = cards[:limit]
	}
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.CardID
	}
	return ids
}

func filterBySubject(cards []domain.Card, subjectID string) []domain.Card {
	var out []domain.Card
	for _, c := range cards {
		if c.SubjectID == subjectID {
			out = append(out, c)
		}
	}
	return out
}

func earliestCreated(cards []domain.Card) time.Time {
	earliest := cards[0].CreatedAt
	for _, c := range cards[1:] {
		if c.CreatedAt.Before(earliest) {
			earliest = c.CreatedAt
		}
	}
	return earliest
}
