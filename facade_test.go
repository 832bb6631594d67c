package eduengine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eduengine"
	"eduengine/domain"
)

func newTestEngine(t *testing.T) *eduengine.Engine {
	t.Helper()
	opts := eduengine.DefaultOptions()
	opts.StorePath = ":memory:"
	e, err := eduengine.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	return e
}

func freshCard(id, subjectID string) domain.Card {
	return domain.Card{
		CardID:    id,
		SubjectID: subjectID,
		Front:     "front",
		Back:      "back",
		CreatedAt: time.Now(),
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := eduengine.DefaultOptions()
	opts.StorageNamespace = ""
	_, err := eduengine.New(opts)
	require.Error(t, err)
}

func TestRecordStudyAppliesSchedulerUpdate(t *testing.T) {
	e := newTestEngine(t)
	card := freshCard("c1", "math")

	result := e.RecordStudy(card, domain.RatingGood, 2.0)

	require.Equal(t, 1, result.UpdatedCard.TotalReviews)
	require.Equal(t, 1, result.UpdatedCard.CorrectCount)
	require.True(t, result.UpdatedCard.IntervalDays > 0)
	require.Equal(t, result.UpdatedCard.NextReviewAt, result.NextReviewAt)
}

func TestRecordStudyUpdatesProgressAndReturnsXP(t *testing.T) {
	e := newTestEngine(t)
	card := freshCard("c1", "math")

	result := e.RecordStudy(card, domain.RatingGood, 2.0)
	require.Greater(t, result.XPEarned, 0)

	sp, ok := e.Progress().SubjectProgress("math")
	require.True(t, ok)
	require.Equal(t, 1, sp.ReviewedCards)
}

func TestRecordStudyDoesNotMutateCallersCard(t *testing.T) {
	e := newTestEngine(t)
	card := freshCard("c1", "math")
	result := e.RecordStudy(card, domain.RatingGood, 2.0)

	// RecordStudy must not mutate the caller's card value in place.
	require.Equal(t, 0, card.TotalReviews)
	require.NotEqual(t, card.TotalReviews, result.UpdatedCard.TotalReviews)
}

func TestRecordStudyCurrentStreakNeverExceedsLongest(t *testing.T) {
	e := newTestEngine(t)
	card := freshCard("c1", "math")
	for i := 0; i < 5; i++ {
		e.RecordStudy(card, domain.RatingGood, 2.0)
	}
	require.LessOrEqual(t, e.Gamification().CurrentStreak(), e.Gamification().LongestStreak())
}

func TestRecordStudyXPUsesPreEventStreak(t *testing.T) {
	e := newTestEngine(t)
	card := freshCard("c1", "math")

	first := e.RecordStudy(card, domain.RatingGood, 2.0)
	// base 5 + speed 2 + streak bonus 0 (pre-event streak), not 1.
	require.Equal(t, 7, first.XPEarned)
	require.Equal(t, 1, first.CurrentStreak)
}

func TestQuizGenerateAndScoreRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	cards := []domain.Card{
		{CardID: "1", SubjectID: "jp", Front: "one", Back: "ichi"},
		{CardID: "2", SubjectID: "jp", Front: "two", Back: "ni"},
	}

	quiz, err := e.Quiz().Generate(cards, 2, []domain.QuestionType{domain.QuestionShortAnswer}, nil, false)
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 2)

	answers := make(map[string]string)
	for _, q := range quiz.Questions {
		answers[q.QuestionID] = q.CorrectAnswers[0]
	}
	result := e.Quiz().Score(quiz, answers, 10)
	require.True(t, result.Passed)
}

func TestQuizGenerateNegativeCountReturnsInvalidInput(t *testing.T) {
	e := newTestEngine(t)
	cards := []domain.Card{{CardID: "1", SubjectID: "jp", Front: "one", Back: "ichi"}}

	_, err := e.Quiz().Generate(cards, -1, nil, nil, false)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSchedulerPreviewMatchesReviewInterval(t *testing.T) {
	e := newTestEngine(t)
	card := freshCard("c1", "math")

	preview := e.Scheduler().Preview(card)
	reviewed := e.Scheduler().Review(card, domain.RatingGood)

	require.InDelta(t, reviewed.IntervalDays*86400, preview[domain.RatingGood], 1e-6)
}

func TestSchedulerStudyQueueRespectsConfiguredLimits(t *testing.T) {
	opts := eduengine.DefaultOptions()
	opts.MaxNewCardsPerDay = 1
	opts.MaxReviewsPerDay = 1
	limited, err := eduengine.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, limited.Close()) })

	var cards []domain.Card
	for i := 0; i < 5; i++ {
		cards = append(cards, freshCard(string(rune('a'+i)), "math"))
	}

	queue := limited.Scheduler().StudyQueue(cards)
	require.Len(t, queue, 1)
}

func TestAdaptiveDefaultsToMediumForUnseenSubject(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, domain.DifficultyMedium, e.Adaptive().RecommendedDifficulty("unseen"))
}

func TestRecordStudyFeedsAdaptiveEngine(t *testing.T) {
	e := newTestEngine(t)
	card := freshCard("c1", "math")
	for i := 0; i < 2; i++ {
		e.RecordStudy(card, domain.RatingGood, 1.0)
	}
	metrics := e.Adaptive().PerformanceMetrics("math")
	require.Equal(t, 2, metrics.EventCount)
}

func TestProgressTodayEventsAndReset(t *testing.T) {
	e := newTestEngine(t)
	card := freshCard("c1", "math")
	e.RecordStudy(card, domain.RatingGood, 1.0)

	require.Len(t, e.Progress().TodayEvents(), 1)

	e.Progress().Reset()
	require.Empty(t, e.Progress().TodayEvents())
	_, ok := e.Progress().SubjectProgress("math")
	require.False(t, ok)
}

func TestGamificationResetClearsState(t *testing.T) {
	e := newTestEngine(t)
	card := freshCard("c1", "math")
	e.RecordStudy(card, domain.RatingGood, 1.0)
	require.Greater(t, e.Gamification().TotalXP(), 0)

	e.Gamification().Reset()
	require.Equal(t, 0, e.Gamification().TotalXP())
	require.Equal(t, 0, e.Gamification().CurrentStreak())
}

func TestRecommendationsReflectPersistedProgress(t *testing.T) {
	e := newTestEngine(t)
	overdueCard := domain.Card{
		CardID:       "overdue",
		SubjectID:    "math",
		TotalReviews: 3,
		CorrectCount: 3,
		NextReviewAt: time.Now().Add(-time.Hour),
		CreatedAt:    time.Now().AddDate(0, 0, -30),
	}

	// Six failed reviews make "geo" a weak area in the recorded progress.
	weakCard := freshCard("w1", "geo")
	for i := 0; i < 6; i++ {
		e.RecordStudy(weakCard, domain.RatingAgain, 1.0)
	}

	recs := e.Recommendations().Recommend([]domain.Card{overdueCard}, 10)
	require.NotEmpty(t, recs)
	require.Equal(t, domain.RecommendationOverdueReview, recs[0].Type)

	var weakSeen bool
	for _, r := range recs {
		if r.Type == domain.RecommendationWeakArea && r.SubjectID == "geo" {
			weakSeen = true
		}
	}
	require.True(t, weakSeen)
}

func TestRecordStudyPersistsAcrossNewEngineInstanceSameStore(t *testing.T) {
	opts := eduengine.DefaultOptions()
	opts.StorePath = t.TempDir() + "/eduengine_test.db"

	e1, err := eduengine.New(opts)
	require.NoError(t, err)
	card := freshCard("c1", "math")
	e1.RecordStudy(card, domain.RatingGood, 1.0)
	require.NoError(t, e1.Close())

	e2, err := eduengine.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e2.Close()) })

	sp, ok := e2.Progress().SubjectProgress("math")
	require.True(t, ok)
	require.Equal(t, 1, sp.ReviewedCards)
}
