// Package quizgen implements quiz synthesis and scoring (spec.md §4.4).
// Question synthesis is grounded on nomercy360-atamagaii's card content
// model (front/back pairs, internal/anki/models.go's Note.Fields) and on
// the teacher's task-generation job (internal/job/tasks.go), which turns
// due cards into one of several task-type templates; here that becomes
// "pick a QuestionType per card and synthesize a Question from it".
package quizgen

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"eduengine/domain"
)

// Engine synthesizes quizzes from a card pool and scores attempts. It is
// stateless aside from its RNG, which the host may seed for
// deterministic tests (spec.md §9). Generate serializes its use of the
// RNG under mu.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New returns an Engine. rng defaults to a new RNG seeded from the
// current time when nil; now defaults to time.Now.
func New(rng *rand.Rand, now func() time.Time) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{rng: rng, now: now}
}

const defaultPassingScore = 0.7

// Generate synthesizes a Quiz from cards, following spec.md §4.4. An
// empty card list yields an empty quiz with a fresh subject id rather
// than an error, matching the spec's explicit step 1. A negative count
// is an InvalidInput (spec.md §7) and is reported rather than clamped.
func (e *Engine) Generate(
	cards []domain.Card,
	count int,
	allowedTypes []domain.QuestionType,
	difficulty *domain.Difficulty,
	shuffle bool,
) (domain.Quiz, error) {
	if count < 0 {
		return domain.Quiz{}, fmt.Errorf("%w: count must not be negative", domain.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	if len(cards) == 0 {
		return domain.Quiz{
			QuizID:       nanoid.Must(),
			Title:        "Empty Quiz",
			SubjectID:    nanoid.Must(),
			PassingScore: defaultPassingScore,
			Difficulty:   domain.DifficultyMedium,
			CreatedAt:    now,
		}, nil
	}

	pool := make([]domain.Card, len(cards))
	copy(pool, cards)

	if difficulty != nil {
		filtered := make([]domain.Card, 0, len(pool))
		for _, c := range pool {
			if c.AuthorDifficulty == *difficulty {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
	}

	if shuffle {
		e.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	n := count
	if n > len(pool) {
		n = len(pool)
	}

	if len(allowedTypes) == 0 {
		allowedTypes = []domain.QuestionType{
			domain.QuestionMultipleChoice,
			domain.QuestionTrueFalse,
			domain.QuestionShortAnswer,
			domain.QuestionFillBlank,
			domain.QuestionMatching,
		}
	}

	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		card := pool[i]
		qType := allowedTypes[e.rng.Intn(len(allowedTypes))]
		questions = append(questions, e.synthesize(card, qType, pool))
	}

	if shuffle {
		e.rng.Shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	}

	quizDifficulty := domain.DifficultyMedium
	if difficulty != nil {
		quizDifficulty = *difficulty
	}

	return domain.Quiz{
		QuizID:       nanoid.Must(),
		Title:        fmt.Sprintf("Quiz (%d questions)", len(questions)),
		SubjectID:    pool[0].SubjectID,
		Questions:    questions,
		PassingScore: defaultPassingScore,
		Difficulty:   quizDifficulty,
		CreatedAt:    now,
	}, nil
}

// GenerateFromQueue feeds a study queue (e.g. scheduler.StudyQueue's
// output) straight into Generate, mirroring the teacher's task generator
// turning due cards into the next batch of work (SPEC_FULL.md §4.4).
func (e *Engine) GenerateFromQueue(
	queue []domain.Card,
	count int,
	allowedTypes []domain.QuestionType,
	difficulty *domain.Difficulty,
	shuffle bool,
) (domain.Quiz, error) {
	return e.Generate(queue, count, allowedTypes, difficulty, shuffle)
}

func (e *Engine) synthesize(card domain.Card, qType domain.QuestionType, pool []domain.Card) domain.Question {
	base := domain.Question{
		QuestionID:   nanoid.Must(),
		Points:       1.0,
		Difficulty:   card.AuthorDifficulty,
		SourceCardID: card.CardID,
		Explanation:  fmt.Sprintf("The correct answer is %q.", card.Back),
	}

	switch qType {
	case domain.QuestionMultipleChoice:
		return e.synthesizeMultipleChoice(card, pool, base)
	case domain.QuestionTrueFalse:
		return e.synthesizeTrueFalse(card, pool, base)
	case domain.QuestionFillBlank:
		return e.synthesizeFillBlank(card, base)
	case domain.QuestionShortAnswer:
		return e.synthesizeShortAnswer(card, base)
	case domain.QuestionMatching:
		// Single-card matching is ill-defined; fall back to short answer
		// (spec.md §4.4).
		return e.synthesizeShortAnswer(card, base)
	default:
		return e.synthesizeShortAnswer(card, base)
	}
}

func (e *Engine) synthesizeShortAnswer(card domain.Card, base domain.Question) domain.Question {
	base.Type = domain.QuestionShortAnswer
	base.Text = fmt.Sprintf("What is the answer for: %s?", card.Front)
	base.CorrectAnswers = []string{card.Back}
	if len(card.Back) > 0 {
		base.Hint = string([]rune(card.Back)[:1]) + "..."
	}
	return base
}

func (e *Engine) synthesizeFillBlank(card domain.Card, base domain.Question) domain.Question {
	tokens := strings.Fields(card.Back)
	if len(tokens) <= 2 {
		return e.synthesizeShortAnswer(card, base)
	}

	idx := e.rng.Intn(len(tokens))
	answer := tokens[idx]
	blanked := make([]string, len(tokens))
	copy(blanked, tokens)
	blanked[idx] = "____"

	base.Type = domain.QuestionFillBlank
	base.Text = fmt.Sprintf("%s: %s", card.Front, strings.Join(blanked, " "))
	base.CorrectAnswers = []string{answer}
	return base
}

func (e *Engine) synthesizeMultipleChoice(card domain.Card, pool []domain.Card, base domain.Question) domain.Question {
	base.Type = domain.QuestionMultipleChoice
	base.Text = fmt.Sprintf("Choose the correct translation for: %s", card.Front)
	base.CorrectAnswers = []string{card.Back}

	distractors := e.distinctBacks(card, pool, 3)
	options := append([]string{card.Back}, distractors...)
	e.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	base.Options = options
	return base
}

func (e *Engine) synthesizeTrueFalse(card domain.Card, pool []domain.Card, base domain.Question) domain.Question {
	base.Type = domain.QuestionTrueFalse
	base.Options = []string{"True", "False"}

	if e.rng.Float64() < 0.5 {
		base.Text = fmt.Sprintf("True or False: %s means %s", card.Front, card.Back)
		base.CorrectAnswers = []string{"True"}
		return base
	}

	distractors := e.distinctBacks(card, pool, 1)
	shownBack := card.Back
	if len(distractors) > 0 {
		shownBack = distractors[0]
	}
	base.Text = fmt.Sprintf("True or False: %s means %s", card.Front, shownBack)
	base.CorrectAnswers = []string{"False"}
	return base
}

// distinctBacks returns up to n distinct Back values from other cards in
// pool, chosen at random.
func (e *Engine) distinctBacks(exclude domain.Card, pool []domain.Card, n int) []string {
	candidates := make([]string, 0, len(pool))
	seen := map[string]bool{exclude.Back: true}
	for _, c := range pool {
		if c.CardID == exclude.CardID || seen[c.Back] {
			continue
		}
		seen[c.Back] = true
		candidates = append(candidates, c.Back)
	}

	e.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}

// Score grades a completed attempt against quiz, following the
// correctness rule in spec.md §3/§4.4. Missing answers are treated as
// an empty submitted string.
func (e *Engine) Score(quiz domain.Quiz, answers map[string]string, timeTaken float64) domain.QuizResult {
	results := make([]domain.AnswerResult, 0, len(quiz.Questions))
	var pointsEarned float64

	for _, q := range quiz.Questions {
		submitted, ok := answers[q.QuestionID]
		if !ok {
			submitted = ""
		}
		correct := q.IsCorrect(submitted)
		if correct {
			pointsEarned += q.Points
		}
		results = append(results, domain.AnswerResult{
			QuestionID: q.QuestionID,
			Submitted:  submitted,
			IsCorrect:  correct,
		})
	}

	pointsAvailable := quiz.TotalPoints()
	var score float64
	if pointsAvailable > 0 {
		score = pointsEarned / pointsAvailable
	}

	return domain.QuizResult{
		QuizID:          quiz.QuizID,
		SubjectID:       quiz.SubjectID,
		Answers:         results,
		Score:           score,
		PointsEarned:    pointsEarned,
		PointsAvailable: pointsAvailable,
		TimeTakenS:      timeTaken,
		Passed:          score >= quiz.PassingScore,
		CompletedAt:     e.now(),
	}
}
