package domain

import "time"

// QuestionType enumerates the synthesis strategies the quiz engine can
// use to turn a card into a question (spec.md §4.4).
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionFillBlank      QuestionType = "fill_blank"
	QuestionMatching       QuestionType = "matching"
)

// Question is a single synthesized quiz item.
type Question struct {
	QuestionID      string       `json:"question_id"`
	Text            string       `json:"text"`
	Type            QuestionType `json:"type"`
	Options         []string     `json:"options,omitempty"`
	CorrectAnswers  []string     `json:"correct_answers"`
	Hint            string       `json:"hint,omitempty"`
	Explanation     string       `json:"explanation,omitempty"`
	Points          float64      `json:"points"`
	Difficulty      Difficulty   `json:"difficulty"`
	SourceCardID    string       `json:"source_card_id,omitempty"`
}

// IsCorrect applies the case-insensitive, whitespace-trimmed correctness
// rule from spec.md §3 to a submitted answer.
func (q Question) IsCorrect(submitted string) bool {
	norm := normalizeAnswer(submitted)
	for _, a := range q.CorrectAnswers {
		if normalizeAnswer(a) == norm {
			return true
		}
	}
	return false
}

// Quiz is an ordered set of questions over a single subject.
type Quiz struct {
	QuizID        string     `json:"quiz_id"`
	Title         string     `json:"title"`
	SubjectID     string     `json:"subject_id"`
	Questions     []Question `json:"questions"`
	TimeLimitS    *float64   `json:"time_limit_s,omitempty"`
	PassingScore  float64    `json:"passing_score"`
	Difficulty    Difficulty `json:"difficulty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TotalPoints sums every question's point value.
func (q Quiz) TotalPoints() float64 {
	var total float64
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// AnswerResult records the grading outcome for one submitted question.
type AnswerResult struct {
	QuestionID    string  `json:"question_id"`
	Submitted     string  `json:"submitted"`
	IsCorrect     bool    `json:"is_correct"`
	ResponseTimeS float64 `json:"response_time"`
}

// QuizResult is the graded outcome of a completed Quiz attempt.
type QuizResult struct {
	QuizID          string         `json:"quiz_id"`
	SubjectID       string         `json:"subject_id"`
	Answers         []AnswerResult `json:"answers"`
	Score           float64        `json:"score"`
	PointsEarned    float64        `json:"points_earned"`
	PointsAvailable float64        `json:"points_available"`
	TimeTakenS      float64        `json:"time_taken"`
	Passed          bool           `json:"passed"`
	CompletedAt     time.Time      `json:"completed_at"`
}
