// Package adaptive implements the per-subject sliding-window
// difficulty-recommendation engine (spec.md §4.2).
package adaptive

import (
	"sync"

	"eduengine/domain"
)

// TargetRange is the accuracy band the engine tries to keep a subject
// within.
type TargetRange struct {
	Lower float64
	Upper float64
}

// Trend classifies the second-half-vs-first-half accuracy delta within a
// subject's window.
type Trend string

const (
	TrendStable    Trend = "stable"
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
)

// Snapshot is the metrics view returned by PerformanceMetrics.
type Snapshot struct {
	Accuracy        float64
	AvgResponseTime float64
	EventCount      int
	Difficulty      domain.Difficulty
	Trend           Trend
}

type subjectState struct {
	window     []domain.StudyEvent // ring buffer, oldest first
	difficulty domain.Difficulty
}

// Engine tracks a bounded recent-event window per subject and recommends
// a difficulty tier from its accuracy. Sensitivity is accepted and
// stored but does not affect the step-up/step-down rule (spec.md §4.2,
// §9 Open Questions).
type Engine struct {
	mu          sync.Mutex
	windowSize  int
	target      TargetRange
	sensitivity float64
	subjects    map[string]*subjectState
}

// New returns an Engine with the given window size, target accuracy
// range, and sensitivity (stored, unused by the current rule).
func New(windowSize int, target TargetRange, sensitivity float64) *Engine {
	return &Engine{
		windowSize:  windowSize,
		target:      target,
		sensitivity: sensitivity,
		subjects:    make(map[string]*subjectState),
	}
}

func (e *Engine) stateFor(subjectID string) *subjectState {
	st, ok := e.subjects[subjectID]
	if !ok {
		st = &subjectState{difficulty: domain.DifficultyMedium}
		e.subjects[subjectID] = st
	}
	return st
}

// Ingest appends event to its subject's window, evicting the oldest
// entry if the window has grown beyond windowSize, then recomputes the
// recommended difficulty for that subject.
func (e *Engine) Ingest(event domain.StudyEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.stateFor(event.SubjectID)
	st.window = append(st.window, event)
	if len(st.window) > e.windowSize {
		st.window = st.window[len(st.window)-e.windowSize:]
	}

	acc := windowAccuracy(st.window)
	switch {
	case acc > e.target.Upper:
		st.difficulty = st.difficulty.StepUp()
	case acc < e.target.Lower:
		st.difficulty = st.difficulty.StepDown()
	}
}

// RecommendedDifficulty returns the current tier for a subject, Medium
// if the subject has no recorded events yet.
func (e *Engine) RecommendedDifficulty(subjectID string) domain.Difficulty {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.subjects[subjectID]
	if !ok {
		return domain.DifficultyMedium
	}
	return st.difficulty
}

// PerformanceMetrics returns a point-in-time snapshot of a subject's
// window.
func (e *Engine) PerformanceMetrics(subjectID string) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.subjects[subjectID]
	if !ok {
		return Snapshot{Difficulty: domain.DifficultyMedium, Trend: TrendStable}
	}

	return Snapshot{
		Accuracy:        windowAccuracy(st.window),
		AvgResponseTime: windowAvgResponseTime(st.window),
		EventCount:      len(st.window),
		Difficulty:      st.difficulty,
		Trend:           windowTrend(st.window),
	}
}

// Sensitivity returns the stored sensitivity parameter, accepted per
// spec.md §4.2 for future use.
func (e *Engine) Sensitivity() float64 {
	return e.sensitivity
}

func windowAccuracy(window []domain.StudyEvent) float64 {
	if len(window) == 0 {
		return 0
	}
	correct := 0
	for _, ev := range window {
		if ev.Rating.IsCorrect() {
			correct++
		}
	}
	return float64(correct) / float64(len(window))
}

func windowAvgResponseTime(window []domain.StudyEvent) float64 {
	if len(window) == 0 {
		return 0
	}
	var total float64
	for _, ev := range window {
		total += ev.ResponseTimeS
	}
	return total / float64(len(window))
}

// windowTrend requires at least 6 events to report anything other than
// Stable (spec.md §4.2).
func windowTrend(window []domain.StudyEvent) Trend {
	if len(window) < 6 {
		return TrendStable
	}

	mid := len(window) / 2
	firstHalf := window[:mid]
	secondHalf := window[mid:]

	delta := windowAccuracy(secondHalf) - windowAccuracy(firstHalf)
	switch {
	case delta > 0.1:
		return TrendImproving
	case delta < -0.1:
		return TrendDeclining
	default:
		return TrendStable
	}
}
