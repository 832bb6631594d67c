package domain

import "time"

// StudyEvent is an immutable record of a single review. Once appended to
// the progress tracker's history it is never mutated.
type StudyEvent struct {
	CardID        string    `json:"card_id"`
	SubjectID     string    `json:"subject_id"`
	Rating        Rating    `json:"rating"`
	ResponseTimeS float64   `json:"response_time_s"`
	Timestamp     time.Time `json:"timestamp"`
}
