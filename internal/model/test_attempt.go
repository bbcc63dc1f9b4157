package model

import "time"

// TestAttempt is one student's single submission to one test.
// Score is write-once; Rank is rewritten whenever the test receives a new attempt.
// Rank 0 means the attempt has not been ranked yet.
type TestAttempt struct {
	ID          string    `gorm:"primaryKey;size:64" json:"attempt_id"`
	TestID      string    `gorm:"not null;index;size:64" json:"test_id"`
	StudentID   string    `gorm:"not null;index;size:64" json:"student_id"`
	Answers     []Answer  `gorm:"foreignKey:TestAttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"answers,omitempty"`
	Score       int       `gorm:"not null" json:"score"`
	Rank        int       `gorm:"not null;default:0" json:"rank"`
	TimeTaken   int       `gorm:"not null" json:"time_taken"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}

// AnswerMap returns the submitted answers keyed by question id.
func (a *TestAttempt) AnswerMap() map[string]int {
	m := make(map[string]int, len(a.Answers))
	for _, ans := range a.Answers {
		m[ans.QuestionID] = ans.SelectedOption
	}
	return m
}
