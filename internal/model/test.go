package model

import "time"

const (
	TestTypeChapter = "chapter"
	TestTypeFull    = "full"
)

type Test struct {
	ID           string     `gorm:"primaryKey;size:64" json:"test_id"`
	SubjectID    *string    `gorm:"index;size:64" json:"subject_id,omitempty"`
	ChapterID    *string    `gorm:"index;size:64" json:"chapter_id,omitempty"`
	TestType     string     `gorm:"not null" json:"test_type"` // "chapter", "full"
	Title        string     `gorm:"not null" json:"title"`
	Description  string     `json:"description,omitempty"`
	DurationMins int        `gorm:"not null" json:"duration_mins"`
	TotalMarks   int        `gorm:"not null" json:"total_marks"`
	PassingMarks int        `gorm:"not null" json:"passing_marks"`
	CreatedBy    string     `gorm:"not null;size:64" json:"created_by"`
	Questions    []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
