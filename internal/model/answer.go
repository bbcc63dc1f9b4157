package model

type Answer struct {
	ID             uint   `gorm:"primarykey" json:"-"`
	TestAttemptID  string `gorm:"not null;index;size:64" json:"attempt_id"`
	QuestionID     string `gorm:"not null;size:64" json:"question_id"`
	SelectedOption int    `gorm:"not null" json:"selected_option"`
}
