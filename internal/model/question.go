package model

// Question is one multiple-choice item of a test's answer key.
// CorrectAnswer indexes Options(): 0 = A .. 3 = D.
type Question struct {
	ID            string  `gorm:"primaryKey;size:64" json:"question_id"`
	TestID        string  `gorm:"not null;index;size:64" json:"test_id"`
	QuestionText  string  `gorm:"type:text;not null" json:"question_text"`
	OptionA       string  `gorm:"not null" json:"option_a"`
	OptionB       string  `gorm:"not null" json:"option_b"`
	OptionC       string  `gorm:"not null" json:"option_c"`
	OptionD       string  `gorm:"not null" json:"option_d"`
	CorrectAnswer int     `gorm:"not null" json:"correct_answer"`
	Marks         int     `gorm:"not null" json:"marks"`
	SolutionText  *string `gorm:"type:text" json:"solution_text,omitempty"`
	OrderInTest   int     `gorm:"not null" json:"order_in_test"`
}

const (
	MinOption = 0
	MaxOption = 3
)

func (q *Question) Options() [4]string {
	return [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// OptionText returns the text of option idx, or false when idx is out of range.
func (q *Question) OptionText(idx int) (string, bool) {
	if !ValidOption(idx) {
		return "", false
	}
	return q.Options()[idx], true
}

// ValidOption reports whether idx is a selectable option index.
func ValidOption(idx int) bool {
	return idx >= MinOption && idx <= MaxOption
}
