package dto

import "time"

// QuestionResponseDTO is the student view of a question; it never carries the answer key.
type QuestionResponseDTO struct {
	ID           string `json:"question_id"`
	TestID       string `json:"test_id"`
	QuestionText string `json:"question_text"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
	Marks        int    `json:"marks"`
	OrderInTest  int    `json:"order_in_test"`
	// Set only for teachers and admins.
	CorrectAnswer *int    `json:"correct_answer,omitempty"`
	SolutionText  *string `json:"solution_text,omitempty"`
}

// TestResponseDTO is used for displaying full test details.
type TestResponseDTO struct {
	ID           string                `json:"test_id"`
	SubjectID    *string               `json:"subject_id,omitempty"`
	ChapterID    *string               `json:"chapter_id,omitempty"`
	TestType     string                `json:"test_type"`
	Title        string                `json:"title"`
	Description  string                `json:"description,omitempty"`
	DurationMins int                   `json:"duration_mins"`
	TotalMarks   int                   `json:"total_marks"`
	PassingMarks int                   `json:"passing_marks"`
	CreatedBy    string                `json:"created_by"`
	Questions    []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// TestSummaryDTO is used for listing tests.
type TestSummaryDTO struct {
	ID            string    `json:"test_id"`
	SubjectID     *string   `json:"subject_id,omitempty"`
	ChapterID     *string   `json:"chapter_id,omitempty"`
	TestType      string    `json:"test_type"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	DurationMins  int       `json:"duration_mins"`
	TotalMarks    int       `json:"total_marks"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// --- DTOs for Test Attempts ---

// SubmitResultDTO is returned right after a submission.
// Rank is eventually consistent; the leaderboard is authoritative.
type SubmitResultDTO struct {
	AttemptID  string  `json:"attempt_id"`
	Score      int     `json:"score"`
	Rank       int     `json:"rank"`
	TotalMarks int     `json:"total_marks"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
	// RankPending is set when the attempt was stored but ranking did not complete.
	RankPending bool `json:"rank_pending,omitempty"`
}

// AnswerResponseDTO is one graded question within an attempt.
type AnswerResponseDTO struct {
	QuestionID     string  `json:"question_id"`
	QuestionText   string  `json:"question_text"`
	SelectedOption *int    `json:"selected_option,omitempty"`
	SelectedText   *string `json:"selected_option_text,omitempty"`
	CorrectAnswer  int     `json:"correct_answer"`
	CorrectText    string  `json:"correct_option_text"`
	IsCorrect      bool    `json:"is_correct"`
	Marks          int     `json:"marks"`
	MarksAwarded   int     `json:"marks_awarded"`
	SolutionText   *string `json:"solution_text,omitempty"`
}

// TestAttemptDetailDTO is for displaying the full details of a specific test attempt.
type TestAttemptDetailDTO struct {
	ID          string              `json:"attempt_id"`
	TestID      string              `json:"test_id"`
	TestTitle   string              `json:"test_title,omitempty"`
	StudentID   string              `json:"student_id"`
	Score       int                 `json:"score"`
	Rank        int                 `json:"rank"`
	TotalMarks  int                 `json:"total_marks"`
	Percentage  float64             `json:"percentage"`
	Passed      bool                `json:"passed"`
	TimeTaken   int                 `json:"time_taken"`
	CompletedAt time.Time           `json:"completed_at"`
	Answers     []AnswerResponseDTO `json:"answers"`
}

// TestAttemptSummaryDTO is for listing a student's attempts for a particular test.
type TestAttemptSummaryDTO struct {
	ID          string    `json:"attempt_id"`
	TestID      string    `json:"test_id"`
	StudentID   string    `json:"student_id"`
	Score       int       `json:"score"`
	Rank        int       `json:"rank"`
	TimeTaken   int       `json:"time_taken"`
	CompletedAt time.Time `json:"completed_at"`
}

type LeaderboardEntryDTO struct {
	Rank        int       `json:"rank"`
	AttemptID   string    `json:"attempt_id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Score       int       `json:"score"`
	TimeTaken   int       `json:"time_taken"`
	CompletedAt time.Time `json:"completed_at"`
}
