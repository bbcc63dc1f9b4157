package dto

type StudentLoginRequest struct {
	Mobile    string `json:"mobile" binding:"required"`
	BatchCode string `json:"batch_code" binding:"required"`
}

// CredentialsLoginRequest is shared by the teacher and admin logins.
type CredentialsLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TestAttemptSubmitDTO is the request body for a student submitting a test.
// Answers maps question_id to the selected option index (0-3); omitted questions are unanswered.
type TestAttemptSubmitDTO struct {
	Answers   map[string]int `json:"answers"`
	TimeTaken int            `json:"time_taken" binding:"min=0"`
}

type TestListFilter struct {
	SubjectID string `form:"subject_id"`
	ChapterID string `form:"chapter_id"`
}
