package dto

// QuestionCreateDTO is used within TestCreateDTO for test creation.
type QuestionCreateDTO struct {
	QuestionText  string  `json:"question_text" binding:"required"`
	OptionA       string  `json:"option_a" binding:"required"`
	OptionB       string  `json:"option_b" binding:"required"`
	OptionC       string  `json:"option_c" binding:"required"`
	OptionD       string  `json:"option_d" binding:"required"`
	CorrectAnswer int     `json:"correct_answer" binding:"min=0,max=3"`
	Marks         int     `json:"marks" binding:"required,gt=0"`
	SolutionText  *string `json:"solution_text,omitempty"`
}

// TestCreateDTO is for a teacher or admin to create a test together with its answer key.
type TestCreateDTO struct {
	SubjectID    *string             `json:"subject_id,omitempty"`
	ChapterID    *string             `json:"chapter_id,omitempty"`
	TestType     string              `json:"test_type" binding:"required,oneof=chapter full"`
	Title        string              `json:"title" binding:"required"`
	Description  string              `json:"description,omitempty"`
	DurationMins int                 `json:"duration_mins" binding:"required,gt=0"`
	PassingMarks int                 `json:"passing_marks" binding:"min=0"`
	Questions    []QuestionCreateDTO `json:"questions" binding:"required,min=1,max=200,dive"`
}

// GenerateQuestionsDTO asks the LLM for draft questions on a topic.
type GenerateQuestionsDTO struct {
	Topic      string `json:"topic" binding:"required"`
	Count      int    `json:"count" binding:"required,min=1,max=20"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	MarksEach  int    `json:"marks_each" binding:"omitempty,gt=0"`
}

// GeneratedQuestionsDTO holds drafts in the same shape TestCreateDTO accepts.
type GeneratedQuestionsDTO struct {
	Topic     string              `json:"topic"`
	Questions []QuestionCreateDTO `json:"questions"`
}
