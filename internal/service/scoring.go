package service

import "github.com/verticalstudies/coaching-api/internal/model"

// ScoreAnswers sums the marks of every question answered with its correct option.
// Unanswered questions and answers for unknown question ids earn nothing.
func ScoreAnswers(answers map[string]int, questions []model.Question) int {
	total := 0
	for _, q := range questions {
		if selected, ok := answers[q.ID]; ok && selected == q.CorrectAnswer {
			total += q.Marks
		}
	}
	return total
}

// GradedQuestion is the per-question outcome behind ScoreAnswers.
type GradedQuestion struct {
	Question     model.Question
	Selected     *int
	Correct      bool
	MarksAwarded int
}

// GradeAnswers grades each question in order. The awarded marks always sum to ScoreAnswers.
func GradeAnswers(answers map[string]int, questions []model.Question) []GradedQuestion {
	graded := make([]GradedQuestion, 0, len(questions))
	for _, q := range questions {
		g := GradedQuestion{Question: q}
		if selected, ok := answers[q.ID]; ok {
			sel := selected
			g.Selected = &sel
			if selected == q.CorrectAnswer {
				g.Correct = true
				g.MarksAwarded = q.Marks
			}
		}
		graded = append(graded, g)
	}
	return graded
}

// validateAnswers rejects option indexes outside the four choices.
func validateAnswers(answers map[string]int) error {
	for qid, opt := range answers {
		if qid == "" {
			return validationError("answer with empty question id")
		}
		if !model.ValidOption(opt) {
			return validationError("answer %d for question %s is outside %d-%d", opt, qid, model.MinOption, model.MaxOption)
		}
	}
	return nil
}
