package service

import (
	"fmt"
	"math"
)

// ScoreResult is a raw score placed against its test's marking scheme.
type ScoreResult struct {
	Percentage float64
	Passed     bool
}

type ScoreConverterService interface {
	Evaluate(score, totalMarks, passingMarks int) (ScoreResult, error)
}

type scoreConverterServiceImpl struct{}

func NewScoreConverterService() ScoreConverterService {
	return &scoreConverterServiceImpl{}
}

// Evaluate returns the percentage rounded to two decimals and whether the
// score reaches the passing marks. A test worth zero marks yields 0%.
func (s *scoreConverterServiceImpl) Evaluate(score, totalMarks, passingMarks int) (ScoreResult, error) {
	if score < 0 || (totalMarks > 0 && score > totalMarks) {
		return ScoreResult{}, fmt.Errorf("raw score %d is out of valid range (0-%d)", score, totalMarks)
	}
	if totalMarks <= 0 {
		return ScoreResult{Percentage: 0, Passed: score >= passingMarks}, nil
	}
	pct := float64(score) / float64(totalMarks) * 100
	return ScoreResult{
		Percentage: math.Round(pct*100) / 100,
		Passed:     score >= passingMarks,
	}, nil
}
