package service

import (
	"fmt"
	"math"
)

// gradeBands are checked in order; the first band whose floor the percentage
// reaches wins.
var gradeBands = []struct {
	floor float64
	grade string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B"},
	{60, "C"},
	{50, "D"},
	{40, "E"},
	{0, "F"},
}

type GradeBandService interface {
	GradeFor(score, totalMarks int) (percentage float64, grade string, err error)
	GradeForPercentage(percentage float64) string
}

type gradeBandService struct{}

func NewGradeBandService() GradeBandService {
	return &gradeBandService{}
}

// GradeFor converts a raw score into a percentage (two decimals) and its letter band.
func (s *gradeBandService) GradeFor(score, totalMarks int) (float64, string, error) {
	if totalMarks <= 0 {
		return 0, "", fmt.Errorf("total marks must be positive, got %d", totalMarks)
	}
	if score < 0 || score > totalMarks {
		return 0, "", fmt.Errorf("score %d is out of valid range (0-%d)", score, totalMarks)
	}
	percentage := round2(float64(score) / float64(totalMarks) * 100)
	return percentage, s.GradeForPercentage(percentage), nil
}

func (s *gradeBandService) GradeForPercentage(percentage float64) string {
	for _, band := range gradeBands {
		if percentage >= band.floor {
			return band.grade
		}
	}
	return "F"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
