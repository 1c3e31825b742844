package model

import "regexp"

// TitleCategory groups test titles that share a mark total.
type TitleCategory string

const (
	CategoryContinuousAssessment TitleCategory = "Continuous Assessment"
	CategoryExamination          TitleCategory = "Examination"
)

const (
	ContinuousAssessmentMarks = 20
	ExaminationMarks          = 60
)

// Titles is the fixed catalogue of test titles and their categories.
var Titles = map[string]TitleCategory{
	"First Continuous Assessment":  CategoryContinuousAssessment,
	"Second Continuous Assessment": CategoryContinuousAssessment,
	"Third Continuous Assessment":  CategoryContinuousAssessment,
	"Examination":                  CategoryExamination,
}

// MarksFor returns the total marks required for a category.
func (c TitleCategory) MarksFor() int {
	if c == CategoryExamination {
		return ExaminationMarks
	}
	return ContinuousAssessmentMarks
}

// SessionPattern matches academic sessions such as "2024/2025 First Term".
var SessionPattern = regexp.MustCompile(`^(\d{4}/\d{4}) (First|Second|Third) Term$`)

// SessionName builds the session string for an academic year and term.
func SessionName(year, term string) string {
	return year + " " + term + " Term"
}
