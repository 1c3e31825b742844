package service

import (
	"strings"
	"testing"

	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/model"
	"github.com/stretchr/testify/assert"
)

func validQuestion(id uint, mark int) model.Question {
	return model.Question{
		ID:            id,
		Subject:       testSubject,
		ClassID:       testClass,
		Text:          "What is 2 + 2?",
		Options:       []string{"3", "4", "5"},
		CorrectAnswer: "4",
		Mark:          mark,
	}
}

func validCandidate() TestCandidate {
	return TestCandidate{
		Title:         "Examination",
		Subject:       testSubject,
		ClassID:       testClass,
		Session:       testSession,
		Duration:      90,
		QuestionCount: 3,
		TotalMarks:    60,
		Questions:     []uint{1, 2, 3},
		QuestionMarks: []int{20, 20, 20},
	}
}

func validQuestions() []model.Question {
	return []model.Question{validQuestion(1, 20), validQuestion(2, 20), validQuestion(3, 20)}
}

func fieldErrorFor(errs []apperror.FieldError, field string) (apperror.FieldError, bool) {
	for _, e := range errs {
		if e.Field == field {
			return e, true
		}
	}
	return apperror.FieldError{}, false
}

func TestValidateTestDefinitionAcceptsValidExam(t *testing.T) {
	assert.Empty(t, ValidateTestDefinition(validCandidate(), validQuestions()))
}

func TestValidateTestDefinitionMarkSum(t *testing.T) {
	c := validCandidate()
	c.QuestionMarks = []int{20, 20, 10}

	errs := ValidateTestDefinition(c, validQuestions())
	fe, ok := fieldErrorFor(errs, "questionMarks")
	if assert.True(t, ok, "expected a questionMarks error, got %v", errs) {
		assert.Contains(t, fe.Error, "60")
		assert.Contains(t, fe.Error, "50")
	}
}

func TestValidateTestDefinitionRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TestCandidate)
		qs     func() []model.Question
		field  string
	}{
		{"unknown title", func(c *TestCandidate) { c.Title = "Pop Quiz" }, validQuestions, "title"},
		{"CA must be 20", func(c *TestCandidate) { c.Title = "First Continuous Assessment" }, validQuestions, "totalMarks"},
		{"bad session", func(c *TestCandidate) { c.Session = "2024-2025 First Term" }, validQuestions, "session"},
		{"bad term", func(c *TestCandidate) { c.Session = "2024/2025 Fourth Term" }, validQuestions, "session"},
		{"zero duration", func(c *TestCandidate) { c.Duration = 0 }, validQuestions, "duration"},
		{"zero question count", func(c *TestCandidate) { c.QuestionCount = 0 }, validQuestions, "questionCount"},
		{"too many questions", func(c *TestCandidate) { c.QuestionCount = 2 }, validQuestions, "questions"},
		{"marks not parallel", func(c *TestCandidate) { c.QuestionMarks = []int{30, 30} }, validQuestions, "questionMarks"},
		{"duplicate question", func(c *TestCandidate) { c.Questions = []uint{1, 1, 3} }, validQuestions, "questions"},
		{"missing question", func(c *TestCandidate) { c.Questions = []uint{1, 2, 9} }, validQuestions, "questions[2]"},
		{"non-positive mark", func(c *TestCandidate) { c.QuestionMarks = []int{0, 30, 30} }, validQuestions, "questionMarks[0]"},
		{
			"question from another class",
			func(c *TestCandidate) {},
			func() []model.Question {
				qs := validQuestions()
				qs[1].ClassID = "SS1B"
				return qs
			},
			"questions[1]",
		},
		{
			"malformed question",
			func(c *TestCandidate) {},
			func() []model.Question {
				qs := validQuestions()
				qs[0].CorrectAnswer = "7"
				return qs
			},
			"questions[0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			tt.mutate(&c)
			errs := ValidateTestDefinition(c, tt.qs())
			_, ok := fieldErrorFor(errs, tt.field)
			assert.True(t, ok, "expected an error on %s, got %v", tt.field, errs)
		})
	}
}

func TestValidateTestDefinitionAllowsEmptyQuestionSet(t *testing.T) {
	c := validCandidate()
	c.Questions = nil
	c.QuestionMarks = nil
	assert.Empty(t, ValidateTestDefinition(c, nil))
}

func TestValidateTestDefinitionReportsEveryViolation(t *testing.T) {
	c := validCandidate()
	c.Title = "Quiz"
	c.Session = "First Term"
	c.Duration = -5

	errs := ValidateTestDefinition(c, validQuestions())
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	joined := strings.Join(fields, ",")
	assert.Contains(t, joined, "title")
	assert.Contains(t, joined, "session")
	assert.Contains(t, joined, "duration")
}

func TestValidateQuestionShape(t *testing.T) {
	q := validQuestion(1, 5)
	assert.Empty(t, ValidateQuestionShape(q))

	q.Options = []string{"4", "4"}
	_, ok := fieldErrorFor(ValidateQuestionShape(q), "options[1]")
	assert.True(t, ok)

	q = validQuestion(1, 5)
	q.CorrectAnswer = "6"
	_, ok = fieldErrorFor(ValidateQuestionShape(q), "correctAnswer")
	assert.True(t, ok)

	q = validQuestion(1, 0)
	_, ok = fieldErrorFor(ValidateQuestionShape(q), "mark")
	assert.True(t, ok)
}
