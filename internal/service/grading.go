package service

import (
	"strconv"

	"github.com/lshigami/examhall/internal/model"
)

// Grade is the outcome of scoring one answer set.
type Grade struct {
	Score       int
	Answers     map[string]string
	Correctness map[string]bool
}

// GradeAnswers scores answers against questions, which must be aligned with
// test.Questions. A question with no selected option is incorrect. Marks come
// from the test's allocation, falling back to the question's own mark.
// Answers for questions outside the test are dropped.
func GradeAnswers(test model.TestDefinition, questions []model.Question, answers map[string]string) Grade {
	grade := Grade{
		Answers:     make(map[string]string, len(questions)),
		Correctness: make(map[string]bool, len(questions)),
	}
	for i, q := range questions {
		key := strconv.FormatUint(uint64(q.ID), 10)
		selected, answered := answers[key]
		if answered {
			grade.Answers[key] = selected
		}
		correct := answered && selected == q.CorrectAnswer
		grade.Correctness[key] = correct
		if !correct {
			continue
		}
		mark := q.Mark
		if i < len(test.QuestionMarks) {
			mark = test.QuestionMarks[i]
		}
		grade.Score += mark
	}
	return grade
}
