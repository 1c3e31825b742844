package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/model"
)

// TestCandidate is a complete test definition as it would be stored.
type TestCandidate struct {
	Title         string
	Subject       string
	ClassID       string
	Session       string
	Duration      int
	QuestionCount int
	TotalMarks    int
	Questions     []uint
	QuestionMarks []int
}

// ValidateTestDefinition checks every rule a stored test must satisfy and
// returns all violations. questions holds the bank entries found for
// c.Questions; ids without an entry are reported as missing.
func ValidateTestDefinition(c TestCandidate, questions []model.Question) []apperror.FieldError {
	var errs []apperror.FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, apperror.FieldError{Field: field, Error: fmt.Sprintf(format, args...)})
	}

	category, knownTitle := model.Titles[c.Title]
	if !knownTitle {
		add("title", "must be one of: %s", strings.Join(titleNames(), ", "))
	}
	if c.Subject == "" {
		add("subject", "is required")
	}
	if c.ClassID == "" {
		add("class", "is required")
	}
	if !model.SessionPattern.MatchString(c.Session) {
		add("session", `must look like "2024/2025 First Term"`)
	}
	if c.Duration <= 0 {
		add("duration", "must be a positive number of minutes")
	}
	if c.QuestionCount <= 0 {
		add("questionCount", "must be positive")
	}
	if c.TotalMarks <= 0 {
		add("totalMarks", "must be positive")
	} else if knownTitle && c.TotalMarks != category.MarksFor() {
		add("totalMarks", "must be %d for %s tests", category.MarksFor(), category)
	}

	if c.QuestionCount > 0 && len(c.Questions) > c.QuestionCount {
		add("questions", "has %d questions but questionCount is %d", len(c.Questions), c.QuestionCount)
	}
	if len(c.QuestionMarks) != len(c.Questions) {
		add("questionMarks", "has %d entries but %d questions were selected", len(c.QuestionMarks), len(c.Questions))
	}

	seen := make(map[uint]bool, len(c.Questions))
	for _, id := range c.Questions {
		if seen[id] {
			add("questions", "question %d is selected more than once", id)
		}
		seen[id] = true
	}

	byID := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	for i, id := range c.Questions {
		q, ok := byID[id]
		field := fmt.Sprintf("questions[%d]", i)
		if !ok {
			add(field, "question %d does not exist", id)
			continue
		}
		if q.Subject != c.Subject || q.ClassID != c.ClassID {
			add(field, "question %d belongs to %s/%s, not %s/%s", id, q.Subject, q.ClassID, c.Subject, c.ClassID)
		}
		if !q.IsWellFormed() {
			add(field, "question %d is malformed", id)
		}
	}

	if len(c.Questions) > 0 {
		sum := 0
		for i, m := range c.QuestionMarks {
			if m <= 0 {
				add(fmt.Sprintf("questionMarks[%d]", i), "must be positive")
			}
			sum += m
		}
		if sum != c.TotalMarks {
			add("questionMarks", "must add up to %d, got %d", c.TotalMarks, sum)
		}
	}
	return errs
}

// ValidateQuestionShape checks a question bank entry before it is stored.
func ValidateQuestionShape(q model.Question) []apperror.FieldError {
	var errs []apperror.FieldError
	add := func(field, msg string) {
		errs = append(errs, apperror.FieldError{Field: field, Error: msg})
	}
	if strings.TrimSpace(q.Subject) == "" {
		add("subject", "is required")
	}
	if strings.TrimSpace(q.ClassID) == "" {
		add("class", "is required")
	}
	if strings.TrimSpace(q.Text) == "" {
		add("text", "is required")
	}
	if len(q.Options) < 2 {
		add("options", "must have at least 2 options")
	}
	distinct := make(map[string]bool, len(q.Options))
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			add(fmt.Sprintf("options[%d]", i), "must not be empty")
			continue
		}
		if distinct[opt] {
			add(fmt.Sprintf("options[%d]", i), "duplicates another option")
		}
		distinct[opt] = true
	}
	if !distinct[q.CorrectAnswer] {
		add("correctAnswer", "must be one of the options")
	}
	if q.Mark <= 0 {
		add("mark", "must be positive")
	}
	return errs
}

func titleNames() []string {
	names := make([]string, 0, len(model.Titles))
	for name := range model.Titles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
