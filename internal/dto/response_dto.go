package dto

import "time"

type QuestionResponseDTO struct {
	ID            uint      `json:"id"`
	Subject       string    `json:"subject"`
	ClassID       string    `json:"class"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correctAnswer"`
	Mark          int       `json:"mark"`
	OwnerID       string    `json:"ownerId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ResultResponseDTO struct {
	ID             uint              `json:"id"`
	TestID         uint              `json:"testId"`
	UserID         string            `json:"userId"`
	Answers        map[string]string `json:"answers"`
	Correctness    map[string]bool   `json:"correctness"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"totalQuestions"`
	TotalMarks     int               `json:"totalMarks"`
	Percentage     float64           `json:"percentage"`
	Grade          string            `json:"grade"`
	Subject        string            `json:"subject"`
	ClassID        string            `json:"class"`
	Session        string            `json:"session"`
	SubmittedAt    time.Time         `json:"submittedAt"`
	OverriddenBy   *string           `json:"overriddenBy,omitempty"`
	OverriddenAt   *time.Time        `json:"overriddenAt,omitempty"`
}

type ClassAverageDTO struct {
	ClassID           string  `json:"class"`
	Subject           string  `json:"subject"`
	AcademicYear      string  `json:"session"`
	Term              string  `json:"term,omitempty"`
	Results           int64   `json:"results"`
	AverageScore      float64 `json:"averageScore"`
	AveragePercentage float64 `json:"averagePercentage"`
	Grade             string  `json:"grade"`
}

type SubmitResponseDTO struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse carries a machine-checkable reason and, for validation
// failures, per-field detail.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}
