package dto

import "time"

// TestCreateDTO is the teacher's test definition. Questions and QuestionMarks
// are optional on create and must be parallel when present.
type TestCreateDTO struct {
	Title         string `json:"title" binding:"required"`
	Subject       string `json:"subject" binding:"required"`
	ClassID       string `json:"class" binding:"required"`
	Session       string `json:"session" binding:"required"`
	Duration      int    `json:"duration"`
	QuestionCount int    `json:"questionCount"`
	TotalMarks    int    `json:"totalMarks"`
	Questions     []uint `json:"questions"`
	QuestionMarks []int  `json:"questionMarks"`
	Instructions  string `json:"instructions"`
	Randomize     bool   `json:"randomize"`
}

// QuestionSetUpdateDTO replaces the question selection of a draft test.
type QuestionSetUpdateDTO struct {
	Questions     []uint `json:"questions"`
	QuestionMarks []int  `json:"questionMarks"`
}

// ScheduleWindowDTO is a batch's [start, end] submission window.
type ScheduleWindowDTO struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

// BatchResponseDTO describes one batch of a test.
type BatchResponseDTO struct {
	Name     string            `json:"name"`
	Students []string          `json:"students"`
	Schedule ScheduleWindowDTO `json:"schedule"`
	Active   bool              `json:"active"`
}

// TestResponseDTO is the staff view of a test definition.
type TestResponseDTO struct {
	ID              uint                  `json:"id"`
	Title           string                `json:"title"`
	Subject         string                `json:"subject"`
	ClassID         string                `json:"class"`
	Session         string                `json:"session"`
	Duration        int                   `json:"duration"`
	QuestionCount   int                   `json:"questionCount"`
	TotalMarks      int                   `json:"totalMarks"`
	Instructions    string                `json:"instructions,omitempty"`
	Randomize       bool                  `json:"randomize"`
	Questions       []uint                `json:"questions"`
	QuestionMarks   []int                 `json:"questionMarks"`
	Status          string                `json:"status"`
	EffectiveStatus string                `json:"effectiveStatus"`
	Batches         []BatchResponseDTO    `json:"batches"`
	QuestionDetails []QuestionResponseDTO `json:"questionDetails,omitempty"`
	CreatedBy       string                `json:"createdBy"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// StudentQuestionDTO is a question as shown to a student: no correct answer.
type StudentQuestionDTO struct {
	ID      uint     `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Mark    int      `json:"mark"`
}

// StudentTestDTO is the student view of a scheduled test.
type StudentTestDTO struct {
	ID           uint                 `json:"id"`
	Title        string               `json:"title"`
	Subject      string               `json:"subject"`
	ClassID      string               `json:"class"`
	Session      string               `json:"session"`
	Duration     int                  `json:"duration"`
	TotalMarks   int                  `json:"totalMarks"`
	Instructions string               `json:"instructions,omitempty"`
	Status       string               `json:"status"`
	Batch        string               `json:"batch"`
	Schedule     ScheduleWindowDTO    `json:"schedule"`
	Questions    []StudentQuestionDTO `json:"questions,omitempty"`
}
