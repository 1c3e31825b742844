package model

import (
	"time"

	"gorm.io/datatypes"
)

// Result is the single graded record of one student's attempt at one test.
// The (test_id, user_id) unique index is what prevents double submission.
type Result struct {
	ID             uint                                  `gorm:"primarykey" json:"id"`
	TestID         uint                                  `json:"test_id" gorm:"not null;uniqueIndex:idx_result_test_user"`
	UserID         string                                `json:"user_id" gorm:"not null;uniqueIndex:idx_result_test_user;index"`
	Answers        datatypes.JSONType[map[string]string] `json:"answers"`
	Correctness    datatypes.JSONType[map[string]bool]   `json:"correctness"`
	Score          int                                   `json:"score" gorm:"not null"`
	TotalQuestions int                                   `json:"total_questions" gorm:"not null"`
	TotalMarks     int                                   `json:"total_marks" gorm:"not null"`
	Subject        string                                `json:"subject" gorm:"not null;index:idx_result_scope"`
	ClassID        string                                `json:"class_id" gorm:"not null;index:idx_result_scope"`
	Session        string                                `json:"session" gorm:"not null;index:idx_result_scope"`
	SubmittedAt    time.Time                             `json:"submitted_at" gorm:"not null"`
	OverriddenBy   *string                               `json:"overridden_by,omitempty"`
	OverriddenAt   *time.Time                            `json:"overridden_at,omitempty"`
	CreatedAt      time.Time                             `json:"created_at"`
	UpdatedAt      time.Time                             `json:"updated_at"`
}
