package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question is a single multiple-choice entry in the question bank, scoped by subject and class.
type Question struct {
	ID            uint                        `gorm:"primarykey" json:"id"`
	Subject       string                      `json:"subject" gorm:"not null;index:idx_question_scope"`
	ClassID       string                      `json:"class_id" gorm:"not null;index:idx_question_scope"`
	Text          string                      `json:"text" gorm:"type:text;not null"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer string                      `json:"correct_answer" gorm:"not null"`
	Mark          int                         `json:"mark" gorm:"not null"`
	OwnerID       string                      `json:"owner_id" gorm:"not null;index"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	DeletedAt     gorm.DeletedAt              `gorm:"index" json:"-"`
}

// IsWellFormed reports whether the question can be graded: non-empty text,
// at least two non-empty options and a correct answer among them.
func (q Question) IsWellFormed() bool {
	if q.Text == "" || len(q.Options) < 2 {
		return false
	}
	found := false
	for _, opt := range q.Options {
		if opt == "" {
			return false
		}
		if opt == q.CorrectAnswer {
			found = true
		}
	}
	return found
}
