package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TestStatus is the lifecycle state of a TestDefinition.
type TestStatus string

const (
	StatusDraft     TestStatus = "draft"
	StatusScheduled TestStatus = "scheduled"
	StatusActive    TestStatus = "active"
	StatusCompleted TestStatus = "completed"
	StatusCancelled TestStatus = "cancelled"
)

var statusRank = map[TestStatus]int{
	StatusDraft:     0,
	StatusScheduled: 1,
	StatusActive:    2,
	StatusCompleted: 3,
}

// IsValid reports whether s is one of the known statuses.
func (s TestStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// IsTerminal reports whether no further transition is possible.
func (s TestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Status only advances along draft -> scheduled -> active -> completed; any
// non-completed status may be cancelled. Re-asserting the current status is
// allowed while the test is not terminal.
func (s TestStatus) CanTransitionTo(next TestStatus) bool {
	if !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == StatusCancelled || next == s {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Batch is a named group of students sharing one submission window.
// Batches are embedded in their TestDefinition and have no identity of their own.
// An inactive batch stays visible to its students but accepts no submissions.
type Batch struct {
	Name        string    `json:"name"`
	StudentIDs  []string  `json:"student_ids"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Active      bool      `json:"active"`
}

// Contains reports whether userID is on the batch roster.
func (b Batch) Contains(userID string) bool {
	for _, id := range b.StudentIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsOpen reports whether now lies inside the closed window [WindowStart, WindowEnd].
func (b Batch) IsOpen(now time.Time) bool {
	return !now.Before(b.WindowStart) && !now.After(b.WindowEnd)
}

// TestDefinition is a teacher-authored assessment referencing question bank entries.
type TestDefinition struct {
	ID            uint                       `gorm:"primarykey" json:"id"`
	Title         string                     `json:"title" gorm:"not null"`
	Subject       string                     `json:"subject" gorm:"not null;index:idx_test_scope"`
	ClassID       string                     `json:"class_id" gorm:"not null;index:idx_test_scope"`
	Session       string                     `json:"session" gorm:"not null;index"`
	Duration      int                        `json:"duration" gorm:"not null"` // minutes
	QuestionCount int                        `json:"question_count" gorm:"not null"`
	TotalMarks    int                        `json:"total_marks" gorm:"not null"`
	Instructions  string                     `json:"instructions,omitempty" gorm:"type:text"`
	Randomize     bool                       `json:"randomize"`
	Questions     datatypes.JSONSlice[uint]  `json:"questions"`
	QuestionMarks datatypes.JSONSlice[int]   `json:"question_marks"`
	Status        TestStatus                 `json:"status" gorm:"not null;default:'draft';index"`
	Batches       datatypes.JSONSlice[Batch] `json:"batches"`
	CreatedBy     string                     `json:"created_by" gorm:"not null;index"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
	DeletedAt     gorm.DeletedAt             `gorm:"index" json:"-"`
}

// BatchFor returns the first batch whose roster contains userID.
func (t TestDefinition) BatchFor(userID string) (Batch, bool) {
	for _, b := range t.Batches {
		if b.Contains(userID) {
			return b, true
		}
	}
	return Batch{}, false
}

// MarkSum returns the sum of the per-question mark allocations.
func (t TestDefinition) MarkSum() int {
	sum := 0
	for _, m := range t.QuestionMarks {
		sum += m
	}
	return sum
}

// References reports whether questionID is part of the test's question set.
func (t TestDefinition) References(questionID uint) bool {
	for _, id := range t.Questions {
		if id == questionID {
			return true
		}
	}
	return false
}

// EffectiveStatus derives the informational status at now. A scheduled test
// is active while now is inside any batch window, and completed once every
// window has closed. Stored statuses other than scheduled are returned as is.
func (t TestDefinition) EffectiveStatus(now time.Time) TestStatus {
	if t.Status != StatusScheduled || len(t.Batches) == 0 {
		return t.Status
	}
	allClosed := true
	for _, b := range t.Batches {
		if b.IsOpen(now) {
			return StatusActive
		}
		if !now.After(b.WindowEnd) {
			allClosed = false
		}
	}
	if allClosed {
		return StatusCompleted
	}
	return StatusScheduled
}
