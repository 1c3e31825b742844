package repository

import (
	"context"

	"github.com/lshigami/examhall/internal/model"
	"gorm.io/gorm"
)

// RosterRepository reads the students' enrolled-subjects list maintained by
// the class management service.
type RosterRepository interface {
	IsEnrolled(ctx context.Context, studentID, subject, classID string) (bool, error)
	// NotEnrolled returns the ids from studentIDs that are not enrolled in subject for classID.
	NotEnrolled(ctx context.Context, studentIDs []string, subject, classID string) ([]string, error)
	Enroll(ctx context.Context, enrollment *model.Enrollment) error
}

type rosterRepository struct {
	db *gorm.DB
}

func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) IsEnrolled(ctx context.Context, studentID, subject, classID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("student_id = ? AND subject = ? AND class_id = ?", studentID, subject, classID).
		Count(&count).Error
	return count > 0, err
}

func (r *rosterRepository) NotEnrolled(ctx context.Context, studentIDs []string, subject, classID string) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	var enrolled []string
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("student_id IN ? AND subject = ? AND class_id = ?", studentIDs, subject, classID).
		Pluck("student_id", &enrolled).Error
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(enrolled))
	for _, id := range enrolled {
		known[id] = true
	}
	var missing []string
	for _, id := range studentIDs {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Enroll is used by the enroll command and tests; production enrollments are
// written by the roster owner.
func (r *rosterRepository) Enroll(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}
