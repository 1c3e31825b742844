package repository

import (
	"context"

	"github.com/lshigami/examhall/internal/model"
	"gorm.io/gorm"
)

// TestFilter narrows test listings. Empty fields are ignored; Scopes matches
// any of the given subject/class pairs.
type TestFilter struct {
	Statuses []model.TestStatus
	Scopes   []model.SubjectAssignment
	Session  string
}

type TestRepository interface {
	Create(ctx context.Context, test *model.TestDefinition) error
	FindByID(ctx context.Context, id uint) (*model.TestDefinition, error)
	List(ctx context.Context, filter TestFilter) ([]model.TestDefinition, error)
	Update(ctx context.Context, test *model.TestDefinition) error
	Delete(ctx context.Context, id uint) error
	FindNonDraftReferencing(ctx context.Context, questionID uint, subject, classID string) ([]model.TestDefinition, error)
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Create(ctx context.Context, test *model.TestDefinition) error {
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *testRepository) FindByID(ctx context.Context, id uint) (*model.TestDefinition, error) {
	var test model.TestDefinition
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, translate(err)
	}
	return &test, nil
}

func (r *testRepository) List(ctx context.Context, filter TestFilter) ([]model.TestDefinition, error) {
	query := r.db.WithContext(ctx).Model(&model.TestDefinition{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Session != "" {
		query = query.Where("session = ?", filter.Session)
	}
	if len(filter.Scopes) > 0 {
		scope := r.db.Where("subject = ? AND class_id = ?", filter.Scopes[0].Subject, filter.Scopes[0].ClassID)
		for _, s := range filter.Scopes[1:] {
			scope = scope.Or("subject = ? AND class_id = ?", s.Subject, s.ClassID)
		}
		query = query.Where(scope)
	}
	var tests []model.TestDefinition
	if err := query.Order("created_at desc").Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

// Update saves every column. Concurrent edits are last-write-wins.
func (r *testRepository) Update(ctx context.Context, test *model.TestDefinition) error {
	return r.db.WithContext(ctx).Save(test).Error
}

func (r *testRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.TestDefinition{}, id).Error
}

// FindNonDraftReferencing returns the non-draft tests in the question's scope
// whose question set contains questionID.
func (r *testRepository) FindNonDraftReferencing(ctx context.Context, questionID uint, subject, classID string) ([]model.TestDefinition, error) {
	var candidates []model.TestDefinition
	err := r.db.WithContext(ctx).
		Where("subject = ? AND class_id = ? AND status <> ?", subject, classID, model.StatusDraft).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	var referencing []model.TestDefinition
	for _, t := range candidates {
		if t.References(questionID) {
			referencing = append(referencing, t)
		}
	}
	return referencing, nil
}
