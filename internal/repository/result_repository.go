package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/lshigami/examhall/internal/model"
	"gorm.io/gorm"
)

// ErrDuplicateResult is returned by Create when a result already exists for the
// same (test, user) pair.
var ErrDuplicateResult = errors.New("result already exists for this test and user")

// ClassAverage summarises the results of one class in one subject.
type ClassAverage struct {
	Count             int64   `json:"count"`
	AverageScore      float64 `json:"average_score"`
	AveragePercentage float64 `json:"average_percentage"`
}

type ResultRepository interface {
	Create(ctx context.Context, result *model.Result) error
	FindByID(ctx context.Context, id uint) (*model.Result, error)
	FindByTest(ctx context.Context, testID uint) ([]model.Result, error)
	FindByTestAndUser(ctx context.Context, testID uint, userID string) (*model.Result, error)
	FindByStudentAndSession(ctx context.Context, userID, session string) ([]model.Result, error)
	ClassAverage(ctx context.Context, classID, subject, academicYear, term string) (ClassAverage, error)
	Update(ctx context.Context, result *model.Result) error
}

type resultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// Create inserts a new result. The unique index on (test_id, user_id) decides
// the winner when the same pair is submitted concurrently.
func (r *resultRepository) Create(ctx context.Context, result *model.Result) error {
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateResult
		}
		return err
	}
	return nil
}

func (r *resultRepository) FindByID(ctx context.Context, id uint) (*model.Result, error) {
	var result model.Result
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, translate(err)
	}
	return &result, nil
}

func (r *resultRepository) FindByTest(ctx context.Context, testID uint) ([]model.Result, error) {
	var results []model.Result
	err := r.db.WithContext(ctx).Where("test_id = ?", testID).Order("submitted_at ASC").Find(&results).Error
	return results, err
}

// FindByTestAndUser backs a student's view of their own result for one test.
func (r *resultRepository) FindByTestAndUser(ctx context.Context, testID uint, userID string) (*model.Result, error) {
	var result model.Result
	err := r.db.WithContext(ctx).Where("test_id = ? AND user_id = ?", testID, userID).First(&result).Error
	if err != nil {
		return nil, translate(err)
	}
	return &result, nil
}

func (r *resultRepository) FindByStudentAndSession(ctx context.Context, userID, session string) ([]model.Result, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if session != "" {
		query = query.Where("session = ?", session)
	}
	var results []model.Result
	err := query.Order("submitted_at DESC").Find(&results).Error
	return results, err
}

// ClassAverage aggregates over the results of a class and subject for an
// academic year ("2024/2025"). An empty term covers every term of the year.
func (r *resultRepository) ClassAverage(ctx context.Context, classID, subject, academicYear, term string) (ClassAverage, error) {
	query := r.db.WithContext(ctx).Model(&model.Result{}).
		Select("COUNT(*) AS count, COALESCE(AVG(score), 0) AS average_score, COALESCE(AVG(score * 100.0 / total_marks), 0) AS average_percentage").
		Where("class_id = ? AND subject = ?", classID, subject)
	if term != "" {
		query = query.Where("session = ?", model.SessionName(academicYear, term))
	} else {
		query = query.Where("session LIKE ?", academicYear+" %")
	}
	var avg ClassAverage
	err := query.Scan(&avg).Error
	return avg, err
}

// Update saves a corrected result. Only the administrative override path calls it.
func (r *resultRepository) Update(ctx context.Context, result *model.Result) error {
	return r.db.WithContext(ctx).Save(result).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
