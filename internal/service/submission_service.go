package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const (
	reasonNotScheduled      = "test is not scheduled"
	reasonOutsideWindow     = "test is not available at this time"
	reasonSnapshotMismatch  = "question snapshot is inconsistent"
	reasonAlreadySubmitted  = "already submitted"
	reasonSubmitForYourself = "students can only submit their own answers"

	submittedMessage = "Test submitted"
)

// SubmissionService grades a student's answer set and stores exactly one
// Result per student and test.
type SubmissionService interface {
	Submit(ctx context.Context, caller model.Caller, testID uint, req dto.SubmitDTO) (*dto.SubmitResponseDTO, error)
}

type submissionService struct {
	testRepo     repository.TestRepository
	questionRepo repository.QuestionRepository
	resultRepo   repository.ResultRepository
	clock        Clock
}

func NewSubmissionService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	resultRepo repository.ResultRepository,
	clock Clock,
) SubmissionService {
	return &submissionService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		clock:        clock,
	}
}

// Submit runs every gate before grading, so a rejected submission never
// stores a result. Concurrent submissions for the same student race on the
// store's (test_id, user_id) unique index; the loser gets a Conflict.
func (s *submissionService) Submit(ctx context.Context, caller model.Caller, testID uint, req dto.SubmitDTO) (*dto.SubmitResponseDTO, error) {
	if err := requireRole(caller, model.RoleStudent); err != nil {
		return nil, err
	}
	userID := caller.ID
	if req.UserID != "" && req.UserID != userID {
		return nil, apperror.Forbidden(reasonSubmitForYourself)
	}

	test, err := s.testRepo.FindByID(ctx, testID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(reasonTestNotFound)
	}
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Submit: failed to load test")
		return nil, apperror.Internal("failed to load test", err)
	}

	if !acceptsSubmissions(test.Status) {
		return nil, apperror.Conflict(reasonNotScheduled)
	}

	batch, ok := test.BatchFor(userID)
	if !ok {
		return nil, apperror.Forbidden(reasonNotInAnyBatch)
	}

	now := s.clock.Now()
	if !batch.Active {
		log.Info().Uint("testID", testID).Str("userID", userID).Str("batch", batch.Name).Msg("Submit: batch is inactive")
		return nil, apperror.Conflict(reasonOutsideWindow)
	}
	if !batch.IsOpen(now) {
		log.Info().
			Uint("testID", testID).
			Str("userID", userID).
			Str("batch", batch.Name).
			Time("now", now).
			Msg("Submit: outside batch window")
		return nil, apperror.Conflict(reasonOutsideWindow)
	}

	questions, err := s.snapshot(ctx, *test)
	if err != nil {
		return nil, err
	}

	for key := range req.Answers {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || !test.References(uint(id)) {
			log.Warn().Uint("testID", testID).Str("userID", userID).Str("questionKey", key).
				Msg("Submit: answer for a question not part of this test, dropping")
		}
	}

	grade := GradeAnswers(*test, questions, req.Answers)
	result := model.Result{
		TestID:         test.ID,
		UserID:         userID,
		Answers:        datatypes.NewJSONType(grade.Answers),
		Correctness:    datatypes.NewJSONType(grade.Correctness),
		Score:          grade.Score,
		TotalQuestions: len(questions),
		TotalMarks:     test.TotalMarks,
		Subject:        test.Subject,
		ClassID:        test.ClassID,
		Session:        test.Session,
		SubmittedAt:    now,
	}
	if err := s.resultRepo.Create(ctx, &result); err != nil {
		if errors.Is(err, repository.ErrDuplicateResult) {
			return nil, apperror.Conflict(reasonAlreadySubmitted)
		}
		log.Error().Err(err).Uint("testID", testID).Str("userID", userID).Msg("Submit: failed to store result")
		return nil, apperror.Internal("failed to store result", err)
	}

	log.Info().
		Uint("testID", testID).
		Str("userID", userID).
		Int("score", result.Score).
		Int("totalMarks", result.TotalMarks).
		Msg("Test submitted")
	return &dto.SubmitResponseDTO{Message: submittedMessage}, nil
}

// snapshot loads the well-formed questions of test in test order. A missing
// or malformed question means the test cannot be graded as defined.
func (s *submissionService) snapshot(ctx context.Context, test model.TestDefinition) ([]model.Question, error) {
	loaded, err := s.questionRepo.FindByIDs(ctx, test.Questions)
	if err != nil {
		log.Error().Err(err).Uint("testID", test.ID).Msg("Submit: failed to load questions")
		return nil, apperror.Internal("failed to load questions", err)
	}
	questions := make([]model.Question, 0, len(loaded))
	for _, q := range loaded {
		if q.IsWellFormed() {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 || len(questions) != len(test.Questions) {
		log.Error().
			Uint("testID", test.ID).
			Int("expected", len(test.Questions)).
			Int("usable", len(questions)).
			Msg("Submit: question snapshot does not match the test")
		return nil, apperror.Conflict(reasonSnapshotMismatch)
	}
	return questions, nil
}
