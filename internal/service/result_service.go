package service

import (
	"context"
	"errors"
	"regexp"

	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const (
	reasonResultNotFound   = "result not found"
	reasonNothingToChange  = "nothing to override"
	reasonInvalidOverride  = "invalid override"
	reasonInvalidResultQry = "invalid query"
)

var academicYearPattern = regexp.MustCompile(`^\d{4}/\d{4}$`)

var terms = map[string]bool{"First": true, "Second": true, "Third": true}

// ResultService is the read side of stored results plus the administrative
// override. Results are never created here.
type ResultService interface {
	ResultsForTest(ctx context.Context, caller model.Caller, testID uint) ([]dto.ResultResponseDTO, error)
	MyResults(ctx context.Context, caller model.Caller, session string) ([]dto.ResultResponseDTO, error)
	MyResultForTest(ctx context.Context, caller model.Caller, testID uint) (*dto.ResultResponseDTO, error)
	ClassAverage(ctx context.Context, caller model.Caller, query dto.ClassAverageQuery) (*dto.ClassAverageDTO, error)
	Override(ctx context.Context, caller model.Caller, resultID uint, req dto.ResultOverrideDTO) (*dto.ResultResponseDTO, error)
}

type resultService struct {
	resultRepo repository.ResultRepository
	testRepo   repository.TestRepository
	gradeBands GradeBandService
	clock      Clock
}

func NewResultService(
	resultRepo repository.ResultRepository,
	testRepo repository.TestRepository,
	gradeBands GradeBandService,
	clock Clock,
) ResultService {
	return &resultService{
		resultRepo: resultRepo,
		testRepo:   testRepo,
		gradeBands: gradeBands,
		clock:      clock,
	}
}

// ResultsForTest is open to admins and to teachers of the test's subject and class.
func (s *resultService) ResultsForTest(ctx context.Context, caller model.Caller, testID uint) ([]dto.ResultResponseDTO, error) {
	if err := requireRole(caller, model.RoleTeacher, model.RoleAdmin); err != nil {
		return nil, err
	}
	test, err := s.testRepo.FindByID(ctx, testID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(reasonTestNotFound)
	}
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("ResultsForTest: failed to load test")
		return nil, apperror.Internal("failed to load test", err)
	}
	if err := authorizeScope(caller, test.Subject, test.ClassID); err != nil {
		return nil, err
	}

	results, err := s.resultRepo.FindByTest(ctx, testID)
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("ResultsForTest: repository error")
		return nil, apperror.Internal("failed to load results", err)
	}
	return s.toResultDTOs(results), nil
}

// MyResults lists the calling student's results, optionally for one session.
func (s *resultService) MyResults(ctx context.Context, caller model.Caller, session string) ([]dto.ResultResponseDTO, error) {
	if err := requireRole(caller, model.RoleStudent); err != nil {
		return nil, err
	}
	if session != "" && !model.SessionPattern.MatchString(session) {
		return nil, apperror.Validation(reasonInvalidResultQry, apperror.FieldError{
			Field: "session", Error: `must look like "2024/2025 First Term"`,
		})
	}
	results, err := s.resultRepo.FindByStudentAndSession(ctx, caller.ID, session)
	if err != nil {
		log.Error().Err(err).Str("userID", caller.ID).Str("session", session).Msg("MyResults: repository error")
		return nil, apperror.Internal("failed to load results", err)
	}
	return s.toResultDTOs(results), nil
}

// MyResultForTest returns the calling student's result for one test.
func (s *resultService) MyResultForTest(ctx context.Context, caller model.Caller, testID uint) (*dto.ResultResponseDTO, error) {
	if err := requireRole(caller, model.RoleStudent); err != nil {
		return nil, err
	}
	result, err := s.resultRepo.FindByTestAndUser(ctx, testID, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(reasonResultNotFound)
	}
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Str("userID", caller.ID).Msg("MyResultForTest: repository error")
		return nil, apperror.Internal("failed to load result", err)
	}
	return s.toResultDTO(*result), nil
}

func (s *resultService) ClassAverage(ctx context.Context, caller model.Caller, query dto.ClassAverageQuery) (*dto.ClassAverageDTO, error) {
	var errs []apperror.FieldError
	if !academicYearPattern.MatchString(query.AcademicYear) {
		errs = append(errs, apperror.FieldError{Field: "session", Error: `must look like "2024/2025"`})
	}
	if query.Term != "" && !terms[query.Term] {
		errs = append(errs, apperror.FieldError{Field: "term", Error: "must be one of: First, Second, Third"})
	}
	if len(errs) > 0 {
		return nil, apperror.Validation(reasonInvalidResultQry, errs...)
	}
	if err := authorizeScope(caller, query.Subject, query.ClassID); err != nil {
		return nil, err
	}

	avg, err := s.resultRepo.ClassAverage(ctx, query.ClassID, query.Subject, query.AcademicYear, query.Term)
	if err != nil {
		log.Error().Err(err).Str("classID", query.ClassID).Str("subject", query.Subject).Msg("ClassAverage: repository error")
		return nil, apperror.Internal("failed to aggregate results", err)
	}

	resp := &dto.ClassAverageDTO{
		ClassID:           query.ClassID,
		Subject:           query.Subject,
		AcademicYear:      query.AcademicYear,
		Term:              query.Term,
		Results:           avg.Count,
		AverageScore:      round2(avg.AverageScore),
		AveragePercentage: round2(avg.AveragePercentage),
	}
	if avg.Count > 0 {
		resp.Grade = s.gradeBands.GradeForPercentage(resp.AveragePercentage)
	}
	return resp, nil
}

// Override corrects a stored result outside the grading path. The score
// stays within 0..totalMarks.
func (s *resultService) Override(ctx context.Context, caller model.Caller, resultID uint, req dto.ResultOverrideDTO) (*dto.ResultResponseDTO, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}
	if req.Score == nil && req.Answers == nil && req.Correctness == nil {
		return nil, apperror.Validation(reasonNothingToChange)
	}

	result, err := s.resultRepo.FindByID(ctx, resultID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(reasonResultNotFound)
	}
	if err != nil {
		log.Error().Err(err).Uint("resultID", resultID).Msg("Override: failed to load result")
		return nil, apperror.Internal("failed to load result", err)
	}

	if req.Score != nil {
		if *req.Score < 0 || *req.Score > result.TotalMarks {
			return nil, apperror.Validation(reasonInvalidOverride, apperror.FieldError{
				Field: "score", Error: "must be between 0 and total marks",
			})
		}
		result.Score = *req.Score
	}
	if req.Answers != nil {
		result.Answers = datatypes.NewJSONType(req.Answers)
	}
	if req.Correctness != nil {
		result.Correctness = datatypes.NewJSONType(req.Correctness)
	}
	now := s.clock.Now()
	by := caller.ID
	result.OverriddenBy = &by
	result.OverriddenAt = &now

	if err := s.resultRepo.Update(ctx, result); err != nil {
		log.Error().Err(err).Uint("resultID", resultID).Msg("Override: failed to save result")
		return nil, apperror.Internal("failed to save result", err)
	}
	log.Warn().
		Uint("resultID", resultID).
		Uint("testID", result.TestID).
		Str("userID", result.UserID).
		Int("score", result.Score).
		Str("overriddenBy", by).
		Msg("Result overridden")
	return s.toResultDTO(*result), nil
}

func (s *resultService) toResultDTO(r model.Result) *dto.ResultResponseDTO {
	percentage, grade, err := s.gradeBands.GradeFor(r.Score, r.TotalMarks)
	if err != nil {
		log.Warn().Err(err).Uint("resultID", r.ID).Msg("stored result has an out-of-range score")
	}
	return &dto.ResultResponseDTO{
		ID:             r.ID,
		TestID:         r.TestID,
		UserID:         r.UserID,
		Answers:        r.Answers.Data(),
		Correctness:    r.Correctness.Data(),
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		TotalMarks:     r.TotalMarks,
		Percentage:     percentage,
		Grade:          grade,
		Subject:        r.Subject,
		ClassID:        r.ClassID,
		Session:        r.Session,
		SubmittedAt:    r.SubmittedAt.UTC(),
		OverriddenBy:   r.OverriddenBy,
		OverriddenAt:   r.OverriddenAt,
	}
}

func (s *resultService) toResultDTOs(results []model.Result) []dto.ResultResponseDTO {
	resp := make([]dto.ResultResponseDTO, 0, len(results))
	for _, r := range results {
		resp = append(resp, *s.toResultDTO(r))
	}
	return resp
}
