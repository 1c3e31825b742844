package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	reasonInvalidSchedule   = "invalid schedule"
	reasonEmptyQuestionSet  = "test has no questions"
	reasonMarkSumMismatch   = "question marks do not add up to total marks"
	reasonQuestionCountOver = "test has more questions than questionCount"
	reasonQuestionsChanged  = "test questions no longer match the question bank"
)

// BatchSchedulerService attaches batches to tests and moves them through
// their status lifecycle.
type BatchSchedulerService interface {
	Schedule(ctx context.Context, caller model.Caller, testID uint, req dto.ScheduleDTO) (*dto.TestResponseDTO, error)
}

type batchSchedulerService struct {
	testRepo     repository.TestRepository
	questionRepo repository.QuestionRepository
	rosterRepo   repository.RosterRepository
	clock        Clock
}

func NewBatchSchedulerService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	rosterRepo repository.RosterRepository,
	clock Clock,
) BatchSchedulerService {
	return &batchSchedulerService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		rosterRepo:   rosterRepo,
		clock:        clock,
	}
}

// Schedule replaces the test's batches and, when req.Status is set, advances
// its status. Every batch is validated before the single save, so a rejected
// request leaves the test untouched. Overlapping windows and windows already
// in the past are accepted. Cancelling without batches keeps the stored ones.
func (s *batchSchedulerService) Schedule(ctx context.Context, caller model.Caller, testID uint, req dto.ScheduleDTO) (*dto.TestResponseDTO, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	test, err := s.testRepo.FindByID(ctx, testID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(reasonTestNotFound)
	}
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Schedule: failed to load test")
		return nil, apperror.Internal("failed to load test", err)
	}

	next := test.Status
	if req.Status != nil {
		next = model.TestStatus(*req.Status)
		if !next.IsValid() {
			return nil, apperror.Validation(reasonInvalidSchedule, apperror.FieldError{
				Field: "status",
				Error: fmt.Sprintf("unknown status %q", *req.Status),
			})
		}
		if !test.Status.CanTransitionTo(next) {
			return nil, apperror.Conflict(fmt.Sprintf("invalid status transition from %s to %s", test.Status, next))
		}
	}

	batches := test.Batches
	if len(req.Batches) > 0 || next != model.StatusCancelled {
		built, fieldErrs, err := s.buildBatches(ctx, *test, req.Batches)
		if err != nil {
			return nil, err
		}
		if len(fieldErrs) > 0 {
			return nil, apperror.Validation(reasonInvalidSchedule, fieldErrs...)
		}
		batches = built
	}

	if next != model.StatusDraft && next != model.StatusCancelled {
		if err := checkQuestionSet(*test); err != nil {
			return nil, err
		}
		if err := s.checkAgainstBank(ctx, *test); err != nil {
			return nil, err
		}
	}

	test.Batches = batches
	test.Status = next
	if err := s.testRepo.Update(ctx, test); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Schedule: failed to save batches")
		return nil, apperror.Internal("failed to save schedule", err)
	}

	log.Info().
		Uint("testID", testID).
		Str("status", string(next)).
		Int("batches", len(batches)).
		Str("scheduledBy", caller.ID).
		Msg("Test scheduled")

	return toTestDTO(*test, nil, s.clock.Now()), nil
}

// checkAgainstBank re-runs the definition rules against the current bank.
// Draft questions stay editable, so a question may have moved to another
// subject or class, or been deleted, since the test was last validated.
func (s *batchSchedulerService) checkAgainstBank(ctx context.Context, test model.TestDefinition) error {
	questions, err := s.questionRepo.FindByIDs(ctx, test.Questions)
	if err != nil {
		log.Error().Err(err).Uint("testID", test.ID).Msg("Schedule: failed to load questions")
		return apperror.Internal("failed to load questions", err)
	}
	if errs := ValidateTestDefinition(candidateFromModel(test), questions); len(errs) > 0 {
		log.Warn().Uint("testID", test.ID).Int("violations", len(errs)).Msg("Schedule: question set no longer valid")
		return apperror.Conflict(reasonQuestionsChanged, errs...)
	}
	return nil
}

func (s *batchSchedulerService) buildBatches(ctx context.Context, test model.TestDefinition, in []dto.BatchDTO) ([]model.Batch, []apperror.FieldError, error) {
	var errs []apperror.FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, apperror.FieldError{Field: field, Error: fmt.Sprintf(format, args...)})
	}
	if len(in) == 0 {
		add("batches", "at least one batch is required")
		return nil, errs, nil
	}

	names := make(map[string]bool, len(in))
	batches := make([]model.Batch, 0, len(in))
	for i, b := range in {
		prefix := fmt.Sprintf("batches[%d]", i)
		name := strings.TrimSpace(b.Name)
		switch {
		case name == "":
			add(prefix+".name", "is required")
		case names[name]:
			add(prefix+".name", "duplicates another batch name")
		}
		names[name] = true

		if !b.Schedule.Start.Before(b.Schedule.End) {
			add(prefix+".schedule", "start must be before end")
		}

		students := dedupe(b.Students)
		if len(students) == 0 {
			add(prefix+".students", "at least one student is required")
		} else {
			missing, err := s.rosterRepo.NotEnrolled(ctx, students, test.Subject, test.ClassID)
			if err != nil {
				log.Error().Err(err).Uint("testID", test.ID).Msg("Schedule: roster lookup failed")
				return nil, nil, apperror.Internal("failed to check enrollment", err)
			}
			if len(missing) > 0 {
				add(prefix+".students", "not enrolled in %s for %s: %s", test.Subject, test.ClassID, strings.Join(missing, ", "))
			}
		}

		active := true
		if b.Active != nil {
			active = *b.Active
		}
		batches = append(batches, model.Batch{
			Name:        name,
			StudentIDs:  students,
			WindowStart: b.Schedule.Start.UTC(),
			WindowEnd:   b.Schedule.End.UTC(),
			Active:      active,
		})
	}
	return batches, errs, nil
}

// checkQuestionSet guards the move out of draft: a test cannot be sat without
// a complete, mark-consistent question set.
func checkQuestionSet(t model.TestDefinition) error {
	if len(t.Questions) == 0 {
		return apperror.Conflict(reasonEmptyQuestionSet)
	}
	if len(t.Questions) > t.QuestionCount {
		return apperror.Conflict(reasonQuestionCountOver)
	}
	if len(t.QuestionMarks) != len(t.Questions) || t.MarkSum() != t.TotalMarks {
		return apperror.Conflict(reasonMarkSumMismatch)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
