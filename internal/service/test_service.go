package service

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	reasonTestNotFound    = "test not found"
	reasonNotEditable     = "test is no longer editable"
	reasonNotInAnyBatch   = "not assigned to this test"
	reasonInvalidTestDefn = "invalid test definition"
)

// TestService owns test definitions while they are drafted and serves the
// role-filtered views of them.
type TestService interface {
	CreateTest(ctx context.Context, caller model.Caller, req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
	UpdateTest(ctx context.Context, caller model.Caller, id uint, req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
	UpdateQuestionSet(ctx context.Context, caller model.Caller, id uint, req dto.QuestionSetUpdateDTO) (*dto.TestResponseDTO, error)
	DeleteTest(ctx context.Context, caller model.Caller, id uint) error
	GetTest(ctx context.Context, caller model.Caller, id uint) (*dto.TestResponseDTO, error)
	ListTests(ctx context.Context, caller model.Caller, session string) ([]dto.TestResponseDTO, error)
	GetTestForStudent(ctx context.Context, caller model.Caller, id uint) (*dto.StudentTestDTO, error)
	ListTestsForStudent(ctx context.Context, caller model.Caller) ([]dto.StudentTestDTO, error)
}

type testService struct {
	testRepo     repository.TestRepository
	questionRepo repository.QuestionRepository
	clock        Clock
}

func NewTestService(testRepo repository.TestRepository, questionRepo repository.QuestionRepository, clock Clock) TestService {
	return &testService{testRepo: testRepo, questionRepo: questionRepo, clock: clock}
}

func (s *testService) CreateTest(ctx context.Context, caller model.Caller, req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	if err := requireRole(caller, model.RoleTeacher); err != nil {
		return nil, err
	}
	if !caller.IsAssigned(req.Subject, req.ClassID) {
		return nil, apperror.Forbidden(reasonNotAssigned)
	}

	candidate := candidateFromDTO(req)
	if err := s.validate(ctx, candidate); err != nil {
		return nil, err
	}

	test := model.TestDefinition{
		Title:         req.Title,
		Subject:       req.Subject,
		ClassID:       req.ClassID,
		Session:       req.Session,
		Duration:      req.Duration,
		QuestionCount: req.QuestionCount,
		TotalMarks:    req.TotalMarks,
		Instructions:  req.Instructions,
		Randomize:     req.Randomize,
		Questions:     req.Questions,
		QuestionMarks: req.QuestionMarks,
		Status:        model.StatusDraft,
		CreatedBy:     caller.ID,
	}
	if err := s.testRepo.Create(ctx, &test); err != nil {
		log.Error().Err(err).Str("createdBy", caller.ID).Msg("CreateTest: failed to store test")
		return nil, apperror.Internal("failed to create test", err)
	}
	log.Info().Uint("testID", test.ID).Str("createdBy", caller.ID).Str("subject", test.Subject).Msg("Test created")
	return toTestDTO(test, nil, s.clock.Now()), nil
}

func (s *testService) UpdateTest(ctx context.Context, caller model.Caller, id uint, req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	test, err := s.loadEditable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeScope(caller, req.Subject, req.ClassID); err != nil {
		return nil, err
	}

	candidate := candidateFromDTO(req)
	if err := s.validate(ctx, candidate); err != nil {
		return nil, err
	}

	test.Title = req.Title
	test.Subject = req.Subject
	test.ClassID = req.ClassID
	test.Session = req.Session
	test.Duration = req.Duration
	test.QuestionCount = req.QuestionCount
	test.TotalMarks = req.TotalMarks
	test.Instructions = req.Instructions
	test.Randomize = req.Randomize
	test.Questions = req.Questions
	test.QuestionMarks = req.QuestionMarks
	if err := s.testRepo.Update(ctx, test); err != nil {
		log.Error().Err(err).Uint("testID", id).Msg("UpdateTest: failed to save test")
		return nil, apperror.Internal("failed to update test", err)
	}
	return toTestDTO(*test, nil, s.clock.Now()), nil
}

// UpdateQuestionSet replaces the selected questions and their marks. Only
// drafts accept it: scheduling freezes the question set.
func (s *testService) UpdateQuestionSet(ctx context.Context, caller model.Caller, id uint, req dto.QuestionSetUpdateDTO) (*dto.TestResponseDTO, error) {
	test, err := s.loadEditable(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	candidate := candidateFromModel(*test)
	candidate.Questions = req.Questions
	candidate.QuestionMarks = req.QuestionMarks
	if err := s.validate(ctx, candidate); err != nil {
		return nil, err
	}

	test.Questions = req.Questions
	test.QuestionMarks = req.QuestionMarks
	if err := s.testRepo.Update(ctx, test); err != nil {
		log.Error().Err(err).Uint("testID", id).Msg("UpdateQuestionSet: failed to save test")
		return nil, apperror.Internal("failed to update question set", err)
	}
	log.Info().Uint("testID", id).Int("questions", len(req.Questions)).Msg("Question set updated")
	return toTestDTO(*test, nil, s.clock.Now()), nil
}

func (s *testService) DeleteTest(ctx context.Context, caller model.Caller, id uint) error {
	if _, err := s.loadEditable(ctx, caller, id); err != nil {
		return err
	}
	if err := s.testRepo.Delete(ctx, id); err != nil {
		log.Error().Err(err).Uint("testID", id).Msg("DeleteTest: failed to delete test")
		return apperror.Internal("failed to delete test", err)
	}
	return nil
}

// GetTest returns the staff view, including the selected questions with answers.
func (s *testService) GetTest(ctx context.Context, caller model.Caller, id uint) (*dto.TestResponseDTO, error) {
	test, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeScope(caller, test.Subject, test.ClassID); err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.FindByIDs(ctx, test.Questions)
	if err != nil {
		log.Error().Err(err).Uint("testID", id).Msg("GetTest: failed to load questions")
		return nil, apperror.Internal("failed to load questions", err)
	}
	return toTestDTO(*test, questions, s.clock.Now()), nil
}

// ListTests returns every test for admins and the tests of their assigned
// subject/class pairs for teachers.
func (s *testService) ListTests(ctx context.Context, caller model.Caller, session string) ([]dto.TestResponseDTO, error) {
	filter := repository.TestFilter{Session: session}
	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleTeacher:
		if len(caller.Subjects) == 0 {
			return []dto.TestResponseDTO{}, nil
		}
		filter.Scopes = caller.Subjects
	default:
		return nil, apperror.Forbidden(reasonAccessRestricted)
	}

	tests, err := s.testRepo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("callerID", caller.ID).Msg("ListTests: repository error")
		return nil, apperror.Internal("failed to list tests", err)
	}
	resp := make([]dto.TestResponseDTO, 0, len(tests))
	for _, t := range tests {
		resp = append(resp, *toTestDTO(t, nil, s.clock.Now()))
	}
	return resp, nil
}

// GetTestForStudent returns a scheduled test the student is batched into,
// with correct answers stripped. Drafts and cancelled tests are invisible.
func (s *testService) GetTestForStudent(ctx context.Context, caller model.Caller, id uint) (*dto.StudentTestDTO, error) {
	if err := requireRole(caller, model.RoleStudent); err != nil {
		return nil, err
	}
	test, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !acceptsSubmissions(test.Status) {
		return nil, apperror.NotFound(reasonTestNotFound)
	}
	batch, ok := test.BatchFor(caller.ID)
	if !ok {
		return nil, apperror.Forbidden(reasonNotInAnyBatch)
	}

	questions, err := s.questionRepo.FindByIDs(ctx, test.Questions)
	if err != nil {
		log.Error().Err(err).Uint("testID", id).Msg("GetTestForStudent: failed to load questions")
		return nil, apperror.Internal("failed to load questions", err)
	}

	resp := toStudentDTO(*test, batch, s.clock.Now())
	resp.Questions = make([]dto.StudentQuestionDTO, 0, len(questions))
	for i, q := range questions {
		mark := q.Mark
		if i < len(test.QuestionMarks) {
			mark = test.QuestionMarks[i]
		}
		resp.Questions = append(resp.Questions, dto.StudentQuestionDTO{
			ID:      q.ID,
			Text:    q.Text,
			Options: append([]string(nil), q.Options...),
			Mark:    mark,
		})
	}
	if test.Randomize {
		shuffleForStudent(resp.Questions, test.ID, caller.ID)
	}
	return resp, nil
}

func (s *testService) ListTestsForStudent(ctx context.Context, caller model.Caller) ([]dto.StudentTestDTO, error) {
	if err := requireRole(caller, model.RoleStudent); err != nil {
		return nil, err
	}
	tests, err := s.testRepo.List(ctx, repository.TestFilter{
		Statuses: []model.TestStatus{model.StatusScheduled, model.StatusActive},
	})
	if err != nil {
		log.Error().Err(err).Str("studentID", caller.ID).Msg("ListTestsForStudent: repository error")
		return nil, apperror.Internal("failed to list tests", err)
	}
	resp := []dto.StudentTestDTO{}
	for _, t := range tests {
		if batch, ok := t.BatchFor(caller.ID); ok {
			resp = append(resp, *toStudentDTO(t, batch, s.clock.Now()))
		}
	}
	return resp, nil
}

func (s *testService) load(ctx context.Context, id uint) (*model.TestDefinition, error) {
	test, err := s.testRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(reasonTestNotFound)
	}
	if err != nil {
		log.Error().Err(err).Uint("testID", id).Msg("failed to load test")
		return nil, apperror.Internal("failed to load test", err)
	}
	return test, nil
}

// loadEditable loads a draft the caller may change: its creator (still
// assigned to the test's scope) or an admin.
func (s *testService) loadEditable(ctx context.Context, caller model.Caller, id uint) (*model.TestDefinition, error) {
	test, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeScope(caller, test.Subject, test.ClassID); err != nil {
		return nil, err
	}
	if caller.Role != model.RoleAdmin && test.CreatedBy != caller.ID {
		return nil, apperror.Forbidden("only the test's creator can change it")
	}
	if test.Status != model.StatusDraft {
		return nil, apperror.Forbidden(reasonNotEditable)
	}
	return test, nil
}

func (s *testService) validate(ctx context.Context, c TestCandidate) error {
	questions, err := s.questionRepo.FindByIDs(ctx, c.Questions)
	if err != nil {
		log.Error().Err(err).Msg("failed to load questions for validation")
		return apperror.Internal("failed to load questions", err)
	}
	if errs := ValidateTestDefinition(c, questions); len(errs) > 0 {
		return apperror.Validation(reasonInvalidTestDefn, errs...)
	}
	return nil
}

func toTestDTO(t model.TestDefinition, questions []model.Question, now time.Time) *dto.TestResponseDTO {
	var resp dto.TestResponseDTO
	copier.Copy(&resp, &t)
	resp.Status = string(t.Status)
	resp.EffectiveStatus = string(t.EffectiveStatus(now))
	resp.Questions = append([]uint{}, t.Questions...)
	resp.QuestionMarks = append([]int{}, t.QuestionMarks...)
	resp.Batches = toBatchDTOs(t.Batches)
	resp.QuestionDetails = nil
	for _, q := range questions {
		resp.QuestionDetails = append(resp.QuestionDetails, *toQuestionDTO(q))
	}
	return &resp
}

func toStudentDTO(t model.TestDefinition, b model.Batch, now time.Time) *dto.StudentTestDTO {
	return &dto.StudentTestDTO{
		ID:           t.ID,
		Title:        t.Title,
		Subject:      t.Subject,
		ClassID:      t.ClassID,
		Session:      t.Session,
		Duration:     t.Duration,
		TotalMarks:   t.TotalMarks,
		Instructions: t.Instructions,
		Status:       string(t.EffectiveStatus(now)),
		Batch:        b.Name,
		Schedule:     dto.ScheduleWindowDTO{Start: b.WindowStart, End: b.WindowEnd},
	}
}

func toBatchDTOs(batches []model.Batch) []dto.BatchResponseDTO {
	out := make([]dto.BatchResponseDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, dto.BatchResponseDTO{
			Name:     b.Name,
			Students: append([]string{}, b.StudentIDs...),
			Schedule: dto.ScheduleWindowDTO{Start: b.WindowStart, End: b.WindowEnd},
			Active:   b.Active,
		})
	}
	return out
}

func candidateFromDTO(req dto.TestCreateDTO) TestCandidate {
	return TestCandidate{
		Title:         req.Title,
		Subject:       req.Subject,
		ClassID:       req.ClassID,
		Session:       req.Session,
		Duration:      req.Duration,
		QuestionCount: req.QuestionCount,
		TotalMarks:    req.TotalMarks,
		Questions:     req.Questions,
		QuestionMarks: req.QuestionMarks,
	}
}

func candidateFromModel(t model.TestDefinition) TestCandidate {
	return TestCandidate{
		Title:         t.Title,
		Subject:       t.Subject,
		ClassID:       t.ClassID,
		Session:       t.Session,
		Duration:      t.Duration,
		QuestionCount: t.QuestionCount,
		TotalMarks:    t.TotalMarks,
		Questions:     t.Questions,
		QuestionMarks: t.QuestionMarks,
	}
}

// acceptsSubmissions reports whether a stored status lets students sit the
// test. Stored "active" is informational and treated like "scheduled".
func acceptsSubmissions(status model.TestStatus) bool {
	return status == model.StatusScheduled || status == model.StatusActive
}

// shuffleForStudent reorders questions with a seed derived from the test and
// student, so a student sees the same order on every fetch.
func shuffleForStudent(questions []dto.StudentQuestionDTO, testID uint, studentID string) {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatUint(uint64(testID), 10)))
	h.Write([]byte{0})
	h.Write([]byte(studentID))
	seed := h.Sum64()
	r := rand.New(rand.NewPCG(seed, seed>>1|1))
	r.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}
