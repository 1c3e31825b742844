package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/lshigami/examhall/internal/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testSubject = "Mathematics"
	testClass   = "JSS2A"
	testSession = "2024/2025 First Term"
)

var windowStart = time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ctx   context.Context
	clock *testutil.FixedClock

	questionRepo repository.QuestionRepository
	testRepo     repository.TestRepository
	resultRepo   repository.ResultRepository
	rosterRepo   repository.RosterRepository

	bank        QuestionBankService
	tests       TestService
	scheduler   BatchSchedulerService
	submissions SubmissionService
	results     ResultService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := &testutil.FixedClock{T: windowStart.Add(-24 * time.Hour)}
	f := &fixture{
		ctx:          context.Background(),
		clock:        clock,
		questionRepo: repository.NewQuestionRepository(db),
		testRepo:     repository.NewTestRepository(db),
		resultRepo:   repository.NewResultRepository(db),
		rosterRepo:   repository.NewRosterRepository(db),
	}
	f.bank = NewQuestionBankService(f.questionRepo, f.testRepo)
	f.tests = NewTestService(f.testRepo, f.questionRepo, clock)
	f.scheduler = NewBatchSchedulerService(f.testRepo, f.questionRepo, f.rosterRepo, clock)
	f.submissions = NewSubmissionService(f.testRepo, f.questionRepo, f.resultRepo, clock)
	f.results = NewResultService(f.resultRepo, f.testRepo, NewGradeBandService(), clock)
	return f
}

func teacher() model.Caller {
	return model.Caller{
		ID:       "teacher-1",
		Role:     model.RoleTeacher,
		Subjects: []model.SubjectAssignment{{Subject: testSubject, ClassID: testClass}},
	}
}

func admin() model.Caller {
	return model.Caller{ID: "admin-1", Role: model.RoleAdmin}
}

func student(id string) model.Caller {
	return model.Caller{ID: id, Role: model.RoleStudent}
}

// seedQuestions stores n well-formed questions whose correct answer is "B".
func (f *fixture) seedQuestions(t *testing.T, n, mark int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		q, err := f.bank.CreateQuestion(f.ctx, teacher(), dto.QuestionCreateDTO{
			Subject:       testSubject,
			ClassID:       testClass,
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "B",
			Mark:          mark,
		})
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	return ids
}

func (f *fixture) enroll(t *testing.T, studentIDs ...string) {
	t.Helper()
	for _, id := range studentIDs {
		require.NoError(t, f.rosterRepo.Enroll(f.ctx, &model.Enrollment{
			StudentID: id, Subject: testSubject, ClassID: testClass,
		}))
	}
}

func examDTO(questions []uint, marks []int) dto.TestCreateDTO {
	return dto.TestCreateDTO{
		Title:         "Examination",
		Subject:       testSubject,
		ClassID:       testClass,
		Session:       testSession,
		Duration:      60,
		QuestionCount: 3,
		TotalMarks:    60,
		Questions:     questions,
		QuestionMarks: marks,
	}
}

// scheduledExam creates a three-question examination worth [20,20,20] and
// schedules one batch holding students for [windowStart, windowStart+1h].
func (f *fixture) scheduledExam(t *testing.T, students ...string) (*dto.TestResponseDTO, []uint) {
	t.Helper()
	qids := f.seedQuestions(t, 3, 20)
	created, err := f.tests.CreateTest(f.ctx, teacher(), examDTO(qids, []int{20, 20, 20}))
	require.NoError(t, err)

	f.enroll(t, students...)
	status := string(model.StatusScheduled)
	scheduled, err := f.scheduler.Schedule(f.ctx, admin(), created.ID, dto.ScheduleDTO{
		Batches: []dto.BatchDTO{{
			Name:     "Morning",
			Students: students,
			Schedule: dto.ScheduleWindowDTO{Start: windowStart, End: windowStart.Add(time.Hour)},
		}},
		Status: &status,
	})
	require.NoError(t, err)
	return scheduled, qids
}

func answersFor(qids []uint, selected ...string) map[string]string {
	answers := make(map[string]string, len(selected))
	for i, opt := range selected {
		answers[fmt.Sprint(qids[i])] = opt
	}
	return answers
}
