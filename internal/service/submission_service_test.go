package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAtWindowEndIsAccepted(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "s1")
	f.clock.Set(windowStart.Add(time.Hour))

	resp, err := f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, dto.SubmitDTO{
		UserID:  "s1",
		Answers: answersFor(qids, "B", "B", "C"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Test submitted", resp.Message)

	result, err := f.resultRepo.FindByTestAndUser(f.ctx, scheduled.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, 40, result.Score)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 60, result.TotalMarks)
	assert.Equal(t, testSession, result.Session)
	assert.True(t, result.SubmittedAt.Equal(windowStart.Add(time.Hour)))
	assert.Equal(t, map[string]bool{
		fmt.Sprint(qids[0]): true,
		fmt.Sprint(qids[1]): true,
		fmt.Sprint(qids[2]): false,
	}, result.Correctness.Data())
}

func TestSubmitTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "s1")
	f.clock.Set(windowStart.Add(10 * time.Minute))
	req := dto.SubmitDTO{Answers: answersFor(qids, "B", "B", "B")}

	_, err := f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, req)
	require.NoError(t, err)

	req.Answers = answersFor(qids, "A", "A", "A")
	_, err = f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, req)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, "already submitted", apperror.ReasonOf(err))

	results, err := f.resultRepo.FindByTest(f.ctx, scheduled.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 60, results[0].Score, "the first submission must not be overwritten")
}

func TestConcurrentSubmissionsStoreExactlyOneResult(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "s1")
	f.clock.Set(windowStart.Add(59 * time.Minute))

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, dto.SubmitDTO{
				Answers: answersFor(qids, "B", "A", "A"),
			})
		}(i)
	}
	wg.Wait()

	succeeded, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperror.ReasonOf(err) == reasonAlreadySubmitted:
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	results, err := f.resultRepo.FindByTest(f.ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSubmitWindowBoundaries(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "early", "start", "late")
	req := dto.SubmitDTO{Answers: answersFor(qids, "B", "B", "B")}

	f.clock.Set(windowStart.Add(-time.Nanosecond))
	_, err := f.submissions.Submit(f.ctx, student("early"), scheduled.ID, req)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, reasonOutsideWindow, apperror.ReasonOf(err))

	f.clock.Set(windowStart)
	_, err = f.submissions.Submit(f.ctx, student("start"), scheduled.ID, req)
	assert.NoError(t, err)

	f.clock.Set(windowStart.Add(time.Hour + time.Nanosecond))
	_, err = f.submissions.Submit(f.ctx, student("late"), scheduled.ID, req)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, reasonOutsideWindow, apperror.ReasonOf(err))

	_, err = f.resultRepo.FindByTestAndUser(f.ctx, scheduled.ID, "late")
	assert.Error(t, err)
}

func TestSubmitByStudentOutsideBatches(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "s1")
	f.clock.Set(windowStart)

	_, err := f.submissions.Submit(f.ctx, student("s9"), scheduled.ID, dto.SubmitDTO{Answers: answersFor(qids, "B")})
	assert.Equal(t, apperror.KindAuthorization, apperror.KindOf(err))
	assert.Equal(t, "not assigned to this test", apperror.ReasonOf(err))

	results, err := f.resultRepo.FindByTest(f.ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSubmitToDraftIsConflict(t *testing.T) {
	f := newFixture(t)
	qids := f.seedQuestions(t, 3, 20)
	created, err := f.tests.CreateTest(f.ctx, teacher(), examDTO(qids, []int{20, 20, 20}))
	require.NoError(t, err)

	_, err = f.submissions.Submit(f.ctx, student("s1"), created.ID, dto.SubmitDTO{Answers: answersFor(qids, "B")})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, "test is not scheduled", apperror.ReasonOf(err))

	_, err = f.submissions.Submit(f.ctx, student("s1"), 4040, dto.SubmitDTO{})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, "test not found", apperror.ReasonOf(err))
}

func TestSubmitToCancelledTestIsConflict(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "s1")
	_, err := f.scheduler.Schedule(f.ctx, admin(), scheduled.ID, dto.ScheduleDTO{
		Batches: []dto.BatchDTO{batch("Morning", windowStart, windowStart.Add(time.Hour), "s1")},
		Status:  statusPtr(model.StatusCancelled),
	})
	require.NoError(t, err)
	f.clock.Set(windowStart)

	_, err = f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, dto.SubmitDTO{Answers: answersFor(qids, "B")})
	assert.Equal(t, reasonNotScheduled, apperror.ReasonOf(err))
}

func TestSubmitWithBrokenSnapshot(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "s1")
	require.NoError(t, f.questionRepo.Delete(f.ctx, qids[1]))
	f.clock.Set(windowStart)

	_, err := f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, dto.SubmitDTO{Answers: answersFor(qids, "B", "B", "B")})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, "question snapshot is inconsistent", apperror.ReasonOf(err))

	results, err := f.resultRepo.FindByTest(f.ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSubmitOnlyForYourself(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "s1", "s2")
	f.clock.Set(windowStart)

	_, err := f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, dto.SubmitDTO{UserID: "s2", Answers: answersFor(qids, "B")})
	assert.Equal(t, apperror.KindAuthorization, apperror.KindOf(err))

	_, err = f.submissions.Submit(f.ctx, teacher(), scheduled.ID, dto.SubmitDTO{Answers: answersFor(qids, "B")})
	assert.Equal(t, apperror.KindAuthorization, apperror.KindOf(err))
}

func TestSubmitDropsAnswersOutsideTheTest(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "s1")
	f.clock.Set(windowStart)

	answers := answersFor(qids, "B")
	answers["99999"] = "B"
	answers["not-a-number"] = "B"
	_, err := f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, dto.SubmitDTO{Answers: answers})
	require.NoError(t, err)

	result, err := f.resultRepo.FindByTestAndUser(f.ctx, scheduled.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, 20, result.Score)
	assert.Equal(t, map[string]string{fmt.Sprint(qids[0]): "B"}, result.Answers.Data())
	assert.Len(t, result.Correctness.Data(), 3)
}

func TestSubmitToInactiveBatchIsConflict(t *testing.T) {
	f := newFixture(t)
	scheduled, qids := f.scheduledExam(t, "s1")
	inactive := false
	paused := batch("Morning", windowStart, windowStart.Add(time.Hour), "s1")
	paused.Active = &inactive
	_, err := f.scheduler.Schedule(f.ctx, admin(), scheduled.ID, dto.ScheduleDTO{Batches: []dto.BatchDTO{paused}})
	require.NoError(t, err)
	f.clock.Set(windowStart.Add(10 * time.Minute))

	_, err = f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, dto.SubmitDTO{Answers: answersFor(qids, "B", "B", "B")})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, reasonOutsideWindow, apperror.ReasonOf(err))

	results, err := f.resultRepo.FindByTest(f.ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	active := true
	paused.Active = &active
	_, err = f.scheduler.Schedule(f.ctx, admin(), scheduled.ID, dto.ScheduleDTO{Batches: []dto.BatchDTO{paused}})
	require.NoError(t, err)
	_, err = f.submissions.Submit(f.ctx, student("s1"), scheduled.ID, dto.SubmitDTO{Answers: answersFor(qids, "B", "B", "B")})
	assert.NoError(t, err)
}
