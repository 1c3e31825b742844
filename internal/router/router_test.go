package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/config"
	"github.com/lshigami/examhall/internal/auth"
	adminctrl "github.com/lshigami/examhall/internal/controller/admin"
	userctrl "github.com/lshigami/examhall/internal/controller/user"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/ratelimit"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/lshigami/examhall/internal/service"
	"github.com/lshigami/examhall/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var windowStart = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

type allowN struct{ left int }

func (l *allowN) Allow(context.Context, string) (bool, error) {
	l.left--
	return l.left >= 0, nil
}

type apiHarness struct {
	t      *testing.T
	engine *gin.Engine
	tokens *auth.TokenManager
	clock  *testutil.FixedClock
	roster repository.RosterRepository
}

func newHarness(t *testing.T, limiter ratelimit.Limiter) *apiHarness {
	t.Helper()
	cfg := &config.Config{
		Server: config.Server{Mode: gin.TestMode},
		Auth:   config.Auth{JWTSecret: "test-secret", Issuer: "examhall"},
	}
	db := testutil.NewDB(t)
	clock := &testutil.FixedClock{T: windowStart.Add(-time.Hour)}

	questionRepo := repository.NewQuestionRepository(db)
	testRepo := repository.NewTestRepository(db)
	resultRepo := repository.NewResultRepository(db)
	rosterRepo := repository.NewRosterRepository(db)

	tokens, err := auth.NewTokenManager(cfg)
	require.NoError(t, err)

	engine := NewGinEngine(cfg)
	RegisterRoutes(engine, tokens, limiter, NewControllers(
		userctrl.NewQuestionController(service.NewQuestionBankService(questionRepo, testRepo)),
		userctrl.NewTestController(
			service.NewTestService(testRepo, questionRepo, clock),
			service.NewSubmissionService(testRepo, questionRepo, resultRepo, clock),
		),
		userctrl.NewResultController(service.NewResultService(resultRepo, testRepo, service.NewGradeBandService(), clock)),
		adminctrl.NewAdminTestController(service.NewBatchSchedulerService(testRepo, questionRepo, rosterRepo, clock)),
		adminctrl.NewAdminResultController(service.NewResultService(resultRepo, testRepo, service.NewGradeBandService(), clock)),
	))
	return &apiHarness{t: t, engine: engine, tokens: tokens, clock: clock, roster: rosterRepo}
}

func (h *apiHarness) do(caller *model.Caller, method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		token, err := h.tokens.Issue(*caller, time.Hour)
		require.NoError(h.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var (
	biologyTeacher = model.Caller{
		ID:       "t-1",
		Role:     model.RoleTeacher,
		Subjects: []model.SubjectAssignment{{Subject: "Biology", ClassID: "SS1A"}},
	}
	principal = model.Caller{ID: "a-1", Role: model.RoleAdmin}
	pupil     = model.Caller{ID: "st-1", Role: model.RoleStudent}
)

// scheduledTest drives the staff workflow over HTTP and returns the test id
// and its question ids.
func (h *apiHarness) scheduledTest() (uint, []uint) {
	t := h.t
	var qids []uint
	for i := 0; i < 3; i++ {
		w := h.do(&biologyTeacher, http.MethodPost, "/api/v1/questions", dto.QuestionCreateDTO{
			Subject: "Biology", ClassID: "SS1A", Text: fmt.Sprintf("Q%d", i),
			Options: []string{"cell", "tissue", "organ"}, CorrectAnswer: "cell", Mark: 20,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		qids = append(qids, decode[dto.QuestionResponseDTO](t, w).ID)
	}

	w := h.do(&biologyTeacher, http.MethodPost, "/api/v1/tests", dto.TestCreateDTO{
		Title: "Examination", Subject: "Biology", ClassID: "SS1A", Session: "2024/2025 Second Term",
		Duration: 45, QuestionCount: 3, TotalMarks: 60, Questions: qids, QuestionMarks: []int{20, 20, 20},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	testID := decode[dto.TestResponseDTO](t, w).ID

	require.NoError(t, h.roster.Enroll(context.Background(), &model.Enrollment{StudentID: pupil.ID, Subject: "Biology", ClassID: "SS1A"}))
	status := "scheduled"
	w = h.do(&principal, http.MethodPut, fmt.Sprintf("/api/v1/admin/tests/%d/schedule", testID), dto.ScheduleDTO{
		Batches: []dto.BatchDTO{{
			Name:     "Hall A",
			Students: []string{pupil.ID},
			Schedule: dto.ScheduleWindowDTO{Start: windowStart, End: windowStart.Add(time.Hour)},
		}},
		Status: &status,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testID, qids
}

func TestRoutesRequireAuthentication(t *testing.T) {
	h := newHarness(t, &allowN{left: 100})
	w := h.do(nil, http.MethodGet, "/api/v1/tests", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoleGuards(t *testing.T) {
	h := newHarness(t, &allowN{left: 100})
	testID, _ := h.scheduledTest()

	assert.Equal(t, http.StatusForbidden, h.do(&pupil, http.MethodPost, "/api/v1/questions", dto.QuestionCreateDTO{}).Code)
	assert.Equal(t, http.StatusForbidden, h.do(&biologyTeacher, http.MethodPut, fmt.Sprintf("/api/v1/admin/tests/%d/schedule", testID), dto.ScheduleDTO{}).Code)
	assert.Equal(t, http.StatusForbidden, h.do(&pupil, http.MethodGet, fmt.Sprintf("/api/v1/tests/%d/results", testID), nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(&biologyTeacher, http.MethodPost, fmt.Sprintf("/api/v1/tests/%d/submit", testID), dto.SubmitDTO{Answers: map[string]string{}}).Code)
}

func TestSubmissionFlow(t *testing.T) {
	h := newHarness(t, &allowN{left: 100})
	testID, qids := h.scheduledTest()
	submitPath := fmt.Sprintf("/api/v1/tests/%d/submit", testID)
	answers := dto.SubmitDTO{UserID: pupil.ID, Answers: map[string]string{
		fmt.Sprint(qids[0]): "cell",
		fmt.Sprint(qids[1]): "cell",
		fmt.Sprint(qids[2]): "organ",
	}}

	w := h.do(&pupil, http.MethodGet, fmt.Sprintf("/api/v1/tests/%d", testID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correctAnswer")

	w = h.do(&pupil, http.MethodPost, submitPath, answers)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "test is not available at this time", decode[dto.ErrorResponse](t, w).Error)

	h.clock.Set(windowStart.Add(time.Hour))
	w = h.do(&pupil, http.MethodPost, submitPath, answers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Test submitted"}`, w.Body.String())

	w = h.do(&pupil, http.MethodPost, submitPath, answers)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already submitted", decode[dto.ErrorResponse](t, w).Error)

	w = h.do(&biologyTeacher, http.MethodGet, fmt.Sprintf("/api/v1/tests/%d/results", testID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[[]dto.ResultResponseDTO](t, w)
	require.Len(t, results, 1)
	assert.Equal(t, 40, results[0].Score)

	w = h.do(&principal, http.MethodPatch, fmt.Sprintf("/api/v1/admin/results/%d", results[0].ID), map[string]int{"score": 75})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(&pupil, http.MethodGet, fmt.Sprintf("/api/v1/tests/%d/results/me", testID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 40, decode[dto.ResultResponseDTO](t, w).Score)
	assert.Equal(t, http.StatusForbidden, h.do(&biologyTeacher, http.MethodGet, fmt.Sprintf("/api/v1/tests/%d/results/me", testID), nil).Code)

	w = h.do(&pupil, http.MethodGet, "/api/v1/results/me?session=2024/2025+Second+Term", nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]dto.ResultResponseDTO](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, "C", mine[0].Grade)
}

func TestCancelWithoutBatches(t *testing.T) {
	h := newHarness(t, &allowN{left: 100})
	testID, _ := h.scheduledTest()

	w := h.do(&principal, http.MethodPut, fmt.Sprintf("/api/v1/admin/tests/%d/schedule", testID), map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.TestResponseDTO](t, w)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Len(t, resp.Batches, 1)
}

func TestValidationErrorsCarryFieldDetail(t *testing.T) {
	h := newHarness(t, &allowN{left: 100})

	w := h.do(&biologyTeacher, http.MethodPost, "/api/v1/tests", dto.TestCreateDTO{
		Title: "Examination", Subject: "Biology", ClassID: "SS1A", Session: "2024/2025 Second Term",
		Duration: 45, QuestionCount: 3, TotalMarks: 50,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, "validation", resp.Kind)
	assert.Contains(t, resp.Fields["totalMarks"], "60")

	w = h.do(&biologyTeacher, http.MethodPost, "/api/v1/questions", map[string]any{"subject": "Biology"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp = decode[dto.ErrorResponse](t, w)
	assert.Contains(t, resp.Fields, "text")
	assert.Contains(t, resp.Fields, "options")

	w = h.do(&biologyTeacher, http.MethodGet, "/api/v1/tests/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitIsRateLimited(t *testing.T) {
	h := newHarness(t, &allowN{left: 1})
	testID, _ := h.scheduledTest()
	submitPath := fmt.Sprintf("/api/v1/tests/%d/submit", testID)
	body := dto.SubmitDTO{Answers: map[string]string{}}

	assert.Equal(t, http.StatusConflict, h.do(&pupil, http.MethodPost, submitPath, body).Code)
	assert.Equal(t, http.StatusTooManyRequests, h.do(&pupil, http.MethodPost, submitPath, body).Code)
}
