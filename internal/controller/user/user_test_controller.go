package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/controller"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/service"
)

// TestController serves test definitions to staff and students and accepts
// submissions.
type TestController struct {
	testService       service.TestService
	submissionService service.SubmissionService
}

func NewTestController(ts service.TestService, ss service.SubmissionService) *TestController {
	return &TestController{testService: ts, submissionService: ss}
}

// CreateTest godoc
// @Summary Create a draft test
// @Description A teacher defines a test for a subject and class they are assigned to.
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test body dto.TestCreateDTO true "Test definition"
// @Success 201 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid test definition"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this subject and class"
// @Router /tests [post]
func (c *TestController) CreateTest(ctx *gin.Context) {
	var req dto.TestCreateDTO
	if err := controller.BindJSON(ctx, &req); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.testService.CreateTest(ctx.Request.Context(), controller.Caller(ctx), req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListTests godoc
// @Summary List tests
// @Description Admins see every test, teachers the tests of their subjects and classes, students the scheduled tests they are batched into.
// @Tags Tests
// @Produce json
// @Security BearerAuth
// @Param session query string false "Session, e.g. 2024/2025 First Term (staff only)"
// @Success 200 {array} dto.TestResponseDTO
// @Router /tests [get]
func (c *TestController) ListTests(ctx *gin.Context) {
	caller := controller.Caller(ctx)
	if caller.Role == model.RoleStudent {
		resp, err := c.testService.ListTestsForStudent(ctx.Request.Context(), caller)
		if err != nil {
			controller.RespondError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, resp)
		return
	}
	resp, err := c.testService.ListTests(ctx.Request.Context(), caller, ctx.Query("session"))
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetTest godoc
// @Summary Get a test
// @Description Students receive the questions without correct answers.
// @Tags Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "test_id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	caller := controller.Caller(ctx)
	if caller.Role == model.RoleStudent {
		resp, err := c.testService.GetTestForStudent(ctx.Request.Context(), caller, id)
		if err != nil {
			controller.RespondError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, resp)
		return
	}
	resp, err := c.testService.GetTest(ctx.Request.Context(), caller, id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateTest godoc
// @Summary Replace a draft test
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param test body dto.TestCreateDTO true "Test definition"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Test is no longer editable"
// @Router /tests/{test_id} [put]
func (c *TestController) UpdateTest(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "test_id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	var req dto.TestCreateDTO
	if err := controller.BindJSON(ctx, &req); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.testService.UpdateTest(ctx.Request.Context(), controller.Caller(ctx), id, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateQuestionSet godoc
// @Summary Select the questions of a draft test
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param questions body dto.QuestionSetUpdateDTO true "Question ids and per-question marks"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Marks do not add up to the test's total"
// @Failure 403 {object} dto.ErrorResponse "Test is no longer editable"
// @Router /tests/{test_id}/questions [put]
func (c *TestController) UpdateQuestionSet(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "test_id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	var req dto.QuestionSetUpdateDTO
	if err := controller.BindJSON(ctx, &req); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.testService.UpdateQuestionSet(ctx.Request.Context(), controller.Caller(ctx), id, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteTest godoc
// @Summary Delete a draft test
// @Tags Tests
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse "Test is no longer editable"
// @Router /tests/{test_id} [delete]
func (c *TestController) DeleteTest(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "test_id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	if err := c.testService.DeleteTest(ctx.Request.Context(), controller.Caller(ctx), id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SubmitTest godoc
// @Summary Submit answers for a test
// @Description A student submits their complete answer set once, inside their batch window.
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param submission body dto.SubmitDTO true "Answers keyed by question id"
// @Success 200 {object} dto.SubmitResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this test"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 409 {object} dto.ErrorResponse "Not scheduled, outside the window or already submitted"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Router /tests/{test_id}/submit [post]
func (c *TestController) SubmitTest(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "test_id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	var req dto.SubmitDTO
	if err := controller.BindJSON(ctx, &req); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.submissionService.Submit(ctx.Request.Context(), controller.Caller(ctx), id, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
