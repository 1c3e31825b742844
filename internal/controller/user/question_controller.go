package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/controller"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/service"
)

type QuestionController struct {
	questionService service.QuestionBankService
}

func NewQuestionController(qs service.QuestionBankService) *QuestionController {
	return &QuestionController{questionService: qs}
}

// CreateQuestion godoc
// @Summary Add a question to the bank
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param question body dto.QuestionCreateDTO true "Question"
// @Success 201 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req dto.QuestionCreateDTO
	if err := controller.BindJSON(ctx, &req); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.questionService.CreateQuestion(ctx.Request.Context(), controller.Caller(ctx), req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListQuestions godoc
// @Summary List the question bank of a subject and class
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Subject (required for teachers)"
// @Param class query string false "Class (required for teachers)"
// @Success 200 {array} dto.QuestionResponseDTO
// @Router /questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	resp, err := c.questionService.ListQuestions(ctx.Request.Context(), controller.Caller(ctx), ctx.Query("subject"), ctx.Query("class"))
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetQuestion godoc
// @Summary Get a question
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Success 200 {object} dto.QuestionResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /questions/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.questionService.GetQuestion(ctx.Request.Context(), controller.Caller(ctx), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateQuestion godoc
// @Summary Replace a question
// @Description Rejected while a scheduled test uses the question.
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Param question body dto.QuestionCreateDTO true "Question"
// @Success 200 {object} dto.QuestionResponseDTO
// @Failure 409 {object} dto.ErrorResponse "Question is used by a scheduled test"
// @Router /questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	var req dto.QuestionCreateDTO
	if err := controller.BindJSON(ctx, &req); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.questionService.UpdateQuestion(ctx.Request.Context(), controller.Caller(ctx), id, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Tags Questions
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Success 204
// @Failure 409 {object} dto.ErrorResponse "Question is used by a scheduled test"
// @Router /questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	if err := c.questionService.DeleteQuestion(ctx.Request.Context(), controller.Caller(ctx), id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
