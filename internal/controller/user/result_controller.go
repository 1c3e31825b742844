package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/controller"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/service"
)

type ResultController struct {
	resultService service.ResultService
}

func NewResultController(rs service.ResultService) *ResultController {
	return &ResultController{resultService: rs}
}

// ResultsForTest godoc
// @Summary Results of a test
// @Description Teachers of the test's subject and class, and admins.
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {array} dto.ResultResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Router /tests/{test_id}/results [get]
func (c *ResultController) ResultsForTest(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "test_id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.resultService.ResultsForTest(ctx.Request.Context(), controller.Caller(ctx), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// MyResults godoc
// @Summary The calling student's results
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param session query string false "Session, e.g. 2024/2025 First Term"
// @Success 200 {array} dto.ResultResponseDTO
// @Router /results/me [get]
func (c *ResultController) MyResults(ctx *gin.Context) {
	resp, err := c.resultService.MyResults(ctx.Request.Context(), controller.Caller(ctx), ctx.Query("session"))
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// MyResultForTest godoc
// @Summary The calling student's result for one test
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.ResultResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Result not found"
// @Router /tests/{test_id}/results/me [get]
func (c *ResultController) MyResultForTest(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "test_id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.resultService.MyResultForTest(ctx.Request.Context(), controller.Caller(ctx), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ClassAverage godoc
// @Summary Average result of a class in a subject
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param class query string true "Class"
// @Param subject query string true "Subject"
// @Param session query string true "Academic year, e.g. 2024/2025"
// @Param term query string false "First, Second or Third"
// @Success 200 {object} dto.ClassAverageDTO
// @Router /results/class-average [get]
func (c *ResultController) ClassAverage(ctx *gin.Context) {
	var query dto.ClassAverageQuery
	if err := controller.BindQuery(ctx, &query); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.resultService.ClassAverage(ctx.Request.Context(), controller.Caller(ctx), query)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
