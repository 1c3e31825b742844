package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/controller"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/service"
)

type AdminTestController struct {
	schedulerService service.BatchSchedulerService
}

func NewAdminTestController(ss service.BatchSchedulerService) *AdminTestController {
	return &AdminTestController{schedulerService: ss}
}

// ScheduleTest godoc
// @Summary (Admin) Attach batches to a test and move its status
// @Description Replaces every batch of the test. Students must be enrolled in the test's subject and class.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param schedule body dto.ScheduleDTO true "Batches and optional status"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid batch"
// @Failure 409 {object} dto.ErrorResponse "Invalid status transition or incomplete question set"
// @Router /admin/tests/{test_id}/schedule [put]
func (c *AdminTestController) ScheduleTest(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "test_id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	var req dto.ScheduleDTO
	if err := controller.BindJSON(ctx, &req); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.schedulerService.Schedule(ctx.Request.Context(), controller.Caller(ctx), id, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
