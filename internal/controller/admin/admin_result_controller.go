package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/controller"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/service"
)

type AdminResultController struct {
	resultService service.ResultService
}

func NewAdminResultController(rs service.ResultService) *AdminResultController {
	return &AdminResultController{resultService: rs}
}

// OverrideResult godoc
// @Summary (Admin) Correct a stored result
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param result_id path int true "Result ID"
// @Param override body dto.ResultOverrideDTO true "Fields to replace"
// @Success 200 {object} dto.ResultResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Score out of range"
// @Failure 404 {object} dto.ErrorResponse "Result not found"
// @Router /admin/results/{result_id} [patch]
func (c *AdminResultController) OverrideResult(ctx *gin.Context) {
	id, err := controller.ParseIDParam(ctx, "result_id")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	var req dto.ResultOverrideDTO
	if err := controller.BindJSON(ctx, &req); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	resp, err := c.resultService.Override(ctx.Request.Context(), controller.Caller(ctx), id, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
