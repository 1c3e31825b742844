package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/config"
	"github.com/lshigami/examhall/internal/auth"
	"github.com/lshigami/examhall/internal/controller"
	adminctrl "github.com/lshigami/examhall/internal/controller/admin"
	userctrl "github.com/lshigami/examhall/internal/controller/user"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/ratelimit"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Controllers groups every handler mounted by RegisterRoutes.
type Controllers struct {
	Questions   *userctrl.QuestionController
	Tests       *userctrl.TestController
	Results     *userctrl.ResultController
	AdminTests  *adminctrl.AdminTestController
	AdminResult *adminctrl.AdminResultController
}

func NewControllers(
	questions *userctrl.QuestionController,
	tests *userctrl.TestController,
	results *userctrl.ResultController,
	adminTests *adminctrl.AdminTestController,
	adminResults *adminctrl.AdminResultController,
) Controllers {
	return Controllers{
		Questions:   questions,
		Tests:       tests,
		Results:     results,
		AdminTests:  adminTests,
		AdminResult: adminResults,
	}
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(controller.RequestID())
	r.Use(controller.RequestLogger())
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", controller.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", controller.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

// RegisterRoutes mounts the API under /api/v1. Every route requires a bearer
// token; role guards narrow admin routes and the submit endpoint.
func RegisterRoutes(r *gin.Engine, tokens *auth.TokenManager, limiter ratelimit.Limiter, ctrl Controllers) {
	api := r.Group("/api/v1", tokens.Middleware())
	staff := auth.RequireRoles(model.RoleTeacher, model.RoleAdmin)

	questions := api.Group("/questions", staff)
	{
		questions.POST("", ctrl.Questions.CreateQuestion)
		questions.GET("", ctrl.Questions.ListQuestions)
		questions.GET("/:id", ctrl.Questions.GetQuestion)
		questions.PUT("/:id", ctrl.Questions.UpdateQuestion)
		questions.DELETE("/:id", ctrl.Questions.DeleteQuestion)
	}

	tests := api.Group("/tests")
	{
		tests.POST("", staff, ctrl.Tests.CreateTest)
		tests.GET("", ctrl.Tests.ListTests)
		tests.GET("/:test_id", ctrl.Tests.GetTest)
		tests.PUT("/:test_id", staff, ctrl.Tests.UpdateTest)
		tests.PUT("/:test_id/questions", staff, ctrl.Tests.UpdateQuestionSet)
		tests.DELETE("/:test_id", staff, ctrl.Tests.DeleteTest)
		tests.POST("/:test_id/submit",
			auth.RequireRoles(model.RoleStudent),
			ratelimit.Middleware(limiter, "submit", callerID),
			ctrl.Tests.SubmitTest,
		)
		tests.GET("/:test_id/results", staff, ctrl.Results.ResultsForTest)
		tests.GET("/:test_id/results/me", auth.RequireRoles(model.RoleStudent), ctrl.Results.MyResultForTest)
	}

	results := api.Group("/results")
	{
		results.GET("/me", auth.RequireRoles(model.RoleStudent), ctrl.Results.MyResults)
		results.GET("/class-average", staff, ctrl.Results.ClassAverage)
	}

	admin := api.Group("/admin", auth.RequireRoles(model.RoleAdmin))
	{
		admin.PUT("/tests/:test_id/schedule", ctrl.AdminTests.ScheduleTest)
		admin.PATCH("/results/:result_id", ctrl.AdminResult.OverrideResult)
	}
}

func callerID(ctx *gin.Context) string {
	caller, _ := auth.CallerFrom(ctx)
	return caller.ID
}
