package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/config"
	"github.com/lshigami/examhall/database"
	"github.com/lshigami/examhall/internal/auth"
	adminctrl "github.com/lshigami/examhall/internal/controller/admin"
	userctrl "github.com/lshigami/examhall/internal/controller/user"
	"github.com/lshigami/examhall/internal/ratelimit"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/lshigami/examhall/internal/router"
	"github.com/lshigami/examhall/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				fx.NopLogger,
				fx.Provide(
					config.NewConfig,
					database.NewDatabase,
					ratelimit.NewRedisClient,
					ratelimit.New,
					auth.NewTokenManager,
					router.NewGinEngine,
				),
				fx.Provide(
					repository.NewQuestionRepository,
					repository.NewTestRepository,
					repository.NewResultRepository,
					repository.NewRosterRepository,
				),
				fx.Provide(
					service.NewSystemClock,
					service.NewGradeBandService,
					service.NewQuestionBankService,
					service.NewTestService,
					service.NewBatchSchedulerService,
					service.NewSubmissionService,
					service.NewResultService,
				),
				fx.Provide(
					userctrl.NewQuestionController,
					userctrl.NewTestController,
					userctrl.NewResultController,
					adminctrl.NewAdminTestController,
					adminctrl.NewAdminResultController,
					router.NewControllers,
				),
				fx.Invoke(database.Migrate),
				fx.Invoke(router.RegisterRoutes),
				fx.Invoke(StartServer),
			)

			if err := app.Start(context.Background()); err != nil {
				log.Error().Err(err).Msg("Failed to start application")
				return err
			}

			// Wait for a shutdown signal
			<-app.Done()
			log.Info().Msg("Application shutting down gracefully...")
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.Stop(stopCtx)
		},
	}

	f := cmd.Flags()
	f.StringP("port", "p", "", "HTTP listen port")
	f.String("mode", "", "gin mode: debug, release, test")
	f.String("redis-addr", "", "redis address for submit rate limiting; empty disables limiting")
	return cmd
}

// StartServer ties the HTTP server to the fx lifecycle.
func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config) {
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Examhall API listening on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			return server.Shutdown(ctx)
		},
	})
}
