package main

import (
	"os"

	"github.com/lshigami/examhall/config"
	_ "github.com/lshigami/examhall/docs" // Swagger docs - generated by swag init
	"github.com/lshigami/examhall/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

//go:generate swag init -g cmd/main.go -o docs --dir ../

// @title Examhall CBT API
// @version 1.0
// @description Computer-based test delivery and grading: question bank, test definitions, batch scheduling, submissions and results.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "examhall",
		Short:        "Computer-based test delivery and grading service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(cmd.Flags())
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Pretty)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("log-pretty", false, "human-readable console logs")
	pf.String("db-driver", "", "database driver: postgres or sqlite")
	pf.String("db-path", "", "sqlite database file")

	root.AddCommand(serveCmd(), migrateCmd(), tokenCmd(), enrollCmd())
	return root
}

// flagKeys maps command flags onto the environment keys config.Load reads.
var flagKeys = map[string]string{
	"log-level":  "LOG_LEVEL",
	"log-pretty": "LOG_PRETTY",
	"db-driver":  "DATABASE_DRIVER",
	"db-path":    "DATABASE_PATH",
	"port":       "SERVER_PORT",
	"mode":       "SERVER_MODE",
	"redis-addr": "REDIS_ADDR",
}

// bindFlags binds the flags that were set explicitly so unset flags do not
// shadow the environment or .env values.
func bindFlags(flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = viper.BindPFlag(key, f)
		}
	})
}
