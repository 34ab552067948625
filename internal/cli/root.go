// Package cli wires the smart-restaurant command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/slasia/smart-restaurant/internal/agent/graph"
	"github.com/slasia/smart-restaurant/internal/config"
	errx "github.com/slasia/smart-restaurant/internal/core/error"
	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

var (
	envFile  string
	logLevel string

	appCfg *config.AppConfig
)

// Execute is the entry point for the CLI. Initialisation failures exit
// with status 2, anything else with 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errx.IsInit(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smart-restaurant",
		Short:         "Restaurant recommendations from a local knowledge base and the web",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile, cmd.Flags().Changed("env-file"))
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})
			appCfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Path to a .env file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		newAskCmd(),
		newDemoCmd(),
	)
	return root
}

// newRunner connects the optional Redis cache and builds the graph. The
// returned cleanup must be called once the runner is no longer used.
func newRunner(ctx context.Context) (*graph.Runner, func(), error) {
	cleanup := func() {}

	var rdb goredis.Cmdable
	if appCfg.Redis.Enabled() {
		client, err := appCfg.Redis.New(ctx)
		if err != nil {
			return nil, cleanup, errx.WrapInit("redis", errx.WrapRedis(err))
		}
		logx.Info().Msg("Connected to Redis successfully")
		rdb = client
		cleanup = func() { _ = client.Close() }
	}

	runner, err := graph.BuildRecommendationGraph(ctx, appCfg.Graph(rdb))
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return runner, cleanup, nil
}
