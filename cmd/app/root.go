package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"linkbio/cmd/fx/account_fx"
	"linkbio/cmd/fx/config_fx"
	"linkbio/cmd/fx/db_fx"
	"linkbio/cmd/fx/events_fx"
	"linkbio/cmd/fx/link_fx"
	"linkbio/cmd/fx/mail_fx"
	"linkbio/cmd/fx/memcache_fx"
	"linkbio/cmd/fx/metrics_fx"
	"linkbio/cmd/fx/payment_service_fx"
	"linkbio/internal/config"
	"linkbio/pkg/logger"
)

var (
	envFile string
	cfg     *config.Config
	log     *zap.Logger
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

var rootCmd = &cobra.Command{
	Use:   "linkbio",
	Short: "Link-in-bio server with paid plans",
	Long: `linkbio serves public profile pages with a list of links, sells premium
plans through Paystack and downgrades accounts whose plans have lapsed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		l, err := logger.New(loaded.Log.Level, loaded.IsProduction())
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		cfg, log = loaded, l

		info := commandContext{correlationID: uuid.New(), startedAt: time.Now()}
		cmd.SetContext(context.WithValue(cmd.Context(), commandContextKey{}, info))
		log.Info("command start",
			zap.String("command", cmd.CommandPath()),
			zap.String("correlation_id", info.correlationID.String()),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log == nil {
			return
		}
		defer func() { _ = log.Sync() }()

		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		log.Info("command end",
			zap.String("command", cmd.CommandPath()),
			zap.String("correlation_id", info.correlationID.String()),
			zap.Int64("duration_ms", time.Since(info.startedAt).Milliseconds()),
		)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded outside production")
}

// coreModules is everything except the HTTP server and the scheduled sweep.
func coreModules() fx.Option {
	return fx.Options(
		config_fx.Module(cfg, log),
		db_fx.Module,
		memcache_fx.Module,
		events_fx.Module,
		metrics_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		link_fx.Module,
		payment_service_fx.Module,
	)
}

// runOnce starts a short-lived fx app, hands the populated targets to fn and
// stops the app again.
func runOnce(ctx context.Context, fn func(context.Context) error, targets ...interface{}) error {
	app := fx.New(coreModules(), fx.Populate(targets...))

	startCtx, cancel := context.WithTimeout(ctx, fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	runErr := fn(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
