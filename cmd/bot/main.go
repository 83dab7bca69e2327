package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/config"
	"github.com/namiferry/ferrybot/internal/bot"
	"github.com/namiferry/ferrybot/internal/logging"
	"github.com/namiferry/ferrybot/internal/scheduler"
	"github.com/namiferry/ferrybot/internal/service"
	"github.com/namiferry/ferrybot/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ferrybot",
		Short:        "Ferry fleet operations console",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newSeedCmd(),
		newReportCmd(),
		newMigrateCmd(),
		newCalendarsCmd(),
	)
	return root
}

// setup loads config and logger and opens the app. Callers must Close the app
// and Sync the logger.
func setup() (*app, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	a, err := newApp(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return a, log, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console API, the Telegram webhook and the daily briefings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	log := a.log

	tgBot, err := bot.New(a.cfg, a.svc, a.live, log)
	if err != nil {
		return fmt.Errorf("init bot: %w", err)
	}
	if err := tgBot.SetupWebhook(); err != nil {
		return fmt.Errorf("setup webhook: %w", err)
	}

	sched := scheduler.New(a.cfg, a.svc.Dashboard, a.svc.Logs, a.svc.Telegram, log)

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Error("Scheduler error", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- tgBot.Start(ctx)
	}()

	log.Info("FerryBot started",
		zap.String("storage", a.cfg.StorageDriver),
		zap.String("telegram", a.cfg.TelegramMode),
		zap.String("port", a.cfg.ServerPort),
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("Bot error", zap.Error(err))
		}
	}

	log.Info("Shutting down...")
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := tgBot.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping bot", zap.Error(err))
	}

	log.Info("FerryBot stopped")
	return nil
}

func newSeedCmd() *cobra.Command {
	var (
		force bool
		file  string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the default roster and fleet into storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			if file == "" {
				file = a.cfg.SeedFile
			}
			seed := service.DefaultSeed()
			if file != "" {
				if seed, err = service.LoadSeedFile(file); err != nil {
					return err
				}
			}

			written, err := service.WriteSeed(cmd.Context(), a.sn, seed, force)
			if err != nil {
				return err
			}
			if len(written) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to seed, use --force to overwrite")
				return nil
			}
			for _, k := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", k)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite keys that already hold data")
	cmd.Flags().StringVar(&file, "file", "", "YAML seed file (defaults to SEED_FILE)")
	return cmd
}

func newReportCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the voyage logs of one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			loc := a.cfg.Timezone
			day := a.svc.Logs.Now()
			if date != "" {
				if day, err = time.ParseInLocation("2006-01-02", date, loc); err != nil {
					return fmt.Errorf("invalid --date, want YYYY-MM-DD: %w", err)
				}
			}

			logs, err := a.svc.Logs.ForDate(cmd.Context(), day)
			if err != nil && !errors.Is(err, service.ErrNotFound) {
				return err
			}
			return writeReport(cmd.OutOrStdout(), day, logs, loc)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to report, YYYY-MM-DD (defaults to today)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var (
		to      string
		dbPath  string
		dataDir string
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every snapshot from the configured storage into another backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			if to == a.cfg.StorageDriver {
				return fmt.Errorf("source and target are both %s", to)
			}
			if dbPath == "" {
				dbPath = a.cfg.DatabasePath
			}
			if dataDir == "" {
				dataDir = a.cfg.DataDir
			}

			dst, err := storage.Open(to, dbPath, dataDir)
			if err != nil {
				return err
			}
			defer dst.Close()

			n, err := storage.Migrate(cmd.Context(), a.store, dst)
			if err != nil {
				return err
			}
			log.Info("Migrated snapshots", zap.String("from", a.cfg.StorageDriver), zap.String("to", to), zap.Int("keys", n))
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d keys to %s\n", n, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", storage.DriverFile, "target driver: sqlite or file")
	cmd.Flags().StringVar(&dbPath, "db", "", "target sqlite path (defaults to DATABASE_PATH)")
	cmd.Flags().StringVar(&dataDir, "dir", "", "target snapshot directory (defaults to DATA_DIR)")
	return cmd
}

func newCalendarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendars",
		Short: "List the CalDAV calendars voyages can be published to",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			cals, err := a.svc.Calendar.DiscoverCalendars(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range cals {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.DisplayName)
			}
			return nil
		},
	}
}
