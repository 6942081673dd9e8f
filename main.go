package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/tasktide/tasktide/internal/commands"
	"github.com/tasktide/tasktide/internal/core/auth"
	"github.com/tasktide/tasktide/internal/core/completion"
	"github.com/tasktide/tasktide/internal/core/config"
	"github.com/tasktide/tasktide/internal/core/eventbus"
	"github.com/tasktide/tasktide/internal/core/logging"
	"github.com/tasktide/tasktide/internal/data/db"
	"github.com/tasktide/tasktide/internal/data/stores"
	"github.com/tasktide/tasktide/internal/tasktide"
	"github.com/tasktide/tasktide/internal/tasktide/sweep"
	"github.com/tasktide/tasktide/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser  func()
		ttApp      = &tasktide.App{}
		database   *db.DB
		bgCancel   context.CancelFunc
		cfgWatcher *config.Watcher
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "tasktide",
		Usage:     "Student productivity: tasks, focus sessions, and a study assistant",
		UsageText: "tasktide [global options] command [command options]",
		Description: `TaskTide tracks study tasks and pomodoro focus sessions, keeps a
conversation log with an AI study assistant, and renders a live
dashboard of daily progress.

Run 'tasktide' with no arguments to open the dashboard.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TASKTIDE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/tasktide.log)",
				Sources:     cli.EnvVars("TASKTIDE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKTIDE_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKTIDE_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; TUI output owns stdout.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "tasktide.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			dbOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeoutMS,
			}
			database, err = db.Open(cfg.DataDir, dbOpts)
			if err != nil {
				if stores.IsCorruptionError(err) {
					log.Error().Err(err).Msg("database corrupted, backing up and recreating")
					if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
						return ctx, fmt.Errorf("recover database: %w", rerr)
					}
					database, err = db.Open(cfg.DataDir, dbOpts)
				}
				if err != nil {
					return ctx, fmt.Errorf("open database: %w", err)
				}
			}

			taskStore := stores.NewTaskStore(database)
			sessionStore := stores.NewPomodoroStore(database)
			msgStore := stores.NewMessageStore(database)
			kvStore := stores.NewKVStore(database)

			bus := eventbus.New()
			eventbus.RegisterDebugLogger(bus, log.Logger)

			bgCtx, cancel := context.WithCancel(context.Background())
			bgCancel = cancel
			go bus.Run(bgCtx)
			go sweep.Start(bgCtx, kvStore, 5*time.Minute)

			completer := completion.New(completion.Options{
				BaseURL: cfg.AI.BaseURL,
				APIKey:  cfg.AI.ResolveAPIKey(),
				Model:   cfg.AI.Model,
				Timeout: cfg.AI.Timeout(),
			})

			provider := auth.NewStaticProvider(cfg.Owner.ID, cfg.Owner.DisplayName)

			// Hot-reload config edits; invalid files are logged and skipped.
			// The startup cfg is shared and never mutated: subscribers get
			// the fresh snapshot through the event payload.
			cfgWatcher, err = config.NewWatcher(flags.ConfigPath, flags.DataDir, func(next *config.Config) {
				completer.SetOptions(completion.Options{
					BaseURL: next.AI.BaseURL,
					APIKey:  next.AI.ResolveAPIKey(),
					Model:   next.AI.Model,
					Timeout: next.AI.Timeout(),
				})
				bus.PublishConfigReloaded(eventbus.ConfigReloadedPayload{Config: next})
			}, log.Logger)
			if err != nil {
				log.Warn().Err(err).Msg("config watcher unavailable")
			} else {
				go cfgWatcher.Run(bgCtx)
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*ttApp = *tasktide.NewApp(tasktide.Deps{
				TaskStore:    taskStore,
				SessionStore: sessionStore,
				MessageStore: msgStore,
				KV:           kvStore,
				Completer:    completer,
				Auth:         provider,
				Config:       cfg,
				Bus:          bus,
				DB:           database,
				Log:          log.Logger,
			})

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if bgCancel != nil {
				bgCancel()
			}

			if cfgWatcher != nil {
				_ = cfgWatcher.Close()
			}

			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	dashCmd := commands.NewDashboardCmd(flags, ttApp)

	app = commands.NewTaskCmd(flags, ttApp).Register(app)
	app = commands.NewPomodoroCmd(flags, ttApp).Register(app)
	app = commands.NewChatCmd(flags, ttApp).Register(app)
	app = commands.NewStatsCmd(flags, ttApp).Register(app)
	app = commands.NewLinkCmd(flags, ttApp).Register(app)
	app = dashCmd.Register(app)

	// Open the dashboard when no subcommand is provided.
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'tasktide --help' for usage", c.Args().First())
		}
		return dashCmd.Run(ctx, c)
	}

	exitCode := 0
	if runErr := app.Run(ctx, os.Args); runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
