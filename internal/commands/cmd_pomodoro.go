package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tasktide/tasktide/internal/core/pomodoro"
	"github.com/tasktide/tasktide/internal/tasktide"
	"github.com/tasktide/tasktide/pkg/iojson"
)

// PomodoroCmd implements the tasktide pomodoro command group.
type PomodoroCmd struct {
	flags *Flags
	app   *tasktide.App

	startMinutes int
	startBreak   bool
}

// NewPomodoroCmd creates a new pomodoro command.
func NewPomodoroCmd(flags *Flags, app *tasktide.App) *PomodoroCmd {
	return &PomodoroCmd{flags: flags, app: app}
}

// Register adds the pomodoro command to the application.
func (cmd *PomodoroCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "pomodoro",
		Aliases: []string{"pomo"},
		Usage:   "Manage focus sessions",
		Description: `Pomodoro commands for timed focus and break intervals.

Only completed work sessions count toward dashboard focus minutes.

Examples:
  tasktide pomodoro start              # 25-minute work session
  tasktide pomodoro start -m 50        # longer interval
  tasktide pomodoro start --break -m 5 # rest interval
  tasktide pomodoro complete <id>
  tasktide pomodoro list`,
		Commands: []*cli.Command{
			cmd.startCmd(),
			cmd.completeCmd(),
			cmd.listCmd(),
		},
	})

	return app
}

func (cmd *PomodoroCmd) startCmd() *cli.Command {
	return &cli.Command{
		Name:      "start",
		Usage:     "Start a session",
		UsageText: "tasktide pomodoro start [-m <minutes>] [--break]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "minutes",
				Aliases:     []string{"m"},
				Usage:       "session length in minutes (default 25)",
				Destination: &cmd.startMinutes,
			},
			&cli.BoolFlag{
				Name:        "break",
				Usage:       "start a break instead of a work session",
				Destination: &cmd.startBreak,
			},
		},
		Action: cmd.runStart,
	}
}

func (cmd *PomodoroCmd) runStart(ctx context.Context, c *cli.Command) error {
	ctx, user, err := currentOwner(ctx, cmd.app)
	if err != nil {
		return err
	}

	typ := pomodoro.TypeWork
	if cmd.startBreak {
		typ = pomodoro.TypeBreak
	}

	sess, err := cmd.app.Pomodoros.Start(ctx, user.ID, cmd.startMinutes, typ)
	if err != nil {
		return err
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, sess)
}

func (cmd *PomodoroCmd) completeCmd() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "Complete a session",
		UsageText: "tasktide pomodoro complete <id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, err := currentOwner(ctx, cmd.app)
			if err != nil {
				return err
			}

			id := c.Args().First()
			if id == "" {
				return fmt.Errorf("session id is required")
			}

			return cmd.app.Pomodoros.Complete(ctx, user.ID, id)
		},
	}
}

func (cmd *PomodoroCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List sessions as JSON lines",
		UsageText: "tasktide pomodoro list",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, err := currentOwner(ctx, cmd.app)
			if err != nil {
				return err
			}

			sessions, err := cmd.app.Pomodoros.List(ctx, user.ID)
			if err != nil {
				return err
			}

			for _, sess := range sessions {
				if err := iojson.WriteLine(c.Root().Writer, sess); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
