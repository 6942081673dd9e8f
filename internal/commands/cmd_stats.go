package commands

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tasktide/tasktide/internal/core/stats"
	"github.com/tasktide/tasktide/internal/tasktide"
	"github.com/tasktide/tasktide/pkg/iojson"
)

// StatsCmd implements the tasktide stats command.
type StatsCmd struct {
	flags *Flags
	app   *tasktide.App
}

// NewStatsCmd creates a new stats command.
func NewStatsCmd(flags *Flags, app *tasktide.App) *StatsCmd {
	return &StatsCmd{flags: flags, app: app}
}

// Register adds the stats command to the application.
func (cmd *StatsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "stats",
		Usage:     "Print dashboard aggregates as JSON",
		UsageText: "tasktide stats",
		Description: `Computes the dashboard projection from the current task and
session collections: today's progress, overall completion rate, focus
minutes, the weekly series, and upcoming tasks.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *StatsCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, user, err := currentOwner(ctx, cmd.app)
	if err != nil {
		return err
	}

	tasks, err := cmd.app.Tasks.List(ctx, user.ID)
	if err != nil {
		return err
	}

	sessions, err := cmd.app.Pomodoros.List(ctx, user.ID)
	if err != nil {
		return err
	}

	derived := stats.Compute(tasks, sessions, time.Now(), cmd.app.DashboardSettings().UpcomingLimit)
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, derived)
}
