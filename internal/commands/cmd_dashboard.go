package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/tasktide/tasktide/internal/tasktide"
	"github.com/tasktide/tasktide/internal/tui"
)

// DashboardCmd implements the tasktide dashboard command.
type DashboardCmd struct {
	flags *Flags
	app   *tasktide.App
}

// NewDashboardCmd creates a new dashboard command.
func NewDashboardCmd(flags *Flags, app *tasktide.App) *DashboardCmd {
	return &DashboardCmd{flags: flags, app: app}
}

// Register adds the dashboard command to the application.
func (cmd *DashboardCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "dashboard",
		Aliases:   []string{"dash"},
		Usage:     "Open the live dashboard",
		UsageText: "tasktide dashboard",
		Description: `Opens the interactive dashboard: today's progress, focus
minutes, the weekly series, upcoming tasks, and a daily quote, all
updating live as tasks and sessions change.`,
		Action: cmd.Run,
	})

	return app
}

// Run starts the dashboard TUI. Exposed so the root command can use it
// as the default action.
func (cmd *DashboardCmd) Run(ctx context.Context, c *cli.Command) error {
	ctx, user, err := currentOwner(ctx, cmd.app)
	if err != nil {
		return err
	}

	return tui.Run(ctx, cmd.app, user, log.Logger)
}
