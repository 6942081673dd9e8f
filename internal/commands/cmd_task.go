package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tasktide/tasktide/internal/core/task"
	"github.com/tasktide/tasktide/internal/tasktide"
	"github.com/tasktide/tasktide/pkg/iojson"
)

// TaskCmd implements the tasktide task command group.
type TaskCmd struct {
	flags *Flags
	app   *tasktide.App

	// create flags
	createTitle    string
	createSubject  string
	createPriority string
	createDeadline string

	// import flags
	importReader iojson.FileReader[task.Task]
}

// NewTaskCmd creates a new task command.
func NewTaskCmd(flags *Flags, app *tasktide.App) *TaskCmd {
	return &TaskCmd{flags: flags, app: app}
}

// Register adds the task command to the application.
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "task",
		Usage: "Manage tasks",
		Description: `Task commands for creating and tracking study work.

Examples:
  tasktide task create --title "Read chapter 4" --subject History
  tasktide task list
  tasktide task start <id>
  tasktide task complete <id>
  tasktide task delete <id>`,
		Commands: []*cli.Command{
			cmd.createCmd(),
			cmd.listCmd(),
			cmd.startCmd(),
			cmd.completeCmd(),
			cmd.reopenCmd(),
			cmd.deleteCmd(),
			cmd.importCmd(),
		},
	})

	return app
}

func (cmd *TaskCmd) createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a task",
		UsageText: "tasktide task create --title <title> [--subject <subject>] [--priority <p>] [--deadline <RFC3339 or YYYY-MM-DD>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "task title",
				Required:    true,
				Destination: &cmd.createTitle,
			},
			&cli.StringFlag{
				Name:        "subject",
				Aliases:     []string{"s"},
				Usage:       "subject or course the task belongs to",
				Destination: &cmd.createSubject,
			},
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "priority (low, medium, high)",
				Value:       string(task.PriorityMedium),
				Destination: &cmd.createPriority,
			},
			&cli.StringFlag{
				Name:        "deadline",
				Aliases:     []string{"d"},
				Usage:       "deadline as RFC3339 or YYYY-MM-DD",
				Destination: &cmd.createDeadline,
			},
		},
		Action: cmd.runCreate,
	}
}

func (cmd *TaskCmd) runCreate(ctx context.Context, c *cli.Command) error {
	ctx, user, err := currentOwner(ctx, cmd.app)
	if err != nil {
		return err
	}

	priority := task.Priority(cmd.createPriority)
	if !priority.IsValid() {
		return fmt.Errorf("invalid priority %q: must be one of low, medium, high", cmd.createPriority)
	}

	deadline, err := parseDeadline(cmd.createDeadline)
	if err != nil {
		return err
	}

	item := task.Task{
		OwnerID:  user.ID,
		Title:    cmd.createTitle,
		Subject:  cmd.createSubject,
		Priority: priority,
		Status:   task.StatusPending,
		Deadline: deadline,
	}
	if err := cmd.app.Tasks.Create(ctx, &item); err != nil {
		return err
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, item)
}

func (cmd *TaskCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List tasks as JSON lines",
		UsageText: "tasktide task list",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, err := currentOwner(ctx, cmd.app)
			if err != nil {
				return err
			}

			items, err := cmd.app.Tasks.List(ctx, user.ID)
			if err != nil {
				return err
			}

			for _, item := range items {
				if err := iojson.WriteLine(c.Root().Writer, item); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (cmd *TaskCmd) startCmd() *cli.Command {
	return &cli.Command{
		Name:      "start",
		Usage:     "Mark a task in-progress",
		UsageText: "tasktide task start <id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, id, err := cmd.ownerAndID(ctx, c)
			if err != nil {
				return err
			}
			return cmd.app.Tasks.Start(ctx, user, id)
		},
	}
}

func (cmd *TaskCmd) completeCmd() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "Mark a task completed",
		UsageText: "tasktide task complete <id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, id, err := cmd.ownerAndID(ctx, c)
			if err != nil {
				return err
			}
			return cmd.app.Tasks.Complete(ctx, user, id)
		},
	}
}

func (cmd *TaskCmd) reopenCmd() *cli.Command {
	return &cli.Command{
		Name:      "reopen",
		Usage:     "Move a completed task back to pending",
		UsageText: "tasktide task reopen <id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, id, err := cmd.ownerAndID(ctx, c)
			if err != nil {
				return err
			}
			return cmd.app.Tasks.Reopen(ctx, user, id)
		},
	}
}

func (cmd *TaskCmd) deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a task",
		UsageText: "tasktide task delete <id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, id, err := cmd.ownerAndID(ctx, c)
			if err != nil {
				return err
			}
			return cmd.app.Tasks.Delete(ctx, user, id)
		},
	}
}

func (cmd *TaskCmd) importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create a task from a JSON document",
		UsageText: "tasktide task import [-f <file>] (reads stdin when no file given)",
		Flags:     []cli.Flag{cmd.importReader.Flag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, err := currentOwner(ctx, cmd.app)
			if err != nil {
				return err
			}

			item, err := cmd.importReader.Read()
			if err != nil {
				return err
			}

			item.OwnerID = user.ID
			if item.Priority == "" {
				item.Priority = task.PriorityMedium
			}
			if item.Status == "" {
				item.Status = task.StatusPending
			}

			if err := cmd.app.Tasks.Create(ctx, &item); err != nil {
				return err
			}

			return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, item)
		},
	}
}

func (cmd *TaskCmd) ownerAndID(ctx context.Context, c *cli.Command) (_ context.Context, ownerID, taskID string, err error) {
	ctx, user, err := currentOwner(ctx, cmd.app)
	if err != nil {
		return ctx, "", "", err
	}

	taskID = c.Args().First()
	if taskID == "" {
		return ctx, "", "", fmt.Errorf("task id is required")
	}

	return ctx, user.ID, taskID, nil
}

// parseDeadline accepts RFC3339 timestamps or bare dates. A bare date
// means end of that local day, so "due today" stays true all day.
func parseDeadline(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q: use RFC3339 or YYYY-MM-DD", raw)
	}

	eod := day.Add(24*time.Hour - time.Second)
	return &eod, nil
}
