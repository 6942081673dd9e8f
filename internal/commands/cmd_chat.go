package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"

	"github.com/tasktide/tasktide/internal/core/chat"
	"github.com/tasktide/tasktide/internal/tasktide"
)

// ChatCmd implements the tasktide chat command group.
type ChatCmd struct {
	flags *Flags
	app   *tasktide.App

	logFull bool
}

// NewChatCmd creates a new chat command.
func NewChatCmd(flags *Flags, app *tasktide.App) *ChatCmd {
	return &ChatCmd{flags: flags, app: app}
}

// Register adds the chat command to the application.
func (cmd *ChatCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "chat",
		Usage: "Talk to the study assistant",
		Description: `Chat commands for the AI study assistant.

The conversation log is append-only: failed replies are recorded too,
and clearing only hides history from display.

Examples:
  tasktide chat send "explain the Krebs cycle"
  tasktide chat log
  tasktide chat clear`,
		Commands: []*cli.Command{
			cmd.sendCmd(),
			cmd.logCmd(),
			cmd.clearCmd(),
		},
	})

	return app
}

func (cmd *ChatCmd) sendCmd() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send a message and print the reply",
		UsageText: "tasktide chat send <message>",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, err := currentOwner(ctx, cmd.app)
			if err != nil {
				return err
			}

			content := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if content == "" {
				return fmt.Errorf("message text is required")
			}

			reply, err := cmd.app.Chat.Send(ctx, user.ID, content)
			if err != nil {
				return err
			}

			rendered, err := renderMarkdown(reply.Content)
			if err != nil {
				// Raw text is still a perfectly good reply.
				rendered = reply.Content
			}
			_, err = fmt.Fprintln(c.Root().Writer, rendered)
			return err
		},
	}
}

func (cmd *ChatCmd) logCmd() *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "Print the conversation",
		UsageText: "tasktide chat log [--full]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "full",
				Usage:       "include messages hidden by previous clears",
				Destination: &cmd.logFull,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, err := currentOwner(ctx, cmd.app)
			if err != nil {
				return err
			}

			var messages []chat.Message
			if cmd.logFull {
				messages, err = cmd.app.Chat.FullLog(ctx, user.ID)
			} else {
				messages, err = cmd.app.Chat.Log(ctx, user.ID)
			}
			if err != nil {
				return err
			}

			for _, m := range messages {
				label := "you"
				if m.Role == chat.RoleAssistant {
					label = "assistant"
				}

				body := m.Content
				if m.Role == chat.RoleAssistant {
					if rendered, rerr := renderMarkdown(m.Content); rerr == nil {
						body = rendered
					}
				}

				ts := m.CreatedAt.Format("Jan 02 15:04")
				if _, err := fmt.Fprintf(c.Root().Writer, "[%s] %s:\n%s\n", ts, label, body); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (cmd *ChatCmd) clearCmd() *cli.Command {
	return &cli.Command{
		Name:      "clear",
		Usage:     "Hide the current conversation from display",
		UsageText: "tasktide chat clear",
		Description: `Clears the visible conversation. History is never deleted;
"chat log --full" still shows everything.`,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, user, err := currentOwner(ctx, cmd.app)
			if err != nil {
				return err
			}
			return cmd.app.Chat.Clear(ctx, user.ID)
		},
	}
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}

	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
