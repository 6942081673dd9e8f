package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tasktide/tasktide/internal/core/actionlink"
	"github.com/tasktide/tasktide/internal/core/kv"
	"github.com/tasktide/tasktide/internal/tasktide"
)

// LinkCmd implements the tasktide link command: the landing for emailed
// account action links.
type LinkCmd struct {
	flags *Flags
	app   *tasktide.App

	verifyOnly bool
}

// NewLinkCmd creates a new link command.
func NewLinkCmd(flags *Flags, app *tasktide.App) *LinkCmd {
	return &LinkCmd{flags: flags, app: app}
}

// Register adds the link command to the application.
func (cmd *LinkCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "link",
		Usage:     "Apply an emailed account action link",
		UsageText: "tasktide link [--verify] <url>",
		Description: `Parses and applies an account action link (email verification,
password reset, email recovery) and prints the continue URL.

With --verify, only verification links are accepted: a password-reset
link is rejected before its one-time code is consumed.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "verify",
				Usage:       "treat this as the email-verification landing",
				Destination: &cmd.verifyOnly,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LinkCmd) run(ctx context.Context, c *cli.Command) error {
	raw := c.Args().First()
	if raw == "" {
		return fmt.Errorf("link url is required")
	}

	link, err := actionlink.Parse(raw)
	if err != nil {
		return err
	}

	handler := actionlink.NewHandler(&kvApplier{kv: cmd.app.KV})

	var redirect string
	if cmd.verifyOnly {
		redirect, err = handler.Verify(ctx, link)
	} else {
		redirect, err = handler.Handle(ctx, link)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.Root().Writer, redirect)
	return err
}

// kvApplier records applied action codes locally. Verification flips a
// KV flag; the other modes only consume the code.
type kvApplier struct {
	kv kv.KV
}

func (a *kvApplier) ApplyCode(ctx context.Context, mode actionlink.Mode, code string) error {
	if err := a.kv.Set(ctx, "actionlink.applied."+code, string(mode)); err != nil {
		return err
	}

	if mode == actionlink.ModeVerifyEmail {
		return a.kv.Set(ctx, "auth.email_verified", true)
	}
	return nil
}
