package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tasktide/tasktide/internal/core/auth"
	"github.com/tasktide/tasktide/internal/core/config"
	"github.com/tasktide/tasktide/internal/core/logging"
	"github.com/tasktide/tasktide/internal/tasktide"
)

// Flags holds global CLI flag values, populated before any command runs.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "tasktide", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "tasktide")
}

// currentOwner resolves the signed-in owner or fails with a hint toward
// the config file. The returned context carries the owner ID so log
// events emitted downstream pick it up.
func currentOwner(ctx context.Context, app *tasktide.App) (context.Context, auth.User, error) {
	user, err := app.Auth.CurrentUser()
	if err != nil {
		return ctx, auth.User{}, fmt.Errorf("no signed-in user: set owner.id in your config file: %w", err)
	}
	return logging.WithOwnerID(ctx, user.ID), user, nil
}
