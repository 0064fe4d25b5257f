// Package main implements the pixctl CLI for browsing PIX review data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/gopix/internal/logging"
	"github.com/fyrsmithlabs/gopix/pkg/config"
	"github.com/fyrsmithlabs/gopix/pkg/models"
	"github.com/fyrsmithlabs/gopix/pkg/object"
	"github.com/fyrsmithlabs/gopix/pkg/session"
)

var (
	// configFile overrides the default config path
	configFile string
	// verbose enables debug logging on stderr
	verbose bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pixctl",
	Short: "CLI for the PIX review and annotation service",
	Long: `pixctl is a command-line interface for the PIX review and annotation service.
It lists projects, reads project inboxes, marks items as read, and downloads
note media.

Credentials and the API endpoint come from ~/.config/gopix/config.yaml or
PIX_* environment variables:

  PIX_API_URL   API endpoint, e.g. https://project.pixsystem.com/developer_api/v1
  PIX_APP_KEY   Application key issued by PIX
  PIX_USERNAME  Account username
  PIX_PASSWORD  Account password`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default ~/.config/gopix/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newSession builds a session from the standard configuration sources. The
// CLI logs warnings only unless --verbose asks for the full request trace.
func newSession() (*session.Session, error) {
	cfg, err := config.LoadWithFile(configFile)
	if err != nil {
		return nil, err
	}

	cfg.Logging.Format = "console"
	cfg.Logging.Level = zapcore.WarnLevel
	if verbose {
		cfg.Logging.Level = zapcore.DebugLevel
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return session.New(cfg, session.WithLogger(logger))
}

// loadProject resolves a project by label or id and returns its typed
// extension, with activation handled by the extension's own methods.
func loadProject(ctx context.Context, s *session.Session, nameOrID string) (*models.Project, error) {
	obj, err := s.LoadProject(ctx, nameOrID)
	if err != nil {
		return nil, err
	}
	proj, ok := object.As[*models.Project](obj)
	if !ok {
		return nil, fmt.Errorf("%s did not build as a project", obj)
	}
	return proj, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
