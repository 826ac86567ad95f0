package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cassini/internal/app"
	"github.com/abhisek/cassini/internal/config"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a study session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

// runPlay wires the services and launches the TUI. Logs go to a file so
// they do not draw over the screen.
func runPlay(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.LogFile == "" {
		if cfg.LogFile, err = config.DefaultLogFile(); err != nil {
			return fmt.Errorf("resolve log file: %w", err)
		}
	}
	svc, err := buildServices(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	id, name := learner(cmd)
	svc.log.Info("terminal session started", "user_id", id)
	return app.Run(app.Options{
		UserID: id,
		Name:   name,
		Client: svc.dispatcher,
	})
}
