package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cassini",
	Short: "Quiz tutor with per-learner study sessions",
	Long:  "Cassini serves unit quizzes, review queues and timed games from a local question bank, one saved session per learner.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CASSINI_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides CASSINI_CONFIG env var)")
	rootCmd.PersistentFlags().String("data", "", "Question bank directory (overrides data_dir)")
	rootCmd.PersistentFlags().Int64("user", 1, "Learner id")
	rootCmd.PersistentFlags().String("name", "", "Learner display name")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
