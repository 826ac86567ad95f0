package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/abhisek/cassini/internal/questionbank"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check every round file in a question bank",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		} else {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir = cfg.DataDir
		}

		checked, problems, err := questionbank.New(dir, nil).ValidateTree()
		if err != nil {
			return fmt.Errorf("walk %s: %w", dir, err)
		}
		paths := make([]string, 0, len(problems))
		for p := range problems {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Printf("✗ %s: %v\n", p, problems[p])
		}
		fmt.Printf("\n%d files checked, %d invalid\n", checked, len(problems))
		if len(problems) > 0 {
			return fmt.Errorf("%d invalid round files", len(problems))
		}
		return nil
	},
}
