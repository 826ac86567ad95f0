package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cassini/internal/curriculum"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		id, _ := learner(cmd)
		u, err := svc.tracker.User(ctx, id)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		grade, _ := cmd.Flags().GetInt("grade")
		if grade == 0 {
			grade = u.Grade
		}
		gs, err := svc.tracker.Stats(ctx, id, grade)
		if err != nil {
			return err
		}

		fmt.Printf("User %d (%s)  level %d  %d XP  %d XP this week  streak %d\n",
			u.ID, u.DisplayName, u.Level, u.TotalXP, u.WeeklyXP, u.StreakCount)
		fmt.Printf("Grade %d: %d units started, %.1f%% mean completion\n\n",
			gs.Grade, gs.UnitsStarted, gs.MeanCompletion)
		if len(gs.Subjects) == 0 {
			fmt.Println("No progress yet.")
			return nil
		}

		fmt.Printf("%-12s  %5s  %9s  %7s  %s\n", "Subject", "Units", "Attempted", "Correct", "Completion")
		fmt.Println(strings.Repeat("─", 56))
		for _, s := range gs.Subjects {
			fmt.Printf("%-12s  %5d  %9d  %7d  %9.1f%%\n",
				curriculum.SubjectName(s.SubjectCode), s.UnitsStarted, s.Attempted, s.Correct, s.MeanCompletion)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("grade", 0, "Grade to summarize (defaults to the learner's grade)")
}
