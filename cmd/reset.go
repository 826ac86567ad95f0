package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cassini/internal/dispatch"
	"github.com/abhisek/cassini/internal/nav"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a learner's progress and session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to reset without --yes")
		}
		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		id, name := learner(cmd)
		v, err := svc.dispatcher.Handle(cmd.Context(), dispatch.Request{
			UserID: id,
			Name:   name,
			Data:   nav.Act("SET", "RESET_CONFIRM"),
		})
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Println(v.Notice)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
