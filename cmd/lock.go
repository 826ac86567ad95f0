package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cassini/internal/locks"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect and toggle content locks",
}

var lockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lock rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		rows, err := svc.registry.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list locks: %w", err)
		}
		if len(rows) == 0 {
			fmt.Println("No locks.")
			return nil
		}

		fmt.Printf("%-8s  %-28s  %-6s  %-10s  %-19s  %s\n",
			"Type", "Target", "State", "By", "At", "Reason")
		fmt.Println(strings.Repeat("─", 100))
		for _, l := range rows {
			state := "open"
			if l.Locked {
				state = "locked"
			}
			fmt.Printf("%-8s  %-28s  %-6s  %-10d  %-19s  %s\n",
				l.Type, l.Target, state, l.LockedBy, l.LockedAt.Format("2006-01-02 15:04:05"), l.Reason)
		}
		return nil
	},
}

var lockToggleCmd = &cobra.Command{
	Use:   "toggle <feature|subject|unit> <target>",
	Short: "Flip a lock, e.g. toggle unit BIO:G10:U2",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		by, _ := cmd.Flags().GetInt64("user")

		svc, err := openServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		typ := locks.Type(strings.ToUpper(args[0]))
		l, err := svc.registry.Toggle(cmd.Context(), by, typ, args[1], reason)
		if err != nil {
			return fmt.Errorf("toggle lock: %w", err)
		}
		state := "unlocked"
		if l.Locked {
			state = "locked"
		}
		fmt.Printf("%s %s %s\n", strings.ToLower(string(l.Type)), l.Target, state)
		return nil
	},
}

func init() {
	lockToggleCmd.Flags().String("reason", "", "Why the lock was set")

	lockCmd.AddCommand(lockListCmd)
	lockCmd.AddCommand(lockToggleCmd)
}
