package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Escalate review items stuck past the expiry window",
		Long: `sweep lists content that has sat in needs_review longer than the
configured review expiry. Escalated items keep their status; the output is
the operator's queue. Run it periodically, e.g. from cron.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ids, err := app.Review.EscalateExpired(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no expired review items")
			}
			return nil
		},
	}
}
