package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "status <content-id>",
		Short: "Show the publish status of a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			contentID := args[0]
			if full {
				item, err := app.Store.Get(cmd.Context(), contentID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(item)
			}

			status, err := app.Review.GetPublishStatus(cmd.Context(), contentID)
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "print the full item including insights")
	return cmd
}
