package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trustpipe/trustpipe/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	var printResult bool

	cmd := &cobra.Command{
		Use:   "run <content-id>",
		Short: "Run the verification pipeline for one content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			contentID := args[0]
			if err := app.Orchestrator.Run(cmd.Context(), contentID); err != nil {
				if err == pipeline.ErrPipelineInProgress {
					fmt.Fprintf(os.Stderr, "content %s is already being processed\n", contentID)
					return nil
				}
				return err
			}

			if printResult {
				item, err := app.Store.Get(cmd.Context(), contentID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(item)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printResult, "print", false, "print the scored item as JSON")
	return cmd
}
