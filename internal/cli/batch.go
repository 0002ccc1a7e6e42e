package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trustpipe/trustpipe/internal/worker"
)

func newBatchCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "batch <id-file>",
		Short: "Run the pipeline over content IDs listed in a file",
		Long: `Reads content IDs (one per line, # comments allowed) and processes
them concurrently. Items already processed or currently held by another
run are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ids, err := worker.ReadIDsFromFile(args[0])
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("no content IDs to process")
				return nil
			}

			if workers <= 0 {
				workers = app.Config.Concurrency.PipelineWorkers
			}
			pool := worker.NewPool(app.Orchestrator, workers, app.Logger)
			results := pool.Process(cmd.Context(), worker.TasksFromIDs(ids))

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			fmt.Printf("processed %d items, %d failed\n", len(results)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d items failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent pipeline workers (default from config)")
	return cmd
}
