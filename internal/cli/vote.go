package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trustpipe/trustpipe/internal/model"
	"github.com/trustpipe/trustpipe/internal/store"
)

func newVoteCmd() *cobra.Command {
	var (
		reviewerID    string
		action        string
		sources       []string
		justification string
	)

	cmd := &cobra.Command{
		Use:   "vote <content-id>",
		Short: "Submit a review vote on a needs_review item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			contentID := args[0]
			err = app.Review.SubmitReviewVote(cmd.Context(), contentID, reviewerID,
				model.VoteAction(action), sources, justification)
			if err == store.ErrDuplicateVote {
				return fmt.Errorf("reviewer %s already voted on %s", reviewerID, contentID)
			}
			if err != nil {
				return err
			}

			status, err := app.Review.GetPublishStatus(cmd.Context(), contentID)
			if err != nil {
				return err
			}
			fmt.Printf("vote recorded; content %s is now %s\n", contentID, status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reviewerID, "reviewer", "r", "", "reviewer user ID")
	cmd.Flags().StringVarP(&action, "action", "a", "", "validate or invalidate")
	cmd.Flags().StringArrayVarP(&sources, "source", "s", nil, "source URL (repeatable, 1-10 required)")
	cmd.Flags().StringVarP(&justification, "justification", "j", "", "written justification (20-500 characters)")
	_ = cmd.MarkFlagRequired("reviewer")
	_ = cmd.MarkFlagRequired("action")
	_ = cmd.MarkFlagRequired("justification")

	return cmd
}
