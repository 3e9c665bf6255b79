package main

import (
	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/pkg/models"
)

var retryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Requeue a failed work item",
	Long: `Move a failed work item back to pending so the scheduler picks it
up again on its next poll.

Works for both clarifications and feedback items. Anything other than a
failed item is rejected, so a retry can never interrupt work in flight.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

func runRetry(cmd *cobra.Command, args []string) error {
	return moveItem(args[0], "retry", models.StatusPending, "requeued for retry")
}
