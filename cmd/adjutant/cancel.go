package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/lifecycle"
	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/pkg/models"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Withdraw a clarification",
	Long: `Cancel a clarification that has not been confirmed yet.

Only pending and awaiting clarifications can be cancelled. Items the
scheduler is currently processing finish their step first; feedback items
cannot be cancelled at all, only retried after a failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	return moveItem(args[0], "cancel", models.StatusCancelled, "cancelled")
}

// moveItem applies one legal lifecycle transition to a stored work item.
func moveItem(id, verb string, target models.Status, logged string) error {
	_, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	item, err := db.LoadWorkItem(id)
	if err != nil {
		return fmt.Errorf("load work item %s: %w", id, err)
	}
	if item == nil {
		return fmt.Errorf("work item %s not found", id)
	}

	machine := lifecycle.NewMachine(lifecycle.DomainForKind(item.Kind), item.Status)
	if err := machine.Transition(target); err != nil {
		return fmt.Errorf("cannot %s %s %s (status %s): %w", verb, item.Kind, id, item.Status, err)
	}
	item.Status = machine.Current()

	if err := db.SaveWorkItem(item); err != nil {
		return fmt.Errorf("save work item: %w", err)
	}
	if err := db.AppendLog(id, store.LogInfo, logged); err != nil {
		fmt.Printf("Warning: failed to record log: %v\n", err)
	}

	fmt.Printf("%s is now %s\n", id, item.Status)
	return nil
}
