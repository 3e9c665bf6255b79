package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/handler"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm <id> [question=answer ...]",
	Short: "Answer a clarification and spawn its feedback item",
	Long: `Confirm an analyzed clarification.

Answers are given as question-id=answer pairs; run 'adjutant status <id>'
to see the open questions first. All required questions must be answered.
Confirmation moves the clarification to confirmed and spawns a pending
feedback item that the scheduler plans and executes.

Examples:
  adjutant confirm 20260106T101530-a1b2c3d4 q1=stripe q2="use the eu region"
  adjutant confirm 20260106T101530-a1b2c3d4   # no open questions`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConfirm,
}

func runConfirm(cmd *cobra.Command, args []string) error {
	id := args[0]

	answers := make(map[string]string)
	for _, pair := range args[1:] {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("malformed answer %q: want question-id=answer", pair)
		}
		answers[key] = value
	}

	_, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	feedback, err := handler.Confirm(db, id, answers)
	if err != nil {
		return err
	}

	fmt.Printf("Confirmed %s\n", id)
	fmt.Printf("Spawned feedback %s\n", feedback.ID)
	fmt.Println("The scheduler plans and executes it on its next poll.")
	return nil
}
