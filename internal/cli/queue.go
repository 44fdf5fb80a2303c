package cli

import (
	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List the current queue",
		Long:  "List all connected participants, active seats first, waiters in join order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result QueueResult

			if err := client.Get("/api/v1/queue", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
