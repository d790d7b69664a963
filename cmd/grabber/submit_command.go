package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwygoda/grabber/internal/domain"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <url>",
		Short: "Queue a URL for download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRepository(cmd.Context(), func(repo repository) error {
				job, err := domain.NewJobService(repo).Submit(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("submit %s: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), job.ID.String())
				return nil
			})
		},
	}
}
