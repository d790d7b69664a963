package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cwygoda/grabber/internal/domain"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent download jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRepository(cmd.Context(), func(repo repository) error {
				jobs, err := domain.NewJobService(repo).List(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list jobs: %w", err)
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderJobsTable(jobs, time.Now()))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", domain.DefaultListLimit, "Maximum number of jobs to show")
	return cmd
}

func renderJobsTable(jobs []domain.Job, now time.Time) string {
	headers := []string{"ID", "Status", "Requested", "URL", "Error"}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.ID.String(),
			string(job.Status()),
			humanize.RelTime(job.RequestedAt, now, "ago", "from now"),
			job.URL,
			job.ErrorMessage(),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
}
