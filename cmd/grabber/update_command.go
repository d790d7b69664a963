package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwygoda/grabber/internal/adapter/process"
	"github.com/cwygoda/grabber/internal/ytdlp"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Self-update the yt-dlp binary now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// The update does not touch the work directory.
			tool := ytdlp.NewTool(process.NewRunner(ctx.logger), "", cfg.YtDlp)
			res, err := tool.Update(cmd.Context())
			if err != nil {
				return fmt.Errorf("run yt-dlp update: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Output())
			if !res.Success {
				return fmt.Errorf("yt-dlp update exited with code %d", res.ExitCode)
			}
			return nil
		},
	}
}
