package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"VideoDigest/internal/app"
)

func newProcessedCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "processed",
		Short: "Inspect or edit the processed video set",
	}
	cmd.AddCommand(newProcessedListCommand(ctx))
	cmd.AddCommand(newProcessedForgetCommand(ctx))
	return cmd
}

func newProcessedListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every processed video id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := ctx.setup()
			if err != nil {
				return err
			}
			defer closer.Close()

			ids, err := app.ListProcessed(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			fmt.Fprintf(out, "%d processed videos\n", len(ids))
			return nil
		},
	}
}

func newProcessedForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <video-id>...",
		Short: "Remove ids so the next run processes them again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := ctx.setup()
			if err != nil {
				return err
			}
			defer closer.Close()

			removed, err := app.ForgetProcessed(cmd.Context(), cfg, logger, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(removed) == 0 {
				fmt.Fprintln(out, "no matching ids")
				return nil
			}
			fmt.Fprintf(out, "forgot %s\n", strings.Join(removed, ", "))
			return nil
		},
	}
}
