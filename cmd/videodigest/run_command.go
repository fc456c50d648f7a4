package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"VideoDigest/internal/app"
	"VideoDigest/internal/domain"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one polling pass over every configured channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := ctx.setup()
			if err != nil {
				return err
			}
			defer closer.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.RunOnce(runCtx)
			if report.RunID == "" {
				// The run never started, e.g. the lock was held.
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run immediately, then on the configured cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := ctx.setup()
			if err != nil {
				return err
			}
			defer closer.Close()

			watchCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(watchCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			out := cmd.OutOrStdout()
			err = application.Watch(watchCtx, func(report domain.RunReport) {
				printReport(out, report)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
