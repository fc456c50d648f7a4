package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"VideoDigest/internal/infrastructure/scheduler"
)

func newCheckConfigCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			sched := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), nil)
			if err := sched.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, warning := range cfg.Warnings() {
				fmt.Fprintln(out, colorText("warning: "+warning, ansiYellow, colorize))
			}

			book := cfg.RecipientBook()
			rows := make([][]string, 0, len(cfg.Channels))
			for _, ch := range cfg.Channels {
				rows = append(rows, []string{ch.ID, cfg.ScannerFor(ch), fmt.Sprint(len(book.Resolve(ch.ID)))})
			}
			fmt.Fprintln(out, renderTable([]string{"Channel", "Scanner", "Recipients"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
			fmt.Fprintln(out, colorText("configuration OK", ansiGreen, colorize))
			return nil
		},
	}
}
