package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	processEmail    string
	processTimezone string
	processDryRun   bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Send reminders for every task that is due now",
	Long: `Runs one pass over the task catalog: every task whose schedule has an
instant within 14 minutes of now, and that was not reminded in the last
59 minutes, is dispatched once. Run it from cron at least every 15 minutes.`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processEmail, "email", "", "Send reminders to this address (enables email)")
	processCmd.Flags().StringVar(&processTimezone, "timezone", "", "Time zone for this pass (overrides config)")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "Report what would fire without sending or saving")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if processTimezone != "" {
		if err := applyTimezone(processTimezone); err != nil {
			return err
		}
		cfg.Timezone = processTimezone
	}
	if processEmail != "" {
		cfg.Email.Enabled = true
		cfg.Email.To = processEmail
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := b.processor(cfg, processDryRun)
	if err != nil {
		return err
	}
	res, err := proc.Process(ctx)
	if err != nil {
		return err
	}

	verb := "Sent"
	if processDryRun {
		verb = "Would send"
	}
	for _, f := range res.Firings {
		label := f.Reminder.Frequency.Label()
		if label == "" {
			label = "Once"
		}
		if f.Err != nil {
			fmt.Printf("FAILED  %-8s %s: %v\n", label, f.Reminder.Name, f.Err)
			continue
		}
		fmt.Printf("%s  %-8s %s\n", verb, label, f.Reminder.Name)
	}
	fmt.Printf("%d task(s) checked, %d reminder(s), %d failed\n", res.Tasks, len(res.Firings), res.Failed())
	return nil
}
