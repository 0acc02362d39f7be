package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/tui"
)

var newFlags struct {
	offline bool
	sets    []string
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Enter a run record in the interactive wizard",
	Long: `Start the run wizard. If a saved draft exists it is restored at the step
where you left off; otherwise --set values prefill the record.

Examples:
  runwiz new
  runwiz new --set run.run_number=R-2001 --set depth.interval_from=1200
  runwiz new --offline`,
	RunE: runNew,
}

func init() {
	newCmd.Flags().BoolVar(&newFlags.offline, "offline", false, "Write submissions to the local outbox instead of the API")
	newCmd.Flags().StringArrayVar(&newFlags.sets, "set", nil, "Prefill a field as step.field=value (repeatable)")
}

func runNew(cmd *cobra.Command, args []string) error {
	seed, err := parseSeed(newFlags.sets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.close(); err != nil {
			logger.Warn("Closing draft store: %v", err)
		}
	}()

	sub, err := sess.submitter(newFlags.offline)
	if err != nil {
		return err
	}
	app := tui.NewApp(sess.ctrl, sub, seed).WithUIState(cfg.DataDir)
	res, err := tui.Run(ctx, app)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case tui.OutcomeSubmitted:
		fmt.Printf("Run %s submitted.\n", res.Payload.ID)
		if newFlags.offline {
			fmt.Printf("Written to %s\n", sess.outboxPath(res.Payload))
		}
	case tui.OutcomeCancelled:
		fmt.Println("Run discarded.")
	default:
		fmt.Println("Draft saved. Run 'runwiz new' to continue.")
	}
	return nil
}
