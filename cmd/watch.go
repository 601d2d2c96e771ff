package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/probify/internal"
	"github.com/gnoswap-labs/probify/runner"
)

// watchCmd: probify watch [paths...]
var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Evaluate dice programs and re-evaluate them whenever they change",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine := runner.New(engineConfig(cmd), logger)
		opts := renderOptions(cmd)
		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

		outcomes, err := runner.ProcessFiles(ctx, logger, engine, args, runner.ProcessFile)
		if err != nil {
			return err
		}
		printCharts(out, errOut, outcomes, opts)

		err = engine.StartWatching(args, func(r internal.Result, err error) {
			printCharts(out, errOut, []runner.Outcome{{Filename: r.Filename, Result: r, Err: err}}, opts)
		})
		if err != nil {
			logger.Error("Error starting watcher", zap.Error(err))
			return err
		}
		fmt.Fprintln(errOut, "Watching for changes. Press Ctrl+C to stop.")

		<-ctx.Done()
		return engine.StopWatching()
	},
}

func init() {
	watchCmd.Flags().StringVar(&outputVar, "output", "", "variable whose law is reported (default from config)")
	addRenderFlags(watchCmd.Flags())
}
