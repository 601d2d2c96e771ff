package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/probify/formatter"
	"github.com/gnoswap-labs/probify/internal/symbolic"
	"github.com/gnoswap-labs/probify/runner"
)

var errNotEquivalent = errors.New("programs are not equivalent")

// compareCmd: probify compare <left> <right>
var compareCmd = &cobra.Command{
	Use:   "compare <left> <right>",
	Short: "Check whether two dice programs produce the same law",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		left, right := args[0], args[1]
		engine := runner.New(engineConfig(cmd), logger)

		report, err := engine.Compare(left, right)
		if err != nil {
			logger.Error("Error comparing programs", zap.String("left", left), zap.String("right", right), zap.Error(err))
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), formatter.Comparison(left, right, report, renderOptions(cmd)))
		if report.Result != symbolic.Equivalent {
			return errNotEquivalent
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&outputVar, "output", "", "variable whose law is compared (default from config)")
	addRenderFlags(compareCmd.Flags())
}
