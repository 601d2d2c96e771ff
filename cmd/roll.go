package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/probify/formatter"
	"github.com/gnoswap-labs/probify/internal/symbolic"
	"github.com/gnoswap-labs/probify/runner"
)

// rollCmd: probify roll <expression...>
var rollCmd = &cobra.Command{
	Use:   "roll <expression...>",
	Short: "Print the law of a dice expression such as 3d6 or \"2d8 + 4\"",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context())
		defer cancel()

		c := config
		c.Output = symbolic.DefaultOutput
		engine := runner.New(c, logger)
		opts := renderOptions(cmd)

		sources := make([][]byte, len(args))
		for i, expr := range args {
			sources[i] = rollSource(expr)
		}
		outcomes, err := runner.ProcessSources(ctx, logger, engine, sources, runner.ProcessSource)
		if err != nil {
			logger.Error("Error evaluating expressions", zap.Error(err))
		}

		// outcomes follow args; the expression is the title
		failed := 0
		for i, o := range outcomes {
			expr := args[i]
			if o.Failed() {
				failed++
				source := formatter.NewSourceCode(string(sources[i]))
				fmt.Fprint(cmd.ErrOrStderr(), formatter.FormatErrorWithSource(expr, source, o.Err, opts))
				continue
			}
			chart, cerr := formatter.Chart(expr, o.Result.Distribution, opts)
			if cerr != nil {
				failed++
				fmt.Fprint(cmd.ErrOrStderr(), formatter.FormatError(expr, cerr, opts))
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), chart)
		}

		if err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d expressions failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	addRenderFlags(rollCmd.Flags())
}

func rollSource(expr string) []byte {
	return []byte(fmt.Sprintf("%s = %s\n", symbolic.DefaultOutput, expr))
}
