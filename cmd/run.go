package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/probify/formatter"
	"github.com/gnoswap-labs/probify/internal"
	"github.com/gnoswap-labs/probify/runner"
)

var (
	outputVar  string
	jsonOutput bool
	jsonPath   string

	decimalPlaces   int
	minLabelPercent float64
	noInterval      bool
	confidenceLevel float64
	noColor         bool
)

// runCmd: probify run [paths...]
var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Evaluate dice programs and print the law of their output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context())
		defer cancel()

		engine := runner.New(engineConfig(cmd), logger)
		outcomes, err := runner.ProcessFiles(ctx, logger, engine, args, runner.ProcessFile)
		if err != nil {
			logger.Error("Error evaluating programs", zap.Error(err))
			if len(outcomes) == 0 {
				return err
			}
		}

		opts := renderOptions(cmd)
		if jsonOutput || jsonPath != "" {
			printErrors(cmd.ErrOrStderr(), outcomes, opts)
			if werr := writeJSON(cmd.OutOrStdout(), outcomes, opts); werr != nil {
				return werr
			}
		} else {
			printCharts(cmd.OutOrStdout(), cmd.ErrOrStderr(), outcomes, opts)
		}

		if err != nil {
			return err
		}
		return failures(outcomes)
	},
}

func init() {
	flags := runCmd.Flags()
	flags.StringVar(&outputVar, "output", "", "variable whose law is reported (default from config)")
	flags.BoolVar(&jsonOutput, "json", false, "print the results as JSON")
	flags.StringVarP(&jsonPath, "out", "o", "", "write the JSON results to this file")
	addRenderFlags(flags)
}

func addRenderFlags(flags *pflag.FlagSet) {
	defaults := formatter.DefaultOptions()
	flags.IntVar(&decimalPlaces, "decimals", defaults.DecimalPlaces, "decimal places of percentages")
	flags.Float64Var(&minLabelPercent, "min-label", defaults.MinLabelPercent, "hide labels of outcomes below this percentage")
	flags.BoolVar(&noInterval, "no-ci", false, "do not mark the confidence interval")
	flags.Float64Var(&confidenceLevel, "level", defaults.ConfidenceLevel, "confidence level of the marked interval")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
}

// engineConfig applies the command line on top of the loaded configuration.
func engineConfig(cmd *cobra.Command) runner.Config {
	c := config
	if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
		c.Output = outputVar
	}
	return c
}

func renderOptions(cmd *cobra.Command) formatter.Options {
	opts := config.Render.Options()
	flags := cmd.Flags()
	if flags.Changed("decimals") {
		opts.DecimalPlaces = decimalPlaces
	}
	if flags.Changed("min-label") {
		opts.MinLabelPercent = minLabelPercent
	}
	if flags.Changed("no-ci") {
		opts.ShowConfidenceInterval = !noInterval
	}
	if flags.Changed("level") {
		opts.ConfidenceLevel = confidenceLevel
	}
	if flags.Changed("no-color") {
		opts.Color = !noColor
	}
	return opts
}

func chartTitle(r internal.Result) string {
	return fmt.Sprintf("%s (%s)", r.Filename, r.Output)
}

func printCharts(out, errOut io.Writer, outcomes []runner.Outcome, opts formatter.Options) {
	for _, o := range outcomes {
		if o.Failed() {
			fmt.Fprint(errOut, formatFailure(o.Filename, o.Err, opts))
			continue
		}
		chart, err := formatter.Chart(chartTitle(o.Result), o.Result.Distribution, opts)
		if err != nil {
			fmt.Fprint(errOut, formatter.FormatError(o.Filename, err, opts))
			continue
		}
		fmt.Fprintln(out, chart)
	}
}

func printErrors(errOut io.Writer, outcomes []runner.Outcome, opts formatter.Options) {
	for _, o := range outcomes {
		if o.Failed() {
			fmt.Fprint(errOut, formatFailure(o.Filename, o.Err, opts))
		}
	}
}

// formatFailure shows the offending line of syntax errors when the file
// can still be read.
func formatFailure(filename string, err error, opts formatter.Options) string {
	source, readErr := formatter.ReadSourceCode(filename)
	if readErr != nil {
		source = nil
	}
	return formatter.FormatErrorWithSource(filename, source, err, opts)
}

func writeJSON(out io.Writer, outcomes []runner.Outcome, opts formatter.Options) error {
	docs := make([]formatter.Document, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Failed() {
			continue
		}
		doc, err := formatter.NewDocument(o.Filename, o.Result.Output, o.Result.Distribution, opts)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	d, err := formatter.JSON(docs)
	if err != nil {
		return err
	}

	if jsonPath == "" {
		_, err = out.Write(d)
		return err
	}
	if err := os.WriteFile(jsonPath, d, 0o644); err != nil {
		return fmt.Errorf("error writing JSON output: %w", err)
	}
	fmt.Fprintf(out, "Results written to %s\n", jsonPath)
	return nil
}

func failures(outcomes []runner.Outcome) error {
	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d programs failed", failed, len(outcomes))
	}
	return nil
}
