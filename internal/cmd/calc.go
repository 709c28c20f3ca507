package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/glucotrack/internal/session"
)

// readingFlags binds --fasting and --postprandial.
type readingFlags struct {
	fasting      int
	postprandial int
}

func (f *readingFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.fasting, "fasting", "f", 0, "fasting glucose in mg/dL")
	cmd.Flags().IntVarP(&f.postprandial, "postprandial", "p", 0, "postprandial glucose in mg/dL")
}

func (f *readingFlags) reading() (session.Reading, error) {
	r := session.Reading{Fasting: f.fasting, Postprandial: f.postprandial}
	return r, r.Validate()
}

func newCalcCmd() *cobra.Command {
	var flags readingFlags

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Estimate HbA1c and print advice for one reading",
		Example: `  glucotrack calc --fasting 90 --postprandial 120
  glucotrack calc -f 60 -p 300`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := flags.reading()
			if err != nil {
				return err
			}
			result, _ := session.Calculate(nil, r, time.Now())
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printResult(w io.Writer, result session.Result) {
	fmt.Fprintf(w, "Estimated HbA1c: %s\n", result.Formatted)
	fmt.Fprintln(w, result.Message)
}
