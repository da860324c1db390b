package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polydev/polyd/internal/cli/output"
	"github.com/polydev/polyd/pkg/completer"
)

var completersOutput string

var completersCmd = &cobra.Command{
	Use:   "completers",
	Short: "List the available completers",
	Long: `List the completers this build of polyd can host, together with
their accepted aliases and build flags.

Examples:
  # Human-readable table
  polyd completers

  # Machine-readable
  polyd completers --output json`,
	RunE: runCompleters,
}

func init() {
	completersCmd.Flags().StringVarP(&completersOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runCompleters(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(completersOutput)
	if err != nil {
		return err
	}

	specs := completer.Default().Specs()

	if format != output.FormatTable {
		printer := output.NewPrinter(os.Stdout, format)
		return printer.Print(specs)
	}

	table := output.NewTableData("NAME", "ALIASES", "BUILD FLAGS")
	for _, spec := range specs {
		table.AddRow(
			spec.Name,
			strings.Join(spec.Aliases, ", "),
			strings.Join(spec.BuildFlags, " "),
		)
	}
	return output.PrintTable(os.Stdout, table)
}
