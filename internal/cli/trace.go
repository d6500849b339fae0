package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/source"
)

// traceCommand creates the trace command for locating a symbol's
// implementation inside a repository.
func (c *CLI) traceCommand() *cobra.Command {
	var (
		topN        int
		asJSON      bool
		interactive bool
	)
	var eo engineOptions

	cmd := &cobra.Command{
		Use:   "trace <owner/repo> <symbol>",
		Short: "Locate where a symbol is implemented in a repository",
		Long: `Locate where a symbol is implemented in a repository.

The symbol is a dotted reference like StringUtils.isBlank or
com.example.Parser. Results are ranked: a matching method or class
declaration outranks a bare mention, and candidates in files named
after the enclosing type rank higher still.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := source.ParseRepo(args[0])
			if err != nil {
				return err
			}
			ref, err := deps.ParseSymbol(args[1])
			if err != nil {
				return err
			}

			eng, _, err := c.newEngine(cmd.Context(), eo)
			if err != nil {
				return fmt.Errorf("initialize engine: %w", err)
			}

			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Tracing %s...", ref.String()))
			spinner.Start()
			locs, err := eng.TraceSymbolN(cmd.Context(), repo, ref, topN)
			if err != nil {
				spinner.StopWithError("Trace failed")
				return err
			}
			spinner.Stop()

			if asJSON {
				return printJSON(locs)
			}

			if len(locs) == 0 {
				printInfo("No implementation of %s found in %s", ref.String(), repo.String())
				return nil
			}

			if interactive {
				selected, err := pickLocation(ref.String(), locs)
				if err != nil {
					return err
				}
				if selected == nil {
					printDetail("No selection made")
					return nil
				}
				printLocation(selected.Path, selected.Line, selected.Confidence)
				printFile(fmt.Sprintf("https://github.com/%s/blob/HEAD/%s#L%d", repo.String(), selected.Path, selected.Line))
				return nil
			}

			printNewline()
			for _, loc := range locs {
				printLocation(loc.Path, loc.Line, loc.Confidence)
				if loc.Snippet != "" {
					printSnippet(loc.Snippet)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topN, "top", "n", 0, "maximum locations to report (default 5)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of formatted output")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick a location interactively")
	eo.register(cmd)

	return cmd
}
