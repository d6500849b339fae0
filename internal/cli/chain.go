package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/depchase/depchase/pkg/chain"
	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/source"
)

// chainCommand creates the chain command for building cross-repository
// dependency chains.
func (c *CLI) chainCommand() *cobra.Command {
	var (
		maxDepth int
		format   string
		output   string
	)
	var eo engineOptions

	cmd := &cobra.Command{
		Use:   "chain <owner/repo> <symbol>",
		Short: "Follow a symbol's implementation chain across repositories",
		Long: `Follow a symbol's implementation chain across repositories.

Starting from the given repository, the chain expands each dependency
declared in its manifest, resolves it to a source repository, and
recurses up to --depth levels. Cycles are marked and not re-expanded.

Output formats: tree (default), json, dot, svg.`,
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
			if format != "tree" && format != "json" && format != "dot" && format != "svg" {
				return fmt.Errorf("unknown format %q: expected tree, json, dot, or svg", format)
			}

			eng, _, err := c.newEngine(cmd.Context(), eo)
			if err != nil {
				return fmt.Errorf("initialize engine: %w", err)
			}

			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Chasing %s...", ref.String()))
			spinner.Start()
			result, err := eng.BuildDependencyChain(cmd.Context(), repo, ref, maxDepth)
			if err != nil {
				spinner.StopWithError("Chain build failed")
				return err
			}
			spinner.Stop()

			if result.Truncated {
				printWarning("Deadline hit: chain is partial")
			}

			switch format {
			case "json":
				return printJSON(result)
			case "dot":
				return writeOutput(output, []byte(chain.ToDOT(result)))
			case "svg":
				svg, err := chain.RenderSVG(chain.ToDOT(result))
				if err != nil {
					return fmt.Errorf("render svg: %w", err)
				}
				return writeOutput(output, svg)
			default:
				printNewline()
				printTree(result.Root, "", true)
				return nil
			}
		},
	}

	cmd.Flags().IntVar(&maxDepth, "depth", chain.DefaultMaxDepth, "maximum chain depth")
	cmd.Flags().StringVarP(&format, "format", "f", "tree", "output format: tree, json, dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (dot/svg formats; default stdout)")
	eo.register(cmd)

	return cmd
}

// printTree renders the chain as an indented tree.
func printTree(n *chain.Node, prefix string, last bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if last {
		connector = "└── "
		childPrefix = prefix + "    "
	}
	if prefix == "" {
		connector = ""
		childPrefix = ""
	}

	label := StyleHighlight.Render(n.Repo.String())
	if n.Coordinate.Group != "" {
		label = StyleValue.Render(n.Coordinate.String()) + " " + StyleDim.Render("→") + " " + label
	}
	var marks []string
	if n.Unmapped {
		label = StyleValue.Render(n.Coordinate.String())
		marks = append(marks, "unmapped")
	}
	if n.Cyclic {
		marks = append(marks, "cycle")
	}
	if n.DepthCapped {
		marks = append(marks, "depth cap")
	}
	if len(marks) > 0 {
		label += " " + StyleDim.Render("["+strings.Join(marks, ", ")+"]")
	}
	if n.Location != nil {
		label += " " + StyleDim.Render(fmt.Sprintf("%s:%d", n.Location.Path, n.Location.Line))
	}
	fmt.Println(prefix + connector + label)

	for i, child := range n.Children {
		printTree(child, childPrefix, i == len(n.Children)-1)
	}
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}
