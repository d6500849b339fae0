package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/engine"
	"github.com/depchase/depchase/pkg/source"
)

// analyzeCommand creates the analyze command for resolving manifest
// dependencies to source repositories.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		dialectStr string
		repoStr    string
		asJSON     bool
	)
	var eo engineOptions

	cmd := &cobra.Command{
		Use:   "analyze [manifest]",
		Short: "Resolve manifest dependencies to source repositories",
		Long: `Resolve manifest dependencies to source repositories.

Reads a Maven pom.xml or Gradle build file, extracts the declared
dependencies, and maps each coordinate to the repository hosting its
source. Coordinates without a known mapping are reported as unmapped.

With --repo, the manifest is fetched from the repository root instead
of a local file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if repoStr == "" && len(args) == 0 {
				return fmt.Errorf("either a manifest file or --repo is required")
			}

			eng, _, err := c.newEngine(cmd.Context(), eo)
			if err != nil {
				return fmt.Errorf("initialize engine: %w", err)
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Resolving dependencies...")
			spinner.Start()

			var analysis *engine.Analysis
			switch {
			case repoStr != "":
				var repo source.Repo
				repo, err = source.ParseRepo(repoStr)
				if err == nil {
					analysis, err = eng.AnalyzeRepository(cmd.Context(), repo)
				}
			default:
				analysis, err = c.analyzeFile(cmd.Context(), eng, args[0], dialectStr)
			}
			if err != nil {
				spinner.StopWithError("Analysis failed")
				return err
			}
			spinner.Stop()

			if asJSON {
				return printJSON(analysis)
			}
			printAnalysis(analysis)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dialectStr, "dialect", "d", "", "manifest dialect: maven or gradle (inferred from filename)")
	cmd.Flags().StringVarP(&repoStr, "repo", "r", "", "analyze a repository (owner/name) instead of a local file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of formatted output")
	eo.register(cmd)

	return cmd
}

func (c *CLI) analyzeFile(ctx context.Context, eng *engine.Engine, path, dialectStr string) (*engine.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var dialect deps.Dialect
	if dialectStr != "" {
		dialect, err = deps.ParseDialect(dialectStr)
	} else {
		dialect, err = inferDialect(path)
	}
	if err != nil {
		return nil, err
	}

	return eng.AnalyzeDependencies(ctx, string(data), dialect)
}

func printAnalysis(a *engine.Analysis) {
	mapped := 0
	for _, e := range a.Entries {
		if e.Mapped() {
			mapped++
		}
	}

	printNewline()
	for _, e := range a.Entries {
		if e.Mapped() {
			printSuccess("%s %s %s %s",
				e.Coordinate.String(),
				StyleDim.Render("→"),
				StyleHighlight.Render(e.Repo.String()),
				StyleDim.Render("("+e.Source+")"))
		} else {
			printWarning("%s %s", e.Coordinate.String(), StyleDim.Render("unmapped"))
		}
	}
	for _, pe := range a.ParseErrors {
		printError("parse: %s", pe.Error())
	}
	for _, f := range a.Failures {
		printError("resolve: %s", f)
	}
	printStats(len(a.Entries), len(a.Entries)-mapped)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// inferDialect guesses the dialect from a manifest filename.
func inferDialect(path string) (deps.Dialect, error) {
	name := strings.ToLower(filepath.Base(path))
	for _, mf := range deps.ManifestFiles {
		if name == mf.Name {
			return mf.Dialect, nil
		}
	}
	return "", fmt.Errorf("cannot infer dialect from %q, pass --dialect", filepath.Base(path))
}
