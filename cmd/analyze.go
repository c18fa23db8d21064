package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/repoflow/repoflow/internal/analyzer"
	"github.com/repoflow/repoflow/internal/describe"
	"github.com/repoflow/repoflow/internal/diagrams"
	"github.com/repoflow/repoflow/internal/githost"
	"github.com/repoflow/repoflow/internal/progress"
	"github.com/repoflow/repoflow/internal/report"
	"github.com/repoflow/repoflow/internal/walker"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [repository-url]",
	Short: "Analyze the navigation flow of a repository",
	Long: `Scans a hosted repository (or a local checkout with --local), classifies
its screens and builds the navigation flow graph. The result is written
to stdout as a Markdown report unless another format is selected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("local", "", "analyze a local directory instead of a hosted repository")
	analyzeCmd.Flags().Bool("json", false, "output the raw flow graph as JSON")
	analyzeCmd.Flags().Bool("mermaid", false, "output a Mermaid flowchart")
	analyzeCmd.Flags().Bool("markdown", false, "output a Markdown report (default)")
	analyzeCmd.Flags().Bool("html", false, "output a standalone HTML report")
	analyzeCmd.Flags().StringP("out", "o", "", "write output to a file instead of stdout")
	analyzeCmd.Flags().Bool("describe", false, "enrich the result with LLM-written descriptions")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	localDir, _ := cmd.Flags().GetString("local")
	outPath, _ := cmd.Flags().GetString("out")
	withDescribe, _ := cmd.Flags().GetBool("describe")

	format, err := pickFormat(cmd)
	if err != nil {
		return err
	}

	if localDir == "" && len(args) == 0 {
		return fmt.Errorf("give a repository URL or --local <dir>")
	}
	if localDir != "" && len(args) > 0 {
		return fmt.Errorf("give either a repository URL or --local, not both")
	}

	reporter := progress.NewReporter()

	var (
		pipe *analyzer.Pipeline
		res  *analyzer.AnalysisResult
	)
	if localDir != "" {
		src, err := walker.NewLocal(localDir)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(localDir)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", localDir, err)
		}
		pipe = analyzer.NewPipeline(src, analyzer.Options{Reporter: reporter})
		res, err = pipe.AnalyzeRef(ctx, githost.RepositoryReference{
			URL:  localDir,
			Name: filepath.Base(abs),
		})
		if err != nil {
			return err
		}
	} else {
		pipe = analyzer.NewPipeline(newHostClient(), analyzer.Options{Reporter: reporter})
		res, err = pipe.Analyze(ctx, args[0])
		if err != nil {
			return err
		}
	}

	intro := report.ExtractIntro(pipe.Readme())

	if withDescribe {
		narrative, err := describeResult(ctx, res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: describe skipped: %v\n", err)
		} else if narrative.Overview != "" {
			intro = narrative.Overview
		}
	}

	output, err := renderResult(res, format, intro)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(output), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Fprintf(os.Stderr, "Output written to %s\n", outPath)
		return nil
	}

	fmt.Print(output)
	return nil
}

// pickFormat reads the mutually exclusive format flags, defaulting to
// markdown when none is set.
func pickFormat(cmd *cobra.Command) (string, error) {
	var picked []string
	for _, name := range []string{"json", "mermaid", "markdown", "html"} {
		if on, _ := cmd.Flags().GetBool(name); on {
			picked = append(picked, name)
		}
	}

	switch len(picked) {
	case 0:
		return "markdown", nil
	case 1:
		return picked[0], nil
	default:
		return "", fmt.Errorf("choose one output format, got --%s and --%s", picked[0], picked[1])
	}
}

// describeResult loads the config, builds the LLM provider and fills in
// node descriptions. Any failure leaves the result as analyzed.
func describeResult(ctx context.Context, res *analyzer.AnalysisResult) (*describe.Narrative, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	provider, err := newLLMProvider(cfg)
	if err != nil {
		return nil, err
	}
	return describe.New(provider, cfg.Model).Describe(ctx, res)
}

func renderResult(res *analyzer.AnalysisResult, format, intro string) (string, error) {
	switch format {
	case "json":
		payload, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding result: %w", err)
		}
		return string(payload) + "\n", nil
	case "mermaid":
		return diagrams.Flowchart(res), nil
	case "html":
		return report.HTML(report.Markdown(res, intro))
	default:
		return report.Markdown(res, intro), nil
	}
}
