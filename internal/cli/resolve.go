package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oralatlas/tessera/internal/pipeline"
	"github.com/oralatlas/tessera/internal/refdata"
)

var (
	resolveJSON    string
	resolveTimeout time.Duration
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <story.json>",
	Short: "Polish and resolve one story's entity mentions",
	Long: `Resolve turns raw NER tagger output into resolved entities:
- Polish token streams into clean mentions with transcript context
- Resolve location mentions against the places table
- Resolve organization mentions against the authority list
- Report unresolved mentions for manual review

A story whose organization mentions map one name to conflicting
authority identifiers is aborted and reported as unresolved.

Example:
  tessera resolve story-117.json
  tessera resolve story-117.json --json out/story-117.json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveJSON, "json", "", "output JSON path (default: <output.dir>/<story>.json)")
	resolveCmd.Flags().DurationVar(&resolveTimeout, "timeout", time.Minute, "overall processing timeout")
	resolveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
}

func runResolve(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	tables, err := refdata.Load(cfg.RefData)
	if err != nil {
		return fmt.Errorf("load reference tables: %w", err)
	}

	in, err := pipeline.LoadStoryInput(path)
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, tables)
	report, err := p.ResolveStory(ctx, in)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	jsonPath := resolveJSON
	if jsonPath == "" {
		jsonPath = filepath.Join(cfg.Output.Dir, report.StoryID+".json")
	}
	renderer := pipeline.NewRenderer(nil)
	if err := renderer.WriteResolutionJSON(report, jsonPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if report.Aborted {
		fmt.Fprintf(os.Stderr, "✗ %s aborted: conflicting organization identifiers\n", report.StoryID)
		return nil
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %s: %d locations, %d organizations resolved (%d unresolved)\n",
			report.StoryID, len(report.Locations), len(report.Organizations),
			len(report.UnresolvedLocations)+len(report.UnresolvedOrgs))
	}
	return nil
}
