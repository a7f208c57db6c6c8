package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oralatlas/tessera/internal/pipeline"
	"github.com/oralatlas/tessera/internal/refdata"
	"github.com/oralatlas/tessera/internal/watch"
	"github.com/oralatlas/tessera/internal/worker"
)

var (
	watchMode        string
	watchConcurrency int
	watchOutputDir   string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <drop-dir>",
	Short: "Watch a drop folder and process inputs as they arrive",
	Long: `Watch monitors a directory and processes each new input file once,
with a bounded number of stories in flight. Runs until interrupted.

Example:
  tessera watch ./incoming --mode caption
  tessera watch ./incoming --mode resolve --max-concurrent 4`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchMode, "mode", "caption", "processing mode (caption or resolve)")
	watchCmd.Flags().IntVar(&watchConcurrency, "max-concurrent", 2, "max stories in flight")
	watchCmd.Flags().StringVar(&watchOutputDir, "output-dir", "", "output directory for reports (default: config output.dir)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dropDir := args[0]

	mode := worker.Mode(watchMode)
	if mode != worker.ModeCaption && mode != worker.ModeResolve {
		return fmt.Errorf("unknown mode %q (want caption or resolve)", watchMode)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchOutputDir == "" {
		watchOutputDir = cfg.Output.Dir
	}

	var tables *refdata.Tables
	if mode == worker.ModeResolve {
		tables, err = refdata.Load(cfg.RefData)
		if err != nil {
			return fmt.Errorf("load reference tables: %w", err)
		}
	}

	p := pipeline.New(cfg, tables)
	renderer := pipeline.NewRenderer(nil)

	handler := func(ctx context.Context, path string) error {
		id := filepath.Base(path)
		id = id[:len(id)-len(filepath.Ext(id))]
		jsonPath := filepath.Join(watchOutputDir, id+".json")

		switch mode {
		case worker.ModeCaption:
			in, err := pipeline.LoadAlignmentInput(path)
			if err != nil {
				return err
			}
			report, err := p.CaptionSegment(ctx, in)
			if err != nil {
				return err
			}
			if err := renderer.WriteCaptionJSON(report, jsonPath); err != nil {
				return err
			}
			if cfg.Output.WriteSRT {
				return renderer.WriteSRT(report, filepath.Join(watchOutputDir, id+".srt"))
			}
			return nil
		default:
			in, err := pipeline.LoadStoryInput(path)
			if err != nil {
				return err
			}
			report, err := p.ResolveStory(ctx, in)
			if err != nil {
				return err
			}
			return renderer.WriteResolutionJSON(report, jsonPath)
		}
	}

	w, err := watch.New(dropDir, handler, watchConcurrency, ".json")
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
