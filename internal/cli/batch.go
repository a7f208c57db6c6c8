package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/oralatlas/tessera/internal/pipeline"
	"github.com/oralatlas/tessera/internal/refdata"
	"github.com/oralatlas/tessera/internal/store"
	"github.com/oralatlas/tessera/internal/worker"
)

var (
	batchMode    string
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	uploadDir    string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <input-dir>",
	Short: "Process a directory of story inputs in parallel",
	Long: `Batch processes every input file in a directory concurrently:
- List and load story inputs from the directory
- Process stories in parallel with configurable worker count
- Generate individual reports for each story
- Optionally mirror rendered artifacts into a blob store

Example:
  tessera batch ./alignments --mode caption
  tessera batch ./stories --mode resolve --concurrency 8
  tessera batch ./alignments --mode caption --upload /mnt/archive/captions`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchMode, "mode", "caption", "processing mode (caption or resolve)")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for reports (default: config output.dir)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&uploadDir, "upload", "", "blob store root to mirror rendered artifacts into")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputDir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	mode := worker.Mode(batchMode)
	if mode != worker.ModeCaption && mode != worker.ModeResolve {
		return fmt.Errorf("unknown mode %q (want caption or resolve)", batchMode)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Tessera Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input dir:    %s\n", inputDir)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", mode)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	var tables *refdata.Tables
	if mode == worker.ModeResolve {
		tables, err = refdata.Load(cfg.RefData)
		if err != nil {
			return fmt.Errorf("load reference tables: %w", err)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var blobs store.BlobStore
	var limiter *worker.UploadLimiter
	if uploadDir != "" {
		blobs = store.NewLocalBlobStore(uploadDir)
		limiter = worker.NewUploadLimiter(cfg.Concurrency.UploadPerSec, cfg.Concurrency.UploadBurst)
	}

	p := pipeline.New(cfg, tables)
	source := store.NewDirSource(inputDir, ".json")
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)

	results, err := processor.ProcessSource(ctx, source, mode)
	if err != nil {
		return fmt.Errorf("process directory: %w", err)
	}

	renderer := pipeline.NewRenderer(blobs)
	successCount := 0
	failureCount := 0
	abortedCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Ref.ID, result.Error)
			continue
		}

		jsonPath := filepath.Join(outputDir, result.Ref.ID+".json")
		switch {
		case result.Caption != nil:
			if err := renderer.WriteCaptionJSON(result.Caption, jsonPath); err != nil {
				failureCount++
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Ref.ID, err)
				continue
			}
			if cfg.Output.WriteSRT {
				if err := renderer.WriteSRT(result.Caption, filepath.Join(outputDir, result.Ref.ID+".srt")); err != nil {
					failureCount++
					fmt.Fprintf(os.Stderr, "✗ %s: failed to write SRT: %v\n", result.Ref.ID, err)
					continue
				}
			}
			if cfg.Output.WriteXML {
				if err := renderer.WriteCaptionXML(result.Caption, filepath.Join(outputDir, result.Ref.ID+".xml")); err != nil {
					failureCount++
					fmt.Fprintf(os.Stderr, "✗ %s: failed to write XML: %v\n", result.Ref.ID, err)
					continue
				}
			}
			fmt.Fprintf(os.Stderr, "✓ %s (%d cues)\n", result.Ref.ID, len(result.Caption.Cues))
		case result.Resolution != nil:
			if err := renderer.WriteResolutionJSON(result.Resolution, jsonPath); err != nil {
				failureCount++
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Ref.ID, err)
				continue
			}
			if result.Resolution.Aborted {
				abortedCount++
				fmt.Fprintf(os.Stderr, "✗ %s: aborted on conflicting organization identifiers\n", result.Ref.ID)
				continue
			}
			fmt.Fprintf(os.Stderr, "✓ %s (%d locations, %d organizations)\n",
				result.Ref.ID, len(result.Resolution.Locations), len(result.Resolution.Organizations))
		}
		successCount++

		if blobs != nil {
			if err := uploadArtifact(ctx, renderer, limiter, jsonPath); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: upload failed: %v\n", result.Ref.ID, err)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d stories\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Aborted:   %d\n", abortedCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// uploadArtifact throttles and pushes one rendered file into the blob store
func uploadArtifact(ctx context.Context, renderer *pipeline.Renderer, limiter *worker.UploadLimiter, path string) error {
	if err := limiter.Wait(ctx, uploadDir); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return renderer.Upload(ctx, filepath.Base(path), data)
}
