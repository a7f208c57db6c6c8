package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oralatlas/tessera/internal/pipeline"
)

var (
	captionJSON    string
	captionSRT     bool
	captionXML     bool
	captionTimeout time.Duration
	noCache        bool
)

// captionCmd represents the caption command
var captionCmd = &cobra.Command{
	Use:   "caption <alignment.json>",
	Short: "Format one segment's alignment and generate captions",
	Long: `Caption repairs a segment's forced-alignment output and generates
speaker-attributed caption cues:
- Repair non-monotonic, overlapping, and illegal word timings
- Interpolate timing for unaligned words
- Segment the transcript into paragraphs and attribute speakers
- Assemble cues within duration and line-length bounds

Example:
  tessera caption segment-0042.json
  tessera caption segment-0042.json --json out/segment-0042.json --srt
  tessera caption segment-0042.json --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runCaption,
}

func init() {
	rootCmd.AddCommand(captionCmd)

	captionCmd.Flags().StringVar(&captionJSON, "json", "", "output JSON path (default: <output.dir>/<segment>.json)")
	captionCmd.Flags().BoolVar(&captionSRT, "srt", false, "also write a SubRip (.srt) rendering")
	captionCmd.Flags().BoolVar(&captionXML, "xml", false, "also write the caption interchange XML")
	captionCmd.Flags().DurationVar(&captionTimeout, "timeout", time.Minute, "overall processing timeout")
	captionCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
}

func runCaption(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), captionTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if captionSRT {
		cfg.Output.WriteSRT = true
	}
	if captionXML {
		cfg.Output.WriteXML = true
	}

	in, err := pipeline.LoadAlignmentInput(path)
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, nil)
	report, err := p.CaptionSegment(ctx, in)
	if err != nil {
		return fmt.Errorf("caption failed: %w", err)
	}

	jsonPath := captionJSON
	if jsonPath == "" {
		jsonPath = filepath.Join(cfg.Output.Dir, report.SegmentID+".json")
	}

	renderer := pipeline.NewRenderer(nil)
	if err := renderer.WriteCaptionJSON(report, jsonPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if cfg.Output.WriteSRT {
		srtPath := replaceExt(jsonPath, ".srt")
		if err := renderer.WriteSRT(report, srtPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if cfg.Output.WriteXML {
		xmlPath := replaceExt(jsonPath, ".xml")
		if err := renderer.WriteCaptionXML(report, xmlPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d cues generated for %s\n", len(report.Cues), report.SegmentID)
		if issues := report.Validation; !issues.Clean() {
			fmt.Fprintf(os.Stderr, "  validation: %d short, %d long, %d over line limit\n",
				issues.TooShort, issues.TooLong, issues.OverlongLines)
		}
	}
	return nil
}

func replaceExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}
