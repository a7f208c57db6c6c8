package pipeline

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oralatlas/tessera/internal/model"
	"github.com/oralatlas/tessera/internal/store"
)

// Renderer writes reports to their output formats and optionally uploads
// them to the archive's blob store. Rate limiting of uploads belongs to the
// caller, which owns the batch-wide limiter.
type Renderer struct {
	blobs store.BlobStore // nil when no upload destination is configured
}

// NewRenderer creates a renderer. blobs may be nil to disable uploads.
func NewRenderer(blobs store.BlobStore) *Renderer {
	return &Renderer{blobs: blobs}
}

// WriteCaptionJSON renders a caption report as JSON
func (r *Renderer) WriteCaptionJSON(report *model.CaptionReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal caption report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// WriteResolutionJSON renders a resolution report as JSON
func (r *Renderer) WriteResolutionJSON(report *model.ResolutionReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal resolution report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// WriteSRT renders cues in SubRip format, one numbered block per cue with
// speaker-prefixed lines
func (r *Renderer) WriteSRT(report *model.CaptionReport, path string) error {
	var b strings.Builder
	for i := range report.Cues {
		cue := &report.Cues[i]
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", srtTime(cue.TimeStart()), srtTime(cue.TimeEnd()))
		for _, line := range cue.Lines {
			if line.Speaker != "" {
				fmt.Fprintf(&b, "%s: %s\n", line.Speaker, line.Text)
			} else {
				fmt.Fprintf(&b, "%s\n", line.Text)
			}
		}
		b.WriteString("\n")
	}
	return writeFile(path, []byte(b.String()))
}

// srtTime formats milliseconds as the SubRip HH:MM:SS,mmm timestamp
func srtTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// Caption interchange document, the XML shape the downstream package
// assembler consumes.
type xmlCaptionDoc struct {
	XMLName    xml.Name `xml:"captions"`
	SegmentID  string   `xml:"segmentId,attr,omitempty"`
	RunID      string   `xml:"runId,attr"`
	DurationMs int64    `xml:"durationMs,attr"`
	Cues       []xmlCue `xml:"cue"`
}

type xmlCue struct {
	StartMs int64     `xml:"startMs,attr"`
	EndMs   int64     `xml:"endMs,attr"`
	Lines   []xmlLine `xml:"line"`
}

type xmlLine struct {
	Speaker string `xml:"speaker,attr,omitempty"`
	Text    string `xml:",chardata"`
}

// WriteCaptionXML renders the caption interchange document
func (r *Renderer) WriteCaptionXML(report *model.CaptionReport, path string) error {
	doc := xmlCaptionDoc{
		SegmentID:  report.SegmentID,
		RunID:      report.RunID,
		DurationMs: report.DurationMs,
	}
	for i := range report.Cues {
		cue := &report.Cues[i]
		x := xmlCue{StartMs: cue.TimeStart(), EndMs: cue.TimeEnd()}
		for _, line := range cue.Lines {
			x.Lines = append(x.Lines, xmlLine{Speaker: line.Speaker, Text: line.Text})
		}
		doc.Cues = append(doc.Cues, x)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal caption xml: %w", err)
	}
	return writeFile(path, append([]byte(xml.Header), append(data, '\n')...))
}

// Upload pushes a rendered artifact to the blob store. A no-op when no
// store is configured.
func (r *Renderer) Upload(ctx context.Context, name string, data []byte) error {
	if r.blobs == nil {
		return nil
	}
	_, err := r.blobs.Put(ctx, name, data)
	return err
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
