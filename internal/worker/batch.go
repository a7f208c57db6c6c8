package worker

import (
	"context"
	"fmt"

	"github.com/oralatlas/tessera/internal/model"
	"github.com/oralatlas/tessera/internal/pipeline"
	"github.com/oralatlas/tessera/internal/store"
)

// Mode selects which flow a batch runs over its inputs
type Mode string

const (
	// ModeCaption formats alignments and generates captions
	ModeCaption Mode = "caption"
	// ModeResolve polishes and resolves entity candidates
	ModeResolve Mode = "resolve"
)

// Processor defines the interface for processing one story input
type Processor interface {
	CaptionSegment(ctx context.Context, in *pipeline.AlignmentInput) (*model.CaptionReport, error)
	ResolveStory(ctx context.Context, in *pipeline.StoryInput) (*model.ResolutionReport, error)
}

// StoryJob represents one story processing job
type StoryJob struct {
	Ref       store.StoryRef
	Source    store.SegmentSource
	Processor Processor
	Mode      Mode
}

// Execute loads the input and runs it through the selected flow
func (j *StoryJob) Execute(ctx context.Context) Result {
	data, err := j.Source.Load(ctx, j.Ref)
	if err != nil {
		return &StoryResult{Ref: j.Ref, Error: err}
	}

	switch j.Mode {
	case ModeCaption:
		in, err := pipeline.ParseAlignmentInput(data, j.Ref.ID)
		if err != nil {
			return &StoryResult{Ref: j.Ref, Error: err}
		}
		report, err := j.Processor.CaptionSegment(ctx, in)
		return &StoryResult{Ref: j.Ref, Caption: report, Error: err}
	case ModeResolve:
		in, err := pipeline.ParseStoryInput(data, j.Ref.ID)
		if err != nil {
			return &StoryResult{Ref: j.Ref, Error: err}
		}
		report, err := j.Processor.ResolveStory(ctx, in)
		return &StoryResult{Ref: j.Ref, Resolution: report, Error: err}
	default:
		return &StoryResult{Ref: j.Ref, Error: fmt.Errorf("unknown batch mode %q", j.Mode)}
	}
}

// StoryResult represents the result of one story job. Exactly one of
// Caption and Resolution is set on success.
type StoryResult struct {
	Ref        store.StoryRef
	Caption    *model.CaptionReport
	Resolution *model.ResolutionReport
	Error      error
}

// Err returns the error from the story result
func (r *StoryResult) Err() error {
	return r.Error
}

// BatchProcessor processes multiple stories concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessRefs processes the given story refs concurrently
func (b *BatchProcessor) ProcessRefs(ctx context.Context, source store.SegmentSource, refs []store.StoryRef, mode Mode) []*StoryResult {
	if len(refs) == 0 {
		return []*StoryResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, ref := range refs {
		pool.Submit(&StoryJob{
			Ref:       ref,
			Source:    source,
			Processor: b.processor,
			Mode:      mode,
		})
	}

	results := pool.Wait()

	storyResults := make([]*StoryResult, len(results))
	for i, result := range results {
		storyResults[i] = result.(*StoryResult)
	}
	return storyResults
}

// ProcessSource lists a source and processes every story it holds
func (b *BatchProcessor) ProcessSource(ctx context.Context, source store.SegmentSource, mode Mode) ([]*StoryResult, error) {
	refs, err := source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return b.ProcessRefs(ctx, source, refs, mode), nil
}
