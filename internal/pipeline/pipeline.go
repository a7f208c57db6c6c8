// Package pipeline orchestrates the two processing flows: alignment
// formatting into captions, and entity polishing into resolved locations
// and organizations. The flows share no runtime state; each call works on
// one segment or story and returns a complete report.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oralatlas/tessera/internal/align"
	"github.com/oralatlas/tessera/internal/cache"
	"github.com/oralatlas/tessera/internal/caption"
	"github.com/oralatlas/tessera/internal/model"
	"github.com/oralatlas/tessera/internal/polish"
	"github.com/oralatlas/tessera/internal/refdata"
	"github.com/oralatlas/tessera/internal/resolve"
	"github.com/oralatlas/tessera/internal/score"
)

// Pipeline bundles the processing components for one run
type Pipeline struct {
	formatter *align.Formatter
	captioner *caption.Captioner
	polisher  *polish.Polisher
	locations *resolve.LocationResolver
	orgs      *resolve.OrganizationResolver
	scorer    *score.Scorer
	artifacts cache.Cache // nil when caching is disabled
	cfg       *model.Config
}

// New creates a pipeline. Tables may be nil when only captioning is needed;
// resolution calls then fail.
func New(cfg *model.Config, tables *refdata.Tables) *Pipeline {
	p := &Pipeline{
		formatter: align.NewFormatter(cfg.Align),
		captioner: caption.NewCaptioner(cfg.Caption),
		polisher:  polish.NewPolisher(true),
		scorer:    score.NewScorer(),
		cfg:       cfg,
	}
	if tables != nil {
		p.locations = resolve.NewLocationResolver(tables, cfg.Resolve)
		p.orgs = resolve.NewOrganizationResolver(tables)
	}
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			if base, err := os.UserCacheDir(); err == nil {
				dir = filepath.Join(base, "tessera")
			}
		}
		if dir != "" {
			p.artifacts = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		}
	}
	return p
}

// CaptionSegment formats one segment's alignment and generates captions.
// Results are cached by a checksum of the inputs.
func (p *Pipeline) CaptionSegment(ctx context.Context, in *AlignmentInput) (*model.CaptionReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := ""
	if p.artifacts != nil {
		words, _ := json.Marshal(in.Words)
		key = cache.Key([]byte(in.Transcript), words, []byte(fmt.Sprint(in.DurationMs)))
		if data, hit := p.artifacts.Get(key); hit {
			var report model.CaptionReport
			if err := json.Unmarshal(data, &report); err == nil {
				slog.Debug("caption cache hit", "segment", in.SegmentID)
				return &report, nil
			}
		}
	}

	result, err := p.formatter.Format(in.Transcript, in.Words, in.DurationMs)
	if err != nil {
		return nil, fmt.Errorf("format segment %s: %w", in.SegmentID, err)
	}
	cues, validation := p.captioner.Caption(result)

	report := &model.CaptionReport{
		RunID:       uuid.NewString(),
		SegmentID:   in.SegmentID,
		GeneratedAt: time.Now().UTC(),
		DurationMs:  in.DurationMs,
		Transcript:  result.Transcript,
		Cues:        cues,
		Validation:  validation,
	}
	report.Quality = p.scorer.ScoreCaption(cues, validation)
	p.cacheStore(key, report)
	return report, nil
}

// ResolveStory polishes (if needed) and resolves one story's entity
// candidates. An organization ID conflict aborts the story: the report comes
// back with Aborted set and no resolved organizations, which callers treat
// as "story not resolved this run".
func (p *Pipeline) ResolveStory(ctx context.Context, in *StoryInput) (*model.ResolutionReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.locations == nil || p.orgs == nil {
		return nil, errors.New("resolution requires reference tables")
	}

	key := ""
	if p.artifacts != nil {
		cands, _ := json.Marshal(in.Candidates)
		key = cache.Key([]byte(in.Transcript), []byte(in.Tokens), cands)
		if data, hit := p.artifacts.Get(key); hit {
			var report model.ResolutionReport
			if err := json.Unmarshal(data, &report); err == nil {
				slog.Debug("resolution cache hit", "story", in.StoryID)
				return &report, nil
			}
		}
	}

	candidates := in.Candidates
	if len(candidates) == 0 && in.Tokens != "" {
		tokens, err := polish.ParseTokens(strings.NewReader(in.Tokens))
		if err != nil {
			return nil, fmt.Errorf("story %s: %w", in.StoryID, err)
		}
		candidates, err = p.polisher.Polish(tokens, in.Transcript)
		if err != nil {
			return nil, fmt.Errorf("polish story %s: %w", in.StoryID, err)
		}
	}

	var locCands, orgCands []model.NamedEntity
	for _, c := range candidates {
		switch c.Type {
		case model.EntityLocation:
			locCands = append(locCands, c)
		case model.EntityOrganization:
			orgCands = append(orgCands, c)
		}
	}

	report := &model.ResolutionReport{
		RunID:       uuid.NewString(),
		StoryID:     in.StoryID,
		GeneratedAt: time.Now().UTC(),
	}
	report.Locations, report.UnresolvedLocations = p.locations.Resolve(locCands)

	orgs, unresolvedOrgs, err := p.orgs.Resolve(orgCands)
	if err != nil {
		if !errors.Is(err, model.ErrResolutionConflict) {
			return nil, fmt.Errorf("story %s: %w", in.StoryID, err)
		}
		report.Aborted = true
	}
	report.Organizations = orgs
	report.UnresolvedOrgs = unresolvedOrgs
	report.Quality = p.scorer.ScoreResolution(report)

	if !report.Aborted {
		p.cacheStore(key, report)
	}
	return report, nil
}

func (p *Pipeline) cacheStore(key string, report any) {
	if p.artifacts == nil || key == "" {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := p.artifacts.Set(key, data, 0); err != nil {
		slog.Warn("artifact cache write failed", "error", err)
	}
}
