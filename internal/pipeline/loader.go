package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oralatlas/tessera/internal/model"
)

// AlignmentInput is the JSON boundary shape for one segment's raw
// forced-alignment output
type AlignmentInput struct {
	SegmentID  string          `json:"segment_id,omitempty"`
	Transcript string          `json:"transcript"`
	DurationMs int64           `json:"duration_ms"`
	Words      []model.RawWord `json:"words"`
}

// StoryInput is the JSON boundary shape for one story's entity-resolution
// input. Either Tokens (a raw Stanford token-per-line stream) or Candidates
// (already-polished mentions) is set.
type StoryInput struct {
	StoryID    string              `json:"story_id,omitempty"`
	Transcript string              `json:"transcript"`
	Tokens     string              `json:"tokens,omitempty"`
	Candidates []model.NamedEntity `json:"candidates,omitempty"`
}

// ParseAlignmentInput parses alignment input JSON, using fallbackID when
// the document does not name its segment
func ParseAlignmentInput(data []byte, fallbackID string) (*AlignmentInput, error) {
	var in AlignmentInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse alignment input %s: %w", fallbackID, err)
	}
	if in.SegmentID == "" {
		in.SegmentID = fallbackID
	}
	if in.DurationMs <= 0 {
		return nil, fmt.Errorf("alignment input %s: missing duration", in.SegmentID)
	}
	return &in, nil
}

// ParseStoryInput parses story resolution input JSON
func ParseStoryInput(data []byte, fallbackID string) (*StoryInput, error) {
	var in StoryInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse story input %s: %w", fallbackID, err)
	}
	if in.StoryID == "" {
		in.StoryID = fallbackID
	}
	if in.Transcript == "" {
		return nil, fmt.Errorf("story input %s: missing transcript", in.StoryID)
	}
	return &in, nil
}

// LoadAlignmentInput reads and parses an alignment input file
func LoadAlignmentInput(path string) (*AlignmentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alignment input: %w", err)
	}
	return ParseAlignmentInput(data, stem(path))
}

// LoadStoryInput reads and parses a story resolution input file
func LoadStoryInput(path string) (*StoryInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story input: %w", err)
	}
	return ParseStoryInput(data, stem(path))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
