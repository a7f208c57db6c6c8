package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// StoryRef identifies one story/segment input
type StoryRef struct {
	ID   string
	Path string
}

// SegmentSource lists and loads story inputs. The archive's relational
// data-access layer implements this in production; DirSource reads a local
// directory for batch and watch mode.
type SegmentSource interface {
	List(ctx context.Context) ([]StoryRef, error)
	Load(ctx context.Context, ref StoryRef) ([]byte, error)
}

// DirSource implements SegmentSource over a directory of input files
type DirSource struct {
	dir  string
	exts map[string]bool
}

// NewDirSource creates a source over dir, accepting the given file
// extensions (e.g. ".json")
func NewDirSource(dir string, exts ...string) *DirSource {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[strings.ToLower(e)] = true
	}
	return &DirSource{dir: dir, exts: m}
}

// List returns the matching files in the directory, sorted by name
func (s *DirSource) List(ctx context.Context) ([]StoryRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list segment dir: %w", err)
	}

	var refs []StoryRef
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if len(s.exts) > 0 && !s.exts[ext] {
			continue
		}
		refs = append(refs, StoryRef{
			ID:   strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path: filepath.Join(s.dir, e.Name()),
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

// Load reads one story input file
func (s *DirSource) Load(ctx context.Context, ref StoryRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("load segment %s: %w", ref.ID, err)
	}
	return data, nil
}
