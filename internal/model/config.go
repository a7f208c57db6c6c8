package model

import (
	"runtime"
	"time"
)

// Config is the complete tessera configuration
type Config struct {
	Align       AlignConfig       `yaml:"align" mapstructure:"align"`
	Caption     CaptionConfig     `yaml:"caption" mapstructure:"caption"`
	Resolve     ResolveConfig     `yaml:"resolve" mapstructure:"resolve"`
	RefData     RefDataConfig     `yaml:"refdata" mapstructure:"refdata"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// AlignConfig controls the alignment formatter
type AlignConfig struct {
	// MaxTrailingUnaligned is the longest run of unaligned words at the end
	// of a segment that will still be interpolated. Longer runs are dropped
	// and the transcript truncated at the run's start.
	MaxTrailingUnaligned int `yaml:"max_trailing_unaligned" mapstructure:"max_trailing_unaligned"`
}

// CaptionConfig controls cue generation and validation bounds
type CaptionConfig struct {
	MinCueMs        int64 `yaml:"min_cue_ms" mapstructure:"min_cue_ms"`
	MaxCueMs        int64 `yaml:"max_cue_ms" mapstructure:"max_cue_ms"`
	TargetLineMs    int64 `yaml:"target_line_ms" mapstructure:"target_line_ms"`
	TargetLineChars int   `yaml:"target_line_chars" mapstructure:"target_line_chars"`
	MaxLineChars    int   `yaml:"max_line_chars" mapstructure:"max_line_chars"`
	MaxCueLines     int   `yaml:"max_cue_lines" mapstructure:"max_cue_lines"`
	// SpeakerRatio is the even/odd paragraph character-count ratio below
	// which the interviewer (S1) is taken to lead the alternation.
	SpeakerRatio float64 `yaml:"speaker_ratio" mapstructure:"speaker_ratio"`
}

// ResolveConfig controls the named-entity resolvers
type ResolveConfig struct {
	// AdjacencyWindow is the character gap within which a following
	// candidate is considered adjacent (split-entity joining).
	AdjacencyWindow int `yaml:"adjacency_window" mapstructure:"adjacency_window"`
}

// RefDataConfig locates the tab-separated reference tables
type RefDataConfig struct {
	PlacesPath       string `yaml:"places" mapstructure:"places"`
	CityHintsPath    string `yaml:"city_hints" mapstructure:"city_hints"`
	OrgAuthorityPath string `yaml:"org_authority" mapstructure:"org_authority"`
	OrgSynonymsPath  string `yaml:"org_synonyms" mapstructure:"org_synonyms"`
}

// CacheConfig controls the artifact cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers      int     `yaml:"workers" mapstructure:"workers"`
	UploadPerSec float64 `yaml:"upload_per_sec" mapstructure:"upload_per_sec"`
	UploadBurst  int     `yaml:"upload_burst" mapstructure:"upload_burst"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	WriteSRT bool   `yaml:"write_srt" mapstructure:"write_srt"`
	WriteXML bool   `yaml:"write_xml" mapstructure:"write_xml"`
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Align: AlignConfig{
			MaxTrailingUnaligned: 10,
		},
		Caption: CaptionConfig{
			MinCueMs:        2000,
			MaxCueMs:        8000,
			TargetLineMs:    4000,
			TargetLineChars: 68,
			MaxLineChars:    100,
			MaxCueLines:     4,
			SpeakerRatio:    1.0,
		},
		Resolve: ResolveConfig{
			AdjacencyWindow: 4,
		},
		RefData: RefDataConfig{
			PlacesPath:       "refdata/places.tsv",
			CityHintsPath:    "refdata/city_hints.tsv",
			OrgAuthorityPath: "refdata/org_authority.tsv",
			OrgSynonymsPath:  "refdata/org_synonyms.tsv",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:      runtime.NumCPU(),
			UploadPerSec: 4,
			UploadBurst:  4,
		},
		Output: OutputConfig{
			Dir:      "./tessera-out",
			WriteSRT: true,
			WriteXML: false,
		},
	}
}
