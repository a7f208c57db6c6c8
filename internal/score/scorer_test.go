package score

import (
	"testing"

	"github.com/oralatlas/tessera/internal/model"
)

func cueOfWords(cases ...model.WordCase) model.CaptionCue {
	words := make([]model.TimedText, len(cases))
	for i, c := range cases {
		words[i] = model.TimedText{Text: "w", Case: c}
	}
	return model.CaptionCue{Lines: []model.CueText{{Speaker: model.SpeakerSubject, Words: words}}}
}

func TestScoreCaptionClean(t *testing.T) {
	cues := []model.CaptionCue{
		cueOfWords(model.CaseAligned, model.CaseAligned),
		cueOfWords(model.CaseAligned, model.CaseAligned),
	}
	validation := model.CaptionValidation{Cues: 2, Lines: 2}

	got := NewScorer().ScoreCaption(cues, validation)
	if got.Index != 100 {
		t.Errorf("Index = %d, want 100", got.Index)
	}
	if got.Grade != "high" {
		t.Errorf("Grade = %q, want high", got.Grade)
	}
	if len(got.Signals) != 3 {
		t.Errorf("got %d signals, want 3", len(got.Signals))
	}
	for _, sig := range got.Signals {
		if sig.Severity != model.SeverityInfo {
			t.Errorf("signal %s severity = %s, want info", sig.Type, sig.Severity)
		}
	}
}

func TestScoreCaptionInterpolatedTiming(t *testing.T) {
	// Half the words carry interpolated timing: 40 + 30 + 15 = 85.
	cues := []model.CaptionCue{
		cueOfWords(model.CaseAligned, model.CaseInterpolated),
		cueOfWords(model.CaseInterpolated, model.CaseAligned),
	}
	validation := model.CaptionValidation{Cues: 2, Lines: 2}

	got := NewScorer().ScoreCaption(cues, validation)
	if got.Index != 85 {
		t.Errorf("Index = %d, want 85", got.Index)
	}

	var timing *model.Signal
	for i := range got.Signals {
		if got.Signals[i].Type == model.SignalTimingFidelity {
			timing = &got.Signals[i]
		}
	}
	if timing == nil {
		t.Fatal("no timing fidelity signal")
	}
	if timing.Severity != model.SeverityWarning {
		t.Errorf("timing severity = %s, want warning", timing.Severity)
	}
}

func TestScoreCaptionViolations(t *testing.T) {
	// 2 of 4 cues violate duration limits: compliance drops to 20 and the
	// signal goes critical.
	cues := []model.CaptionCue{
		cueOfWords(model.CaseAligned), cueOfWords(model.CaseAligned),
		cueOfWords(model.CaseAligned), cueOfWords(model.CaseAligned),
	}
	validation := model.CaptionValidation{Cues: 4, Lines: 4, TooShort: 1, TooLong: 1}

	got := NewScorer().ScoreCaption(cues, validation)
	if got.Index != 80 {
		t.Errorf("Index = %d, want 80", got.Index)
	}
	for _, sig := range got.Signals {
		if sig.Type == model.SignalCueCompliance && sig.Severity != model.SeverityCritical {
			t.Errorf("compliance severity = %s, want critical", sig.Severity)
		}
	}
}

func TestScoreCaptionEmpty(t *testing.T) {
	got := NewScorer().ScoreCaption(nil, model.CaptionValidation{})
	if got.Index != 0 {
		t.Errorf("Index = %d, want 0", got.Index)
	}
	if got.Grade != "low" {
		t.Errorf("Grade = %q, want low", got.Grade)
	}
}

func TestScoreResolutionRates(t *testing.T) {
	tests := []struct {
		name      string
		report    model.ResolutionReport
		wantIndex int
		wantGrade string
	}{
		{
			name: "fully resolved",
			report: model.ResolutionReport{
				Locations:     []model.LocationEntity{{}, {}},
				Organizations: []model.OrganizationEntity{{}},
			},
			wantIndex: 100,
			wantGrade: "high",
		},
		{
			name: "half the locations unresolved",
			report: model.ResolutionReport{
				Locations:           []model.LocationEntity{{}},
				UnresolvedLocations: []model.NamedEntity{{Text: "x"}},
				Organizations:       []model.OrganizationEntity{{}},
			},
			wantIndex: 75,
			wantGrade: "medium",
		},
		{
			name: "nothing resolved",
			report: model.ResolutionReport{
				UnresolvedLocations: []model.NamedEntity{{Text: "x"}},
				UnresolvedOrgs:      []model.NamedEntity{{Text: "y"}},
			},
			wantIndex: 0,
			wantGrade: "low",
		},
		{
			name:      "no mentions at all",
			report:    model.ResolutionReport{},
			wantIndex: 100,
			wantGrade: "low", // nothing to grade on
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewScorer().ScoreResolution(&tt.report)
			if got.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", got.Index, tt.wantIndex)
			}
			if got.Grade != tt.wantGrade {
				t.Errorf("Grade = %q, want %q", got.Grade, tt.wantGrade)
			}
		})
	}
}

func TestScoreResolutionAborted(t *testing.T) {
	got := NewScorer().ScoreResolution(&model.ResolutionReport{Aborted: true})
	if got.Index != 0 || got.Grade != "low" {
		t.Errorf("aborted score = %d/%q, want 0/low", got.Index, got.Grade)
	}
	if len(got.Signals) != 1 || got.Signals[0].Type != model.SignalConflictAbort {
		t.Fatalf("signals = %v, want one conflict abort", got.Signals)
	}
	if got.Signals[0].Severity != model.SeverityCritical {
		t.Errorf("abort severity = %s, want critical", got.Signals[0].Severity)
	}
}
