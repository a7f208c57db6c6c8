// Package score grades finished reports on a 0-100 advisory index so the
// archive's review queue can surface the segments and stories most in need
// of manual attention. The index never gates output.
package score

import (
	"fmt"
	"math"

	"github.com/oralatlas/tessera/internal/model"
)

// Scorer calculates quality indexes and diagnostic signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ScoreCaption grades a caption run from its cues and validation counts
func (s *Scorer) ScoreCaption(cues []model.CaptionCue, validation model.CaptionValidation) model.QualityScore {
	var signals []model.Signal

	// 1. Cue compliance (0-40 points)
	complianceScore, complianceSignal := s.scoreCompliance(validation)
	signals = append(signals, complianceSignal)

	// 2. Line discipline (0-30 points)
	lineScore, lineSignal := s.scoreLines(validation)
	signals = append(signals, lineSignal)

	// 3. Timing fidelity (0-30 points)
	timingScore, timingSignal := s.scoreTiming(cues)
	signals = append(signals, timingSignal)

	total := complianceScore + lineScore + timingScore

	return model.QualityScore{
		Index:   total,
		Grade:   s.determineGrade(total, len(cues)),
		Signals: signals,
	}
}

// ScoreResolution grades a resolution run from its resolved and unresolved
// entity counts. An aborted story scores zero.
func (s *Scorer) ScoreResolution(report *model.ResolutionReport) model.QualityScore {
	if report.Aborted {
		return model.QualityScore{
			Index: 0,
			Grade: "low",
			Signals: []model.Signal{{
				Type:        model.SignalConflictAbort,
				Severity:    model.SeverityCritical,
				Description: "Story aborted on conflicting organization identifiers",
			}},
		}
	}

	var signals []model.Signal

	// 1. Location resolution rate (0-50 points)
	locScore, locSignal := s.scoreRate(model.SignalLocationRate, "location",
		len(report.Locations), len(report.UnresolvedLocations), 50)
	signals = append(signals, locSignal)

	// 2. Organization resolution rate (0-50 points)
	orgScore, orgSignal := s.scoreRate(model.SignalOrgRate, "organization",
		len(report.Organizations), len(report.UnresolvedOrgs), 50)
	signals = append(signals, orgSignal)

	total := locScore + orgScore
	mentions := len(report.Locations) + len(report.UnresolvedLocations) +
		len(report.Organizations) + len(report.UnresolvedOrgs)

	return model.QualityScore{
		Index:   total,
		Grade:   s.determineGrade(total, mentions),
		Signals: signals,
	}
}

// scoreCompliance scores cue duration and structure compliance (0-40 points)
func (s *Scorer) scoreCompliance(v model.CaptionValidation) (int, model.Signal) {
	if v.Cues == 0 {
		return 0, model.Signal{
			Type:        model.SignalCueCompliance,
			Severity:    model.SeverityCritical,
			Description: "No cues generated",
			Data:        map[string]any{"cues": 0},
		}
	}

	violations := v.TooShort + v.TooLong + v.TooManyLines + v.EmptyText
	ratio := float64(violations) / float64(v.Cues)
	score := int(math.Max((1-ratio)*40, 0))

	severity := model.SeverityInfo
	if ratio >= 0.5 {
		severity = model.SeverityCritical
	} else if ratio > 0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalCueCompliance,
		Severity:    severity,
		Description: fmt.Sprintf("Cue violations: %d/%d", violations, v.Cues),
		Data: map[string]any{
			"cues":       v.Cues,
			"violations": violations,
			"score":      score,
			"formula":    "max((1 - violations/cues) * 40, 0)",
		},
	}
}

// scoreLines scores line-length discipline (0-30 points)
func (s *Scorer) scoreLines(v model.CaptionValidation) (int, model.Signal) {
	if v.Lines == 0 {
		return 0, model.Signal{
			Type:        model.SignalLineDiscipline,
			Severity:    model.SeverityWarning,
			Description: "No lines generated",
			Data:        map[string]any{"lines": 0},
		}
	}

	ratio := float64(v.OverlongLines) / float64(v.Lines)
	score := int(math.Max((1-ratio)*30, 0))

	severity := model.SeverityInfo
	if ratio >= 0.2 {
		severity = model.SeverityCritical
	} else if ratio > 0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalLineDiscipline,
		Severity:    severity,
		Description: fmt.Sprintf("Overlong lines: %d/%d", v.OverlongLines, v.Lines),
		Data: map[string]any{
			"lines":    v.Lines,
			"overlong": v.OverlongLines,
			"score":    score,
			"formula":  "max((1 - overlong/lines) * 30, 0)",
		},
	}
}

// scoreTiming scores timing fidelity as the fraction of cue words carrying
// measured rather than interpolated timing (0-30 points)
func (s *Scorer) scoreTiming(cues []model.CaptionCue) (int, model.Signal) {
	measured := 0
	total := 0
	for i := range cues {
		for _, line := range cues[i].Lines {
			for _, w := range line.Words {
				total++
				if w.Case == model.CaseAligned {
					measured++
				}
			}
		}
	}

	if total == 0 {
		return 0, model.Signal{
			Type:        model.SignalTimingFidelity,
			Severity:    model.SeverityWarning,
			Description: "No timed words in cues",
			Data:        map[string]any{"words": 0},
		}
	}

	ratio := float64(measured) / float64(total)
	score := int(ratio * 30)

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalTimingFidelity,
		Severity:    severity,
		Description: fmt.Sprintf("Measured timing: %d/%d words (%.0f%%)", measured, total, ratio*100),
		Data: map[string]any{
			"measured": measured,
			"total":    total,
			"score":    score,
			"formula":  "(measured_words / total_words) * 30",
		},
	}
}

// scoreRate scores one entity family's resolution rate
func (s *Scorer) scoreRate(signalType, family string, resolved, unresolved, points int) (int, model.Signal) {
	total := resolved + unresolved
	if total == 0 {
		// Nothing to resolve is not a defect
		return points, model.Signal{
			Type:        signalType,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("No %s mentions", family),
			Data:        map[string]any{"mentions": 0, "score": points},
		}
	}

	ratio := float64(resolved) / float64(total)
	score := int(ratio * float64(points))

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        signalType,
		Severity:    severity,
		Description: fmt.Sprintf("Resolved %d/%d %s mentions", resolved, total, family),
		Data: map[string]any{
			"resolved":   resolved,
			"unresolved": unresolved,
			"ratio":      ratio,
			"score":      score,
			"formula":    fmt.Sprintf("(resolved / total) * %d", points),
		},
	}
}

// determineGrade maps an index to a coarse review grade
func (s *Scorer) determineGrade(score, samples int) string {
	if samples == 0 {
		return "low"
	}
	if score >= 80 {
		return "high"
	} else if score >= 60 {
		return "medium"
	}
	return "low"
}
