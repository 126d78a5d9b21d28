package scoring

import (
	"sort"

	"github.com/pavelanni/sqi/internal/model"
)

// Ranking criteria shares. They sum to 1.0.
const (
	wrongShare      = 0.40
	importanceShare = 0.25
	readingShare    = 0.20
	diagnosticShare = 0.15
)

// Reason strings are part of the output contract.
const (
	ReasonWrongAtLeastOnce = "Wrong at least once"
	ReasonHighImportance   = "High importance (A)"
	ReasonMediumImportance = "Medium importance (B)"
	ReasonLowImportance    = "Low importance (C)"
	ReasonLowDiagnostic    = "Low diagnostic score"
	ReasonMediumDiagnostic = "Medium diagnostic score"
	ReasonFastReading      = "Fast reading/response time"
	ReasonSlowReading      = "Slow reading/response time"
)

// conceptSignals are the per-group inputs to the review weight.
type conceptSignals struct {
	wrongAtLeastOnce bool
	avgImportance    float64
	avgReading       float64
	sqi              float64
}

func (s conceptSignals) rawWeight() float64 {
	var wrong float64
	if s.wrongAtLeastOnce {
		wrong = wrongShare
	}
	w := wrong +
		importanceShare*s.avgImportance +
		readingShare*s.avgReading +
		diagnosticShare*(1-s.sqi/100)
	return round(w, 3)
}

// reasons explains the weight. Each criterion contributes at most one string.
func (s conceptSignals) reasons() []string {
	reasons := make([]string, 0, 4)

	if s.wrongAtLeastOnce {
		reasons = append(reasons, ReasonWrongAtLeastOnce)
	}

	switch {
	case s.avgImportance >= 0.9:
		reasons = append(reasons, ReasonHighImportance)
	case s.avgImportance >= 0.6:
		reasons = append(reasons, ReasonMediumImportance)
	default:
		reasons = append(reasons, ReasonLowImportance)
	}

	switch {
	case s.sqi < 50:
		reasons = append(reasons, ReasonLowDiagnostic)
	case s.sqi < 75:
		reasons = append(reasons, ReasonMediumDiagnostic)
	}

	switch {
	case s.avgReading >= 0.8:
		reasons = append(reasons, ReasonFastReading)
	case s.avgReading < 0.5:
		reasons = append(reasons, ReasonSlowReading)
	}

	return reasons
}

func signalsFor(g *conceptGroup, sqi float64) conceptSignals {
	s := conceptSignals{sqi: sqi}
	if len(g.scores) == 0 {
		return s
	}
	var importance, reading float64
	for _, q := range g.scores {
		if !q.attempt.Correct {
			s.wrongAtLeastOnce = true
		}
		importance += q.importanceWeight
		reading += q.readingProxy
	}
	n := float64(len(g.scores))
	s.avgImportance = importance / n
	s.avgReading = reading / n
	return s
}

// rankConcepts orders concept groups by need for review. groups and
// conceptScores are parallel slices in first-seen order; equal weights keep
// that order.
func rankConcepts(groups []*conceptGroup, conceptScores []model.ConceptScore) []model.RankedConcept {
	ranked := make([]model.RankedConcept, 0, len(groups))
	for i, g := range groups {
		s := signalsFor(g, conceptScores[i].SQI)
		ranked = append(ranked, model.RankedConcept{
			Topic:   g.key.topic,
			Concept: g.key.concept,
			Weight:  s.rawWeight(),
			Reasons: s.reasons(),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})

	maxWeight := 1.0
	if len(ranked) > 0 && ranked[0].Weight > 0 {
		maxWeight = ranked[0].Weight
	}
	for i := range ranked {
		ranked[i].Weight = round(ranked[i].Weight/maxWeight, 2)
	}
	return ranked
}
