// Package scoring computes the Study Quality Index from recorded attempts.
//
// ComputeSQI is a pure function of its input apart from the computed_at
// timestamp; it keeps no state between calls and is safe for concurrent use.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pavelanni/sqi/internal/model"
)

const (
	// EngineTag identifies this scoring implementation in output metadata.
	EngineTag = "sqi-v0.1"
	// DefaultPromptVersion is used when the caller supplies no version tag.
	DefaultPromptVersion = "v1"

	computedAtLayout = "2006-01-02 15:04:05"
)

// now is replaced in tests.
var now = time.Now

// questionScore is the per-attempt result carried into aggregation.
type questionScore struct {
	attempt          *model.Attempt
	adjusted         float64
	max              float64
	importanceWeight float64
	readingProxy     float64
}

// tally accumulates earned and possible score for one aggregation level.
type tally struct {
	earned   float64
	possible float64
}

func (t *tally) add(q questionScore) {
	t.earned += q.adjusted
	t.possible += q.max
}

func (t tally) finite() bool {
	return !math.IsNaN(t.earned) && !math.IsInf(t.earned, 0) &&
		!math.IsNaN(t.possible) && !math.IsInf(t.possible, 0)
}

// sqi normalizes the tally to 0..100. An empty tally scores 0.
func (t tally) sqi() float64 {
	if t.possible == 0 {
		return 0
	}
	return clamp(100*t.earned/t.possible, 0, 100)
}

type conceptKey struct {
	topic   string
	concept string
}

// conceptGroup collects the scores of one (topic, concept) pair.
type conceptGroup struct {
	key    conceptKey
	tally  tally
	scores []questionScore
}

// ComputeSQI scores a student's attempts and assembles the output record.
// It returns a *ValidationError when the input breaks the attempt contract.
func ComputeSQI(data model.StudentData, promptVersion string) (*model.SummaryCustomizerOutput, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	if strings.TrimSpace(promptVersion) == "" {
		promptVersion = DefaultPromptVersion
	}

	scores := make([]questionScore, 0, len(data.Attempts))
	for i := range data.Attempts {
		q, err := scoreAttempt(&data.Attempts[i])
		if err != nil {
			return nil, &ValidationError{Index: i, Field: "attempt", Reason: err.Error()}
		}
		scores = append(scores, q)
	}

	var overall tally
	topicOrder := make([]string, 0)
	topics := make(map[string]*tally)
	conceptOrder := make([]conceptKey, 0)
	concepts := make(map[conceptKey]*conceptGroup)

	for _, q := range scores {
		overall.add(q)

		t, ok := topics[q.attempt.Topic]
		if !ok {
			t = &tally{}
			topics[q.attempt.Topic] = t
			topicOrder = append(topicOrder, q.attempt.Topic)
		}
		t.add(q)

		key := conceptKey{topic: q.attempt.Topic, concept: q.attempt.Concept}
		g, ok := concepts[key]
		if !ok {
			g = &conceptGroup{key: key}
			concepts[key] = g
			conceptOrder = append(conceptOrder, key)
		}
		g.tally.add(q)
		g.scores = append(g.scores, q)
	}

	finite := overall.finite()
	for _, t := range topics {
		finite = finite && t.finite()
	}
	for _, g := range concepts {
		finite = finite && g.tally.finite()
	}
	if !finite {
		return nil, &ValidationError{Index: -1, Field: "attempts", Reason: "total score is not finite"}
	}

	topicScores := make([]model.TopicScore, 0, len(topicOrder))
	for _, name := range topicOrder {
		topicScores = append(topicScores, model.TopicScore{
			Topic: name,
			SQI:   round(topics[name].sqi(), 1),
		})
	}

	conceptScores := make([]model.ConceptScore, 0, len(conceptOrder))
	groups := make([]*conceptGroup, 0, len(conceptOrder))
	for _, key := range conceptOrder {
		g := concepts[key]
		groups = append(groups, g)
		conceptScores = append(conceptScores, model.ConceptScore{
			Topic:   key.topic,
			Concept: key.concept,
			SQI:     round(g.tally.sqi(), 2),
		})
	}

	return &model.SummaryCustomizerOutput{
		StudentID:      data.StudentID,
		OverallSQI:     round(overall.sqi(), 1),
		TopicScores:    topicScores,
		ConceptScores:  conceptScores,
		RankedConcepts: rankConcepts(groups, conceptScores),
		Metadata: model.Metadata{
			DiagnosticPromptVersion: promptVersion,
			ComputedAt:              now().UTC().Format(computedAtLayout),
			Engine:                  EngineTag,
		},
	}, nil
}

func scoreAttempt(a *model.Attempt) (questionScore, error) {
	weighted, err := weightedScore(*a, baseScore(*a))
	if err != nil {
		return questionScore{}, err
	}
	maxScore, err := weightedScore(*a, a.Marks)
	if err != nil {
		return questionScore{}, err
	}
	iw, err := ImportanceWeight(a.Importance)
	if err != nil {
		return questionScore{}, err
	}
	adjusted := adjustForBehavior(*a, weighted)
	if math.IsNaN(adjusted) || math.IsInf(adjusted, 0) || math.IsInf(maxScore, 0) {
		return questionScore{}, fmt.Errorf("score is not finite")
	}
	return questionScore{
		attempt:          a,
		adjusted:         adjusted,
		max:              maxScore,
		importanceWeight: iw,
		readingProxy:     ReadingTimeProxy(*a),
	}, nil
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// round rounds v half away from zero to the given number of decimals.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
