package scoring

import (
	"fmt"

	"github.com/pavelanni/sqi/internal/model"
)

var importanceWeights = map[model.Importance]float64{
	model.ImportanceA: 1.0,
	model.ImportanceB: 0.7,
	model.ImportanceC: 0.5,
}

var difficultyWeights = map[model.Difficulty]float64{
	model.DifficultyEasy:   0.5,
	model.DifficultyMedium: 1.0,
	model.DifficultyHard:   1.4,
}

var typeWeights = map[model.QuestionType]float64{
	model.TypePractical: 1.1,
	model.TypeTheory:    1.0,
}

// ImportanceWeight returns the multiplier for an importance tier.
func ImportanceWeight(i model.Importance) (float64, error) {
	w, ok := importanceWeights[i]
	if !ok {
		return 0, fmt.Errorf("unknown importance %q", i)
	}
	return w, nil
}

// DifficultyWeight returns the multiplier for a difficulty tier.
func DifficultyWeight(d model.Difficulty) (float64, error) {
	w, ok := difficultyWeights[d]
	if !ok {
		return 0, fmt.Errorf("unknown difficulty %q", d)
	}
	return w, nil
}

// TypeWeight returns the multiplier for a question type.
func TypeWeight(t model.QuestionType) (float64, error) {
	w, ok := typeWeights[t]
	if !ok {
		return 0, fmt.Errorf("unknown question type %q", t)
	}
	return w, nil
}

// weightedScore scales base by the attempt's importance, difficulty and
// type multipliers. It serves both the actual score (base = marks or
// -neg_marks) and the maximum possible score (base = marks).
func weightedScore(a model.Attempt, base float64) (float64, error) {
	iw, err := ImportanceWeight(a.Importance)
	if err != nil {
		return 0, err
	}
	dw, err := DifficultyWeight(a.Difficulty)
	if err != nil {
		return 0, err
	}
	tw, err := TypeWeight(a.Type)
	if err != nil {
		return 0, err
	}
	return base * iw * dw * tw, nil
}

// baseScore is marks for a correct answer and the negative penalty otherwise.
func baseScore(a model.Attempt) float64 {
	if a.Correct {
		return a.Marks
	}
	return -a.NegMarks
}

// adjustForBehavior applies the timing and review adjustments in order.
// The revisit bonus is additive and may lift the score above the maximum.
func adjustForBehavior(a model.Attempt, weighted float64) float64 {
	adjusted := weighted

	// Slow solve
	if a.TimeSpentSec > a.ExpectedTimeSec*1.5 {
		adjusted *= 0.9
	}
	// Very slow, stacks with the above
	if a.TimeSpentSec > a.ExpectedTimeSec*2 {
		adjusted *= 0.8
	}
	if a.MarkedReview && !a.Correct {
		adjusted *= 0.9
	}
	if a.Revisits > 0 && a.Correct {
		adjusted += 0.2 * a.Marks
	}

	return adjusted
}

// ReadingTimeProxy buckets the time-spent ratio: fast=1.0, normal=0.7, slow=0.4.
func ReadingTimeProxy(a model.Attempt) float64 {
	ratio := a.TimeSpentSec / a.ExpectedTimeSec
	if ratio <= 1 {
		return 1.0
	}
	if ratio <= 1.5 {
		return 0.7
	}
	return 0.4
}
