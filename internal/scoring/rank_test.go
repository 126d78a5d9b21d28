package scoring

import (
	"reflect"
	"testing"

	"github.com/pavelanni/sqi/internal/model"
)

func TestConceptSignalsReasons(t *testing.T) {
	tests := []struct {
		name    string
		signals conceptSignals
		want    []string
	}{
		{
			"strong concept",
			conceptSignals{avgImportance: 1.0, avgReading: 1.0, sqi: 100},
			[]string{ReasonHighImportance, ReasonFastReading},
		},
		{
			"medium everything",
			conceptSignals{avgImportance: 0.7, avgReading: 0.7, sqi: 60},
			[]string{ReasonMediumImportance, ReasonMediumDiagnostic},
		},
		{
			"weak concept",
			conceptSignals{wrongAtLeastOnce: true, avgImportance: 0.5, avgReading: 0.4, sqi: 10},
			[]string{ReasonWrongAtLeastOnce, ReasonLowImportance, ReasonLowDiagnostic, ReasonSlowReading},
		},
		{
			"boundaries",
			conceptSignals{avgImportance: 0.9, avgReading: 0.8, sqi: 75},
			[]string{ReasonHighImportance, ReasonFastReading},
		},
		{
			"just below boundaries",
			conceptSignals{avgImportance: 0.6, avgReading: 0.5, sqi: 50},
			[]string{ReasonMediumImportance, ReasonMediumDiagnostic},
		},
		{
			"mixed importance averages low",
			conceptSignals{avgImportance: 0.55, avgReading: 0.55, sqi: 74.99},
			[]string{ReasonLowImportance, ReasonMediumDiagnostic},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.signals.reasons()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("reasons() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConceptSignalsRawWeight(t *testing.T) {
	tests := []struct {
		name    string
		signals conceptSignals
		want    float64
	}{
		{"perfect", conceptSignals{avgImportance: 1, avgReading: 1, sqi: 100}, 0.45},
		{"worst", conceptSignals{wrongAtLeastOnce: true, avgImportance: 1, avgReading: 1, sqi: 0}, 1.0},
		{"all wrong low importance", conceptSignals{wrongAtLeastOnce: true, avgImportance: 0.5, avgReading: 0.4, sqi: 0}, 0.755},
		{"rounded to three places", conceptSignals{wrongAtLeastOnce: true, avgImportance: 0.85, avgReading: 0.7, sqi: 33.42}, 0.852},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.signals.rawWeight(); got != tt.want {
				t.Errorf("rawWeight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankConceptsOrderAndNormalization(t *testing.T) {
	data := model.StudentData{StudentID: "S1", Attempts: []model.Attempt{perfectAttempt(), wrongAttempt()}}
	out := mustCompute(t, data)

	if len(out.RankedConcepts) != 2 {
		t.Fatalf("expected 2 ranked concepts, got %d", len(out.RankedConcepts))
	}
	top, second := out.RankedConcepts[0], out.RankedConcepts[1]
	if top.Concept != "Wrong" || top.Weight != 1.0 {
		t.Errorf("top = %s at %v, want Wrong at 1.0", top.Concept, top.Weight)
	}
	// 0.45 / 0.755
	if second.Concept != "Perfect" || second.Weight != 0.6 {
		t.Errorf("second = %s at %v, want Perfect at 0.6", second.Concept, second.Weight)
	}
}

func TestRankConceptsStableTies(t *testing.T) {
	a := perfectAttempt()
	b := perfectAttempt()
	b.Topic = "Other"
	c := perfectAttempt()
	c.Topic = "Third"

	out := mustCompute(t, model.StudentData{StudentID: "S1", Attempts: []model.Attempt{a, b, c}})

	var order []string
	for _, rc := range out.RankedConcepts {
		if rc.Weight != 1.0 {
			t.Errorf("%s weight = %v, want 1.0", rc.Topic, rc.Weight)
		}
		order = append(order, rc.Topic)
	}
	if want := []string{"Test", "Other", "Third"}; !reflect.DeepEqual(order, want) {
		t.Errorf("tie order = %q, want %q", order, want)
	}
}

func TestRankConceptsReasonsNeverContradict(t *testing.T) {
	data := sampleData()
	data.Attempts = append(data.Attempts, perfectAttempt(), wrongAttempt())
	out := mustCompute(t, data)

	importanceTier := map[string]bool{
		ReasonHighImportance: true, ReasonMediumImportance: true, ReasonLowImportance: true,
	}
	for _, rc := range out.RankedConcepts {
		var tiers int
		var low, medium bool
		for _, r := range rc.Reasons {
			if importanceTier[r] {
				tiers++
			}
			low = low || r == ReasonLowDiagnostic
			medium = medium || r == ReasonMediumDiagnostic
		}
		if tiers != 1 {
			t.Errorf("%s/%s has %d importance reasons, want 1", rc.Topic, rc.Concept, tiers)
		}
		if low && medium {
			t.Errorf("%s/%s has both diagnostic reasons", rc.Topic, rc.Concept)
		}
	}
}
