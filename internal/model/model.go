package model

import "time"

// Importance is the strategic value tier of a question.
type Importance string

const (
	ImportanceA Importance = "A"
	ImportanceB Importance = "B"
	ImportanceC Importance = "C"
)

// Difficulty is the difficulty tier of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "E"
	DifficultyMedium Difficulty = "M"
	DifficultyHard   Difficulty = "H"
)

// QuestionType is the style of a question.
type QuestionType string

const (
	TypePractical QuestionType = "Practical"
	TypeTheory    QuestionType = "Theory"
)

// Attempt is one answered question as recorded by the test platform.
type Attempt struct {
	Topic           string       `json:"topic"`
	Concept         string       `json:"concept"`
	Importance      Importance   `json:"importance" validate:"oneof=A B C"`
	Difficulty      Difficulty   `json:"difficulty" validate:"oneof=E M H"`
	Type            QuestionType `json:"type" validate:"oneof=Practical Theory"`
	CaseBased       bool         `json:"case_based"`
	Correct         bool         `json:"correct"`
	Marks           float64      `json:"marks" validate:"gt=0"`
	NegMarks        float64      `json:"neg_marks" validate:"gte=0"`
	ExpectedTimeSec float64      `json:"expected_time_sec" validate:"gt=0"`
	TimeSpentSec    float64      `json:"time_spent_sec" validate:"gte=0"`
	MarkedReview    bool         `json:"marked_review"`
	Revisits        int          `json:"revisits" validate:"gte=0"`
}

// StudentData is the scoring input for one learner.
type StudentData struct {
	StudentID string    `json:"student_id"`
	Attempts  []Attempt `json:"attempts"`
}

// TopicScore is the normalized SQI of one topic.
type TopicScore struct {
	Topic string  `json:"topic"`
	SQI   float64 `json:"sqi"`
}

// ConceptScore is the normalized SQI of one (topic, concept) pair.
type ConceptScore struct {
	Topic   string  `json:"topic"`
	Concept string  `json:"concept"`
	SQI     float64 `json:"sqi"`
}

// RankedConcept is a concept flagged for review with its relative weight.
type RankedConcept struct {
	Topic   string   `json:"topic"`
	Concept string   `json:"concept"`
	Weight  float64  `json:"weight"`
	Reasons []string `json:"reasons"`
}

// Metadata describes how an output record was produced.
type Metadata struct {
	DiagnosticPromptVersion string `json:"diagnostic_prompt_version"`
	ComputedAt              string `json:"computed_at"`
	Engine                  string `json:"engine"`
}

// SummaryCustomizerOutput is the record handed to the summarization agent.
// Field names and nesting are consumed verbatim downstream.
type SummaryCustomizerOutput struct {
	StudentID      string          `json:"student_id"`
	OverallSQI     float64         `json:"overall_sqi"`
	TopicScores    []TopicScore    `json:"topic_scores"`
	ConceptScores  []ConceptScore  `json:"concept_scores"`
	RankedConcepts []RankedConcept `json:"ranked_concepts_for_summary"`
	Metadata       Metadata        `json:"metadata"`
}

// Prompt is one saved revision of the diagnostic agent prompt.
type Prompt struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Content   string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// ServerConfig holds runtime parameters for the HTTP server set via CLI flags.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
	Lang        string
	MaxUpload   int64 // bytes accepted by the upload endpoint
}
