package session

import (
	"fmt"
	"strings"
)

// Stage is one step of the outreach pipeline.
type Stage int

const (
	Profile Stage = iota
	Analysis
	Recommendations
	Email
	Mockups

	numStages
)

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	return []Stage{Profile, Analysis, Recommendations, Email, Mockups}
}

func (s Stage) String() string {
	switch s {
	case Profile:
		return "profile"
	case Analysis:
		return "analysis"
	case Recommendations:
		return "recommendations"
	case Email:
		return "email"
	case Mockups:
		return "mockups"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Label is the human readable stage name.
func (s Stage) Label() string {
	switch s {
	case Profile:
		return "Customer Profile"
	case Analysis:
		return "AI Analysis"
	case Recommendations:
		return "Product Matching"
	case Email:
		return "Email Generation"
	case Mockups:
		return "Mockups"
	default:
		return s.String()
	}
}

// FailureMessage is the notice shown when the stage's request fails.
func (s Stage) FailureMessage() string {
	switch s {
	case Profile:
		return "Failed to load customer data"
	case Analysis:
		return "Analysis failed"
	case Recommendations:
		return "Failed to get recommendations"
	case Email:
		return "Failed to generate email"
	case Mockups:
		return "Failed to generate mockups"
	default:
		return "Request failed"
	}
}

// ParseStage parses a stage name as produced by String.
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages() {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// Status is the closed set of per-stage states.
type Status int

const (
	Pending Status = iota
	Processing
	Complete
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Processing:
		return "processing"
	case Complete:
		return "complete"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Icon is the glyph shown next to a stage.
func (s Status) Icon() string {
	switch s {
	case Processing:
		return "⏳"
	case Complete:
		return "✅"
	case Failed:
		return "❌"
	default:
		return "○"
	}
}

// CanTransition reports whether moving from s to next is legal. Any state
// may be reset to Pending.
func (s Status) CanTransition(next Status) bool {
	switch next {
	case Pending:
		return true
	case Processing:
		return s == Pending
	case Complete, Failed:
		return s == Processing
	default:
		return false
	}
}
