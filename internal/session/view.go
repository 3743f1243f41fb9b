package session

import (
	"errors"
	"math"

	"github.com/leapstack-labs/salesdesk/internal/api"
)

// StageView is the status of one stage in a snapshot.
type StageView struct {
	Stage  Stage
	Status Status
}

// QuickStats are the headline numbers shown once an analysis exists.
type QuickStats struct {
	Visible bool
	// Confidence is the analysis confidence in percent.
	Confidence int
	// ResponseRate is the estimated response rate in percent.
	ResponseRate int
	// Personalization is the email personalization score in percent.
	Personalization int
}

// View is an immutable snapshot of the session for rendering.
type View struct {
	Token           uint64
	CustomerID      int
	Customer        *api.Customer
	Analysis        *api.Analysis
	Recommendations *api.Recommendations
	Email           *api.Email
	Mockup          *api.Mockup
	Stages          []StageView
	Stats           QuickStats
}

// Selected reports whether a customer is selected.
func (v View) Selected() bool { return v.CustomerID != 0 }

// Status returns the status of stage.
func (v View) Status(stage Stage) Status {
	for _, sv := range v.Stages {
		if sv.Stage == stage {
			return sv.Status
		}
	}
	return Pending
}

// Busy reports whether any stage is processing.
func (v View) Busy() bool {
	for _, sv := range v.Stages {
		if sv.Status == Processing {
			return true
		}
	}
	return false
}

// FailedStage picks the stage whose notice describes a RunAll failure.
func (v View) FailedStage(err error) Stage {
	if errors.Is(err, ErrNoRecommendations) {
		return Email
	}
	for _, sv := range v.Stages {
		if sv.Status == Failed {
			return sv.Stage
		}
	}
	return Analysis
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Token:           s.token,
		CustomerID:      s.customerID,
		Customer:        s.customer,
		Analysis:        s.analysis,
		Recommendations: s.recs,
		Email:           s.email,
		Mockup:          s.mockup,
		Stages:          make([]StageView, 0, numStages),
		Stats:           quickStats(s.analysis, s.email),
	}
	for _, stage := range Stages() {
		v.Stages = append(v.Stages, StageView{Stage: stage, Status: s.stages[stage]})
	}
	return v
}

func quickStats(a *api.Analysis, e *api.Email) QuickStats {
	var qs QuickStats
	if a != nil {
		qs.Visible = true
		qs.Confidence = api.Percent(a.ConfidenceScore)
		qs.ResponseRate = int(math.Round(float64(qs.Confidence) * 0.4))
	}
	if e != nil {
		qs.Personalization = api.Percent(e.PersonalizationScore)
	}
	return qs
}
