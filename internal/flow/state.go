// Package flow holds the shopping flow's application state and the pipeline
// that drives a submission from basket text to generated plans.
package flow

import (
	"github.com/ttokjang/backend/internal/basket"
	"github.com/ttokjang/backend/internal/domain"
)

// Phase is the screen the flow is on
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseResolving  Phase = "resolving"
	PhaseChoosing   Phase = "choosing"
	PhaseGenerating Phase = "generating"
	PhaseResults    Phase = "results"
	PhaseSelected   Phase = "selected"
)

// Location is where plans are generated for
type Location struct {
	Lat             float64
	Lng             float64
	ResolvedAddress string
	FromGPS         bool
}

// State is the whole application state. It is treated as an immutable
// value: Reduce returns a new State and never mutates slices it was given.
type State struct {
	Generation        uint64
	Phase             Phase
	BasketText        string
	Location          *Location
	PendingItems      []domain.BasketItem
	PendingRows       []domain.MatchRow
	RequestID         string
	Plans             []domain.OfflinePlan
	DegradedProviders []string
	Selected          *domain.SelectPlanResponse
	LastError         string
}

// Action is anything Reduce understands
type Action interface {
	isAction()
}

type (
	// BasketEdited replaces the basket text
	BasketEdited struct{ Text string }

	// SubmitStarted begins a new submission
	SubmitStarted struct{}

	// LocationResolved stores the coordinates used for plan generation
	LocationResolved struct{ Location Location }

	// CandidatesPending pauses the submission for a user decision
	CandidatesPending struct {
		Items []domain.BasketItem
		Rows  []domain.MatchRow
	}

	// SelectionApplied writes the resolved basket back as text
	SelectionApplied struct{ Items []domain.BasketItem }

	// SelectionCancelled drops the pending decision and returns to setup
	SelectionCancelled struct{}

	// GenerationStarted marks the plan request as in flight
	GenerationStarted struct{}

	// PlansReceived stores the plan generation result
	PlansReceived struct{ Response *domain.GeneratePlanResponse }

	// SubmitFailed returns to setup with an error message
	SubmitFailed struct{ Err error }

	// PlanSelected stores the selection confirmation
	PlanSelected struct{ Response *domain.SelectPlanResponse }

	// Reset returns to a blank setup screen
	Reset struct{}
)

func (BasketEdited) isAction()       {}
func (SubmitStarted) isAction()      {}
func (LocationResolved) isAction()   {}
func (CandidatesPending) isAction()  {}
func (SelectionApplied) isAction()   {}
func (SelectionCancelled) isAction() {}
func (GenerationStarted) isAction()  {}
func (PlansReceived) isAction()      {}
func (SubmitFailed) isAction()       {}
func (PlanSelected) isAction()       {}
func (Reset) isAction()              {}

// Initial returns the starting state
func Initial() State {
	return State{Phase: PhaseSetup}
}

// Reduce applies an action to a state and returns the next state.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case BasketEdited:
		s.BasketText = a.Text

	case SubmitStarted:
		s.Phase = PhaseResolving
		s.PendingItems = nil
		s.PendingRows = nil
		s.LastError = ""

	case LocationResolved:
		loc := a.Location
		s.Location = &loc

	case CandidatesPending:
		s.Phase = PhaseChoosing
		s.PendingItems = cloneItems(a.Items)
		s.PendingRows = cloneRows(a.Rows)

	case SelectionApplied:
		s.Phase = PhaseResolving
		s.BasketText = basket.FormatBasket(a.Items)
		s.PendingItems = nil
		s.PendingRows = nil

	case SelectionCancelled:
		s.Phase = PhaseSetup
		s.PendingItems = nil
		s.PendingRows = nil

	case GenerationStarted:
		s.Phase = PhaseGenerating
		s.Plans = nil
		s.DegradedProviders = nil
		s.RequestID = ""
		s.Selected = nil

	case PlansReceived:
		s.Phase = PhaseResults
		if a.Response != nil {
			s.RequestID = a.Response.Meta.RequestID
			s.Plans = append([]domain.OfflinePlan(nil), a.Response.Plans...)
			s.DegradedProviders = append([]string(nil), a.Response.Meta.DegradedProviders...)
		}

	case SubmitFailed:
		s.Phase = PhaseSetup
		s.PendingItems = nil
		s.PendingRows = nil
		if a.Err != nil {
			s.LastError = a.Err.Error()
		}

	case PlanSelected:
		s.Phase = PhaseSelected
		s.Selected = a.Response

	case Reset:
		return State{Generation: s.Generation, Phase: PhaseSetup}
	}
	return s
}

// FindPlan returns the plan of the given type, optionally pinned to a store
func (s State) FindPlan(planType domain.PlanType, storeID string) (domain.OfflinePlan, bool) {
	for _, plan := range s.Plans {
		if plan.PlanType != planType {
			continue
		}
		if storeID != "" && plan.StoreID != storeID {
			continue
		}
		return plan, true
	}
	return domain.OfflinePlan{}, false
}

func cloneItems(items []domain.BasketItem) []domain.BasketItem {
	return append([]domain.BasketItem(nil), items...)
}

func cloneRows(rows []domain.MatchRow) []domain.MatchRow {
	out := make([]domain.MatchRow, len(rows))
	for i, row := range rows {
		out[i] = row
		out[i].Candidates = append([]domain.MatchCandidate(nil), row.Candidates...)
	}
	return out
}
