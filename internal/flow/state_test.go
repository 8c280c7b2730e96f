package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ttokjang/backend/internal/domain"
)

func TestReduce(t *testing.T) {
	items := []domain.BasketItem{{ItemName: "우유", Quantity: 2}}
	rows := []domain.MatchRow{{ItemName: "우유", Candidates: []domain.MatchCandidate{{NormalizedName: "서울우유 1L", SizeDisplay: "1L"}}}}

	t.Run("submission walks through the phases", func(t *testing.T) {
		s := Initial()
		s = Reduce(s, BasketEdited{Text: "우유 2개"})
		s = Reduce(s, SubmitStarted{})
		assert.Equal(t, PhaseResolving, s.Phase)

		s = Reduce(s, CandidatesPending{Items: items, Rows: rows})
		assert.Equal(t, PhaseChoosing, s.Phase)
		assert.Equal(t, items, s.PendingItems)

		s = Reduce(s, SelectionApplied{Items: []domain.BasketItem{{ItemName: "서울우유 1L", Quantity: 2, Size: "1L"}}})
		assert.Equal(t, PhaseResolving, s.Phase)
		assert.Equal(t, "서울우유 1L,2,1L", s.BasketText)
		assert.Nil(t, s.PendingItems)
		assert.Nil(t, s.PendingRows)

		s = Reduce(s, GenerationStarted{})
		assert.Equal(t, PhaseGenerating, s.Phase)

		s = Reduce(s, PlansReceived{Response: &domain.GeneratePlanResponse{
			Plans: []domain.OfflinePlan{{PlanType: domain.PlanTypeLowest, StoreID: "s1"}},
			Meta:  domain.PlanMeta{RequestID: "r-1", DegradedProviders: []string{"route"}},
		}})
		assert.Equal(t, PhaseResults, s.Phase)
		assert.Equal(t, "r-1", s.RequestID)
		assert.Equal(t, []string{"route"}, s.DegradedProviders)

		s = Reduce(s, PlanSelected{Response: &domain.SelectPlanResponse{StoreName: "이마트"}})
		assert.Equal(t, PhaseSelected, s.Phase)
		assert.Equal(t, "이마트", s.Selected.StoreName)
	})

	t.Run("does not alias caller slices", func(t *testing.T) {
		in := append([]domain.BasketItem(nil), items...)
		s := Reduce(Initial(), CandidatesPending{Items: in, Rows: rows})
		in[0].ItemName = "changed"
		assert.Equal(t, "우유", s.PendingItems[0].ItemName)
	})

	t.Run("cancel returns to setup", func(t *testing.T) {
		s := Reduce(Initial(), CandidatesPending{Items: items, Rows: rows})
		s = Reduce(s, SelectionCancelled{})
		assert.Equal(t, PhaseSetup, s.Phase)
		assert.Nil(t, s.PendingRows)
	})

	t.Run("failure records message", func(t *testing.T) {
		s := Reduce(Initial(), SubmitStarted{})
		s = Reduce(s, SubmitFailed{Err: errors.New("status 503")})
		assert.Equal(t, PhaseSetup, s.Phase)
		assert.Equal(t, "status 503", s.LastError)

		s = Reduce(s, SubmitStarted{})
		assert.Empty(t, s.LastError)
	})

	t.Run("reset keeps generation", func(t *testing.T) {
		s := State{Generation: 7, Phase: PhaseResults, BasketText: "x", RequestID: "r"}
		s = Reduce(s, Reset{})
		assert.Equal(t, State{Generation: 7, Phase: PhaseSetup}, s)
	})
}

func TestFindPlan(t *testing.T) {
	s := State{Plans: []domain.OfflinePlan{
		{PlanType: domain.PlanTypeLowest, StoreID: "a"},
		{PlanType: domain.PlanTypeNearest, StoreID: "b"},
	}}

	plan, ok := s.FindPlan(domain.PlanTypeNearest, "")
	assert.True(t, ok)
	assert.Equal(t, "b", plan.StoreID)

	_, ok = s.FindPlan(domain.PlanTypeNearest, "a")
	assert.False(t, ok)

	_, ok = s.FindPlan(domain.PlanTypeBalanced, "")
	assert.False(t, ok)
}
