package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/ttokjang/backend/internal/basket"
	"github.com/ttokjang/backend/internal/domain"
	"github.com/ttokjang/backend/internal/resolution"
	"go.uber.org/zap"
)

const (
	defaultMaxResolutionRounds = 3
	maxTravelMinutesLimit      = 120
)

// API is the set of offline endpoints the pipeline calls
type API interface {
	resolution.CandidateMatcher
	Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error)
	GeneratePlans(ctx context.Context, req domain.GeneratePlanRequest) (*domain.GeneratePlanResponse, error)
	SelectPlan(ctx context.Context, req domain.SelectPlanRequest) (*domain.SelectPlanResponse, error)
}

// Chooser blocks until the user picks candidates for every unresolved row.
// Returning ErrSelectionCancelled aborts the submission.
type Chooser interface {
	Choose(ctx context.Context, unresolved []domain.MatchRow) (domain.Selection, error)
}

// ChooserFunc adapts a function to Chooser
type ChooserFunc func(ctx context.Context, unresolved []domain.MatchRow) (domain.Selection, error)

// Choose calls f
func (f ChooserFunc) Choose(ctx context.Context, unresolved []domain.MatchRow) (domain.Selection, error) {
	return f(ctx, unresolved)
}

// Request is one "generate plans" submission
type Request struct {
	BasketText string
	// Coordinates skip geocoding when set
	Coordinates      *Location
	Address          string
	TravelMode       domain.TravelMode
	MaxTravelMinutes int
}

// Result is what a successful submission produced
type Result struct {
	Items    []domain.BasketItem
	Location Location
	Plans    *domain.GeneratePlanResponse
	Rounds   int
}

// Config tunes the pipeline
type Config struct {
	MaxResolutionRounds int
}

// Pipeline runs geocode -> match -> choose -> generate for one submission
type Pipeline struct {
	api       API
	resolver  *resolution.Resolver
	chooser   Chooser
	store     *Store
	log       *zap.Logger
	maxRounds int
}

// NewPipeline wires a pipeline around store
func NewPipeline(api API, chooser Chooser, store *Store, log *zap.Logger, cfg Config) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	maxRounds := cfg.MaxResolutionRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxResolutionRounds
	}
	return &Pipeline{
		api:       api,
		resolver:  resolution.NewResolver(api, log),
		chooser:   chooser,
		store:     store,
		log:       log,
		maxRounds: maxRounds,
	}
}

// Store returns the state store the pipeline writes to
func (p *Pipeline) Store() *Store {
	return p.store
}

// Run executes a submission. Starting a new Run cancels and invalidates any
// previous one still in flight; the superseded Run returns ErrStaleResponse.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	ctx, tok := p.store.Begin(ctx)
	defer p.store.Finish(tok)

	if _, err := p.store.Commit(tok, BasketEdited{Text: req.BasketText}); err != nil {
		return nil, err
	}
	if _, err := p.store.Commit(tok, SubmitStarted{}); err != nil {
		return nil, err
	}

	if err := validateRequest(req); err != nil {
		return nil, p.fail(tok, err)
	}

	loc, err := p.locate(ctx, req)
	if err != nil {
		return nil, p.fail(tok, err)
	}
	if _, err := p.store.Commit(tok, LocationResolved{Location: loc}); err != nil {
		return nil, err
	}

	items, rounds, err := p.resolve(ctx, tok, req.BasketText)
	if err != nil {
		if errors.Is(err, ErrSelectionCancelled) {
			if _, stale := p.store.Commit(tok, SelectionCancelled{}); stale != nil {
				return nil, stale
			}
			return nil, err
		}
		return nil, p.fail(tok, err)
	}

	if _, err := p.store.Commit(tok, GenerationStarted{}); err != nil {
		return nil, err
	}

	resp, err := p.api.GeneratePlans(ctx, domain.GeneratePlanRequest{
		UserContext: domain.UserContext{
			Lat:              loc.Lat,
			Lng:              loc.Lng,
			TravelMode:       req.TravelMode,
			MaxTravelMinutes: req.MaxTravelMinutes,
		},
		BasketItems: items,
	})
	if err != nil {
		return nil, p.fail(tok, err)
	}

	if _, err := p.store.Commit(tok, PlansReceived{Response: resp}); err != nil {
		return nil, err
	}

	p.log.Info("plans generated",
		zap.String("request_id", resp.Meta.RequestID),
		zap.Int("plans", len(resp.Plans)),
		zap.Strings("degraded_providers", resp.Meta.DegradedProviders),
		zap.Int("resolution_rounds", rounds),
	)

	return &Result{Items: items, Location: loc, Plans: resp, Rounds: rounds}, nil
}

// Select records the user's choice among the generated plans
func (p *Pipeline) Select(ctx context.Context, planType domain.PlanType, storeID string) (*domain.SelectPlanResponse, error) {
	state := p.store.State()
	if state.RequestID == "" {
		return nil, ErrNoPlans
	}

	plan, ok := state.FindPlan(planType, storeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planType)
	}

	resp, err := p.api.SelectPlan(ctx, domain.SelectPlanRequest{
		RequestID:        state.RequestID,
		SelectedPlanType: plan.PlanType,
		StoreID:          plan.StoreID,
	})
	if err != nil {
		return nil, err
	}

	p.store.Dispatch(PlanSelected{Response: resp})
	return resp, nil
}

// resolve loops match -> choose -> apply until the basket resolves cleanly.
// Substituted names are re-checked before the basket is submitted.
func (p *Pipeline) resolve(ctx context.Context, tok Token, text string) ([]domain.BasketItem, int, error) {
	for round := 1; ; round++ {
		items := basket.ParseBasket(text)
		if len(items) == 0 {
			return nil, round, ErrEmptyBasket
		}

		res := p.resolver.Resolve(ctx, items)
		if !p.store.Current(tok) {
			return nil, round, ErrStaleResponse
		}

		if !res.HasUnresolved() {
			return resolution.Apply(items, res.Rows, nil), round, nil
		}

		if round > p.maxRounds {
			return nil, round, fmt.Errorf("%w (%d rounds)", ErrResolutionLoop, p.maxRounds)
		}

		if _, err := p.store.Commit(tok, CandidatesPending{Items: items, Rows: res.Rows}); err != nil {
			return nil, round, err
		}

		selection, err := p.chooser.Choose(ctx, res.Unresolved)
		if err != nil {
			return nil, round, err
		}

		next := resolution.Apply(items, res.Rows, selection)
		state, err := p.store.Commit(tok, SelectionApplied{Items: next})
		if err != nil {
			return nil, round, err
		}
		text = state.BasketText

		p.log.Debug("candidates applied, re-validating basket",
			zap.Int("round", round),
			zap.Int("unresolved", len(res.Unresolved)),
		)
	}
}

// locate returns the request's coordinates, geocoding the address if needed
func (p *Pipeline) locate(ctx context.Context, req Request) (Location, error) {
	if req.Coordinates != nil {
		loc := *req.Coordinates
		loc.FromGPS = true
		return loc, nil
	}
	if req.Address == "" {
		return Location{}, ErrLocationRequired
	}

	res, err := p.api.Geocode(ctx, req.Address)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrGeocodeFailed, err)
	}
	return Location{Lat: res.Lat, Lng: res.Lng, ResolvedAddress: res.ResolvedAddress}, nil
}

// fail records err in the state unless the submission was superseded
func (p *Pipeline) fail(tok Token, err error) error {
	if _, stale := p.store.Commit(tok, SubmitFailed{Err: err}); stale != nil {
		return stale
	}
	return err
}

func validateRequest(req Request) error {
	if !req.TravelMode.Valid() {
		return fmt.Errorf("%w: unknown travel mode %q", domain.ErrInvalidRequest, req.TravelMode)
	}
	if req.MaxTravelMinutes <= 0 || req.MaxTravelMinutes > maxTravelMinutesLimit {
		return fmt.Errorf("%w: max travel minutes must be between 1 and %d", domain.ErrInvalidRequest, maxTravelMinutesLimit)
	}
	return nil
}
