package domain

// TravelMode is how the shopper reaches the store
type TravelMode string

const (
	TravelModeWalk    TravelMode = "walk"
	TravelModeTransit TravelMode = "transit"
	TravelModeCar     TravelMode = "car"
)

// Valid reports whether m is one of the known travel modes
func (m TravelMode) Valid() bool {
	switch m {
	case TravelModeWalk, TravelModeTransit, TravelModeCar:
		return true
	}
	return false
}

// PlanType identifies the ranking strategy behind a plan
type PlanType string

const (
	PlanTypeLowest   PlanType = "lowest"
	PlanTypeNearest  PlanType = "nearest"
	PlanTypeBalanced PlanType = "balanced"
)

// UserContext carries where the shopper is and how far they are willing to travel.
type UserContext struct {
	Lat              float64    `json:"lat"`
	Lng              float64    `json:"lng"`
	TravelMode       TravelMode `json:"travel_mode"`
	MaxTravelMinutes int        `json:"max_travel_minutes"`
}

// GeneratePlanRequest is the body of the plan generation endpoint
type GeneratePlanRequest struct {
	UserContext UserContext  `json:"user_context"`
	BasketItems []BasketItem `json:"basket_items"`
}

// ItemAlternative is a substitute suggested for a missing item
type ItemAlternative struct {
	ItemName     string `json:"item_name"`
	Brand        string `json:"brand,omitempty"`
	UnitPriceWon int    `json:"unit_price_won"`
	SavingWon    int    `json:"saving_won"`
	Tag          string `json:"tag,omitempty"`
}

// MatchedItem is a basket item the store carries
type MatchedItem struct {
	ItemName        string `json:"item_name"`
	Brand           string `json:"brand,omitempty"`
	SizeDisplay     string `json:"size_display,omitempty"`
	Quantity        int    `json:"quantity"`
	UnitPriceWon    int    `json:"unit_price_won"`
	SubtotalWon     int    `json:"subtotal_won"`
	ItemTag         string `json:"item_tag,omitempty"`
	PriceVerifiedAt string `json:"price_verified_at,omitempty"`
}

// MissingItem is a basket item the store does not cover
type MissingItem struct {
	ItemName    string           `json:"item_name"`
	Reason      string           `json:"reason"`
	Alternative *ItemAlternative `json:"alternative,omitempty"`
}

// PlanAssumption records a brand or size the planner picked on the user's behalf
type PlanAssumption struct {
	ItemName     string `json:"item_name"`
	Field        string `json:"field"`
	AssumedValue string `json:"assumed_value"`
	Reason       string `json:"reason"`
}

// OfflinePlan is one store recommendation
type OfflinePlan struct {
	PlanType             PlanType         `json:"plan_type"`
	StoreID              string           `json:"store_id"`
	StoreName            string           `json:"store_name"`
	StoreAddress         string           `json:"store_address"`
	TotalPriceWon        int              `json:"total_price_won"`
	CoverageRatio        float64          `json:"coverage_ratio"`
	RecommendationReason string           `json:"recommendation_reason"`
	MatchedItems         []MatchedItem    `json:"matched_items"`
	MissingItems         []MissingItem    `json:"missing_items"`
	Assumptions          []PlanAssumption `json:"assumptions"`
	TravelMinutes        int              `json:"travel_minutes"`
	DistanceKm           float64          `json:"distance_km"`
	WeatherNote          string           `json:"weather_note,omitempty"`
	PriceSource          string           `json:"price_source"`
	PriceObservedAt      string           `json:"price_observed_at"`
	PriceNotice          string           `json:"price_notice"`
}

// PlanMeta describes a plan generation run
type PlanMeta struct {
	RequestID         string   `json:"request_id"`
	GeneratedAt       string   `json:"generated_at"`
	DegradedProviders []string `json:"degraded_providers"`
}

// GeneratePlanResponse is the response of the plan generation endpoint
type GeneratePlanResponse struct {
	Plans []OfflinePlan `json:"plans"`
	Meta  PlanMeta      `json:"meta"`
}

// Degraded reports whether some providers fell back during generation
func (r *GeneratePlanResponse) Degraded() bool {
	return len(r.Meta.DegradedProviders) > 0
}

// SelectPlanRequest is the body of the plan selection endpoint
type SelectPlanRequest struct {
	RequestID        string   `json:"request_id"`
	SelectedPlanType PlanType `json:"selected_plan_type"`
	StoreID          string   `json:"store_id"`
}

// SelectPlanResponse confirms a selected plan
type SelectPlanResponse struct {
	Status        string `json:"status"`
	StoreName     string `json:"store_name"`
	StoreAddress  string `json:"store_address"`
	NavigationURL string `json:"navigation_url"`
	SelectedAt    string `json:"selected_at"`
}

// ErrorResponse is the error envelope shared by the offline endpoints
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
