package domain

// BasketItem is one structured basket entry. Quantity is always >= 1 once
// produced by the parser; Brand is only set after candidate resolution.
type BasketItem struct {
	ItemName string `json:"item_name" binding:"required,max=100"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size,omitempty"`
	Brand    string `json:"brand,omitempty"`
}

// MatchCandidate is a possible canonical product for an ambiguous item name.
// Score is in [0,1]; candidates arrive sorted by descending score.
type MatchCandidate struct {
	ProductNormKey string  `json:"product_norm_key,omitempty"`
	NormalizedName string  `json:"normalized_name"`
	Brand          string  `json:"brand,omitempty"`
	SizeDisplay    string  `json:"size_display,omitempty"`
	Score          float64 `json:"score"`
}

// MatchRow tells whether an item name resolved to a single catalog product,
// and if not, the ranked alternatives.
type MatchRow struct {
	ItemName   string           `json:"item_name"`
	Matched    bool             `json:"matched"`
	Candidates []MatchCandidate `json:"candidates"`
}

// NeedsChoice reports whether the row is unresolved and offers something to pick.
func (r MatchRow) NeedsChoice() bool {
	return !r.Matched && len(r.Candidates) > 0
}

// Resolution is the outcome of asking the matcher about a basket.
type Resolution struct {
	Rows       []MatchRow
	Unresolved []MatchRow
}

// HasUnresolved reports whether the user has to pick candidates before submitting.
func (r Resolution) HasUnresolved() bool {
	return len(r.Unresolved) > 0
}

// Selection maps an item name to the chosen candidate index.
type Selection map[string]int

// MatchCandidatesRequest is the body of the match-candidates endpoint
type MatchCandidatesRequest struct {
	Items []BasketItem `json:"items" binding:"required,min=1,max=30,dive"`
}

// MatchCandidatesResponse is the response of the match-candidates endpoint
type MatchCandidatesResponse struct {
	Items []MatchRow `json:"items"`
}

// ParseBasketRequest is the body of the basket parse endpoint
type ParseBasketRequest struct {
	Text string `json:"text"`
}

// ParseBasketResponse is the response of the basket parse endpoint
type ParseBasketResponse struct {
	Items []BasketItem `json:"items"`
	Lines []string     `json:"lines"`
}
