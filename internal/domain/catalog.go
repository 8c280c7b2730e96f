package domain

import "time"

// Product is a normalized catalog product (one row of product_norm).
type Product struct {
	ProductNormKey string    `json:"product_norm_key" yaml:"product_norm_key"`
	NormalizedName string    `json:"normalized_name" yaml:"normalized_name"`
	Brand          string    `json:"brand,omitempty" yaml:"brand,omitempty"`
	SizeValue      float64   `json:"size_value,omitempty" yaml:"size_value,omitempty"`
	SizeUnit       string    `json:"size_unit,omitempty" yaml:"size_unit,omitempty"`
	SizeDisplay    string    `json:"size_display,omitempty" yaml:"size_display,omitempty"`
	Category       string    `json:"category,omitempty" yaml:"category,omitempty"`
	Aliases        []string  `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Candidate converts a product to a match candidate with the given score
func (p Product) Candidate(score float64) MatchCandidate {
	return MatchCandidate{
		ProductNormKey: p.ProductNormKey,
		NormalizedName: p.NormalizedName,
		Brand:          p.Brand,
		SizeDisplay:    p.SizeDisplay,
		Score:          score,
	}
}
