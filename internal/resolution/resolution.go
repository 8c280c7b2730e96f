// Package resolution reconciles a parsed basket against the match-candidates
// service and merges the user's picks back into the basket.
package resolution

import (
	"context"

	"github.com/ttokjang/backend/internal/domain"
	"go.uber.org/zap"
)

// CandidateMatcher asks the matching service about a batch of items
type CandidateMatcher interface {
	MatchCandidates(ctx context.Context, items []domain.BasketItem) ([]domain.MatchRow, error)
}

// Resolver runs the match step of the submission pipeline
type Resolver struct {
	matcher CandidateMatcher
	log     *zap.Logger
}

// NewResolver creates a resolver. A nil logger disables logging.
func NewResolver(matcher CandidateMatcher, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{matcher: matcher, log: log}
}

// Resolve sends all items in one request and partitions the rows.
// Any failure yields an empty resolution so the basket proceeds unmodified.
func (r *Resolver) Resolve(ctx context.Context, items []domain.BasketItem) domain.Resolution {
	if len(items) == 0 {
		return domain.Resolution{}
	}

	rows, err := r.matcher.MatchCandidates(ctx, items)
	if err != nil {
		r.log.Warn("match candidates failed, continuing without resolution",
			zap.Int("items", len(items)),
			zap.Error(err),
		)
		return domain.Resolution{}
	}

	unresolved := Unresolved(rows)
	r.log.Debug("match candidates resolved",
		zap.Int("rows", len(rows)),
		zap.Int("unresolved", len(unresolved)),
	)

	return domain.Resolution{Rows: rows, Unresolved: unresolved}
}

// Unresolved returns the rows that need a user decision, in order.
func Unresolved(rows []domain.MatchRow) []domain.MatchRow {
	var out []domain.MatchRow
	for _, row := range rows {
		if row.NeedsChoice() {
			out = append(out, row)
		}
	}
	return out
}

// DefaultSelection picks the top candidate for every unresolved row.
func DefaultSelection(unresolved []domain.MatchRow) domain.Selection {
	selection := make(domain.Selection, len(unresolved))
	for _, row := range unresolved {
		selection[row.ItemName] = 0
	}
	return selection
}

// Apply substitutes the chosen candidate's canonical name, brand and size
// into every item whose row is unresolved. A nil selection picks index 0;
// out-of-range indexes are clamped. items is not modified.
func Apply(items []domain.BasketItem, rows []domain.MatchRow, selection domain.Selection) []domain.BasketItem {
	byName := make(map[string]domain.MatchRow, len(rows))
	for _, row := range rows {
		byName[row.ItemName] = row
	}

	out := make([]domain.BasketItem, len(items))
	for i, item := range items {
		out[i] = item

		row, ok := byName[item.ItemName]
		if !ok || !row.NeedsChoice() {
			continue
		}

		picked := row.Candidates[clamp(selection[item.ItemName], len(row.Candidates))]
		out[i].ItemName = picked.NormalizedName
		if picked.Brand != "" {
			out[i].Brand = picked.Brand
		}
		if picked.SizeDisplay != "" {
			out[i].Size = picked.SizeDisplay
		}
	}
	return out
}

func clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n-1 {
		return n - 1
	}
	return index
}
