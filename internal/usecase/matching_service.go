package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ttokjang/backend/internal/domain"
	"go.uber.org/zap"
)

// Score weights
const (
	similarityWeight   = 0.55
	tokenOverlapWeight = 0.25
	queryInNameBonus   = 0.18 // query is a substring of the name or an alias
	nameInQueryBonus   = 0.10 // name is a substring of the query
	brandMatchBonus    = 0.25
	brandMissPenalty   = -0.15
	sizeMatchBonus     = 0.20
	sizeMissPenalty    = -0.10
)

const (
	defaultMinScore      = 0.35
	defaultSuggestLimit  = 3
	defaultSearchLimit   = 80
	defaultFallbackLimit = 200

	// sizes within 15% count as the same package (1L vs 900ml)
	sizeTolerance = 0.15
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinScore      float64
	SuggestLimit  int
	SearchLimit   int
	FallbackLimit int
}

// MatchingService matches basket items against the normalized product catalog
type MatchingService struct {
	catalog       domain.CatalogRepository
	preprocessor  *QueryPreprocessor
	minScore      float64
	suggestLimit  int
	searchLimit   int
	fallbackLimit int
	log           *zap.Logger
}

// scoredProduct pairs a catalog product with its score for one item
type scoredProduct struct {
	product domain.Product
	score   float64
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(catalog domain.CatalogRepository, config MatchConfig, log *zap.Logger) *MatchingService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &MatchingService{
		catalog:       catalog,
		preprocessor:  NewQueryPreprocessor(log),
		minScore:      config.MinScore,
		suggestLimit:  config.SuggestLimit,
		searchLimit:   config.SearchLimit,
		fallbackLimit: config.FallbackLimit,
		log:           log,
	}
	if s.minScore <= 0 {
		s.minScore = defaultMinScore
	}
	if s.suggestLimit <= 0 {
		s.suggestLimit = defaultSuggestLimit
	}
	if s.searchLimit <= 0 {
		s.searchLimit = defaultSearchLimit
	}
	if s.fallbackLimit <= 0 {
		s.fallbackLimit = defaultFallbackLimit
	}
	return s
}

// FetchCandidates searches the catalog for every search pattern of query and
// returns the distinct hits in discovery order. When nothing matches, the
// first products of the catalog are returned so scoring still has input.
func (s *MatchingService) FetchCandidates(ctx context.Context, query string) ([]domain.Product, error) {
	seen := make(map[string]bool)
	var results []domain.Product

	for _, pattern := range s.preprocessor.SearchPatterns(query) {
		hits, err := s.catalog.Search(ctx, pattern, s.searchLimit)
		if err != nil {
			return nil, err
		}
		for _, p := range hits {
			if seen[p.ProductNormKey] {
				continue
			}
			seen[p.ProductNormKey] = true
			results = append(results, p)
		}
	}

	if len(results) > 0 {
		return results, nil
	}
	return s.catalog.All(ctx, s.fallbackLimit)
}

// Score rates how well product fits item. Higher is better; values above 1
// are possible once brand and size bonuses apply.
func (s *MatchingService) Score(product domain.Product, item domain.BasketItem) float64 {
	query := normalize(item.ItemName)
	name := normalize(product.NormalizedName)
	aliases := make([]string, 0, len(product.Aliases))
	for _, a := range product.Aliases {
		aliases = append(aliases, normalize(a))
	}

	var nameSim, aliasSim float64
	if query != "" && name != "" {
		nameSim = similarity(query, name)
	}
	for _, a := range aliases {
		aliasSim = math.Max(aliasSim, similarity(query, a))
	}

	queryTokens := tokenSet(tokenize(item.ItemName))
	textTokens := tokenSet(tokenize(product.NormalizedName))
	for _, a := range product.Aliases {
		for _, t := range tokenize(a) {
			textTokens[t] = true
		}
	}
	var overlap float64
	if len(queryTokens) > 0 {
		shared := 0
		for t := range queryTokens {
			if textTokens[t] {
				shared++
			}
		}
		overlap = float64(shared) / float64(len(queryTokens))
	}

	var bonus float64
	if query != "" && (strings.Contains(name, query) || containsAny(aliases, query)) {
		bonus += queryInNameBonus
	}
	if name != "" && query != "" && strings.Contains(query, name) {
		bonus += nameInQueryBonus
	}

	score := similarityWeight*math.Max(nameSim, aliasSim) + tokenOverlapWeight*overlap + bonus

	if item.Brand != "" {
		if isBrandMatch(product.Brand, item.Brand) {
			score += brandMatchBonus
		} else {
			score += brandMissPenalty
		}
	}
	if item.Size != "" {
		if isSizeMatch(product.SizeDisplay, item.Size) {
			score += sizeMatchBonus
		} else {
			score += sizeMissPenalty
		}
	}

	return score
}

// Match picks the catalog product for item. It returns ErrProductNotFound when
// nothing scores above the threshold, or when a size was requested and no
// candidate is close enough to it; such items need a manual choice.
func (s *MatchingService) Match(ctx context.Context, item domain.BasketItem) (*domain.Product, error) {
	if strings.TrimSpace(item.ItemName) == "" {
		return nil, domain.ErrInvalidRequest
	}

	scored, err := s.rank(ctx, item)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 || scored[0].score < s.minScore {
		return nil, domain.ErrProductNotFound
	}

	if item.Brand != "" {
		var filtered []scoredProduct
		for _, c := range scored {
			if isBrandMatch(c.product.Brand, item.Brand) {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) > 0 {
			scored = filtered
		}
	}

	if item.Size != "" {
		var filtered []scoredProduct
		for _, c := range scored {
			if isSizeMatch(c.product.SizeDisplay, item.Size) {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) == 0 {
			s.log.Debug("no candidate near requested size",
				zap.String("item", item.ItemName), zap.String("size", item.Size))
			return nil, domain.ErrProductNotFound
		}
		sort.SliceStable(filtered, func(i, j int) bool {
			di, _ := sizeDistanceRatio(filtered[i].product.SizeDisplay, item.Size)
			dj, _ := sizeDistanceRatio(filtered[j].product.SizeDisplay, item.Size)
			if di != dj {
				return di < dj
			}
			return filtered[i].score > filtered[j].score
		})
		scored = filtered
	}

	best := scored[0]
	s.log.Debug("matched item",
		zap.String("item", item.ItemName),
		zap.String("product_norm_key", best.product.ProductNormKey),
		zap.Float64("score", best.score),
	)
	return &best.product, nil
}

// Suggest returns up to limit candidates scoring at least the threshold,
// best first. limit <= 0 uses the configured default.
func (s *MatchingService) Suggest(ctx context.Context, item domain.BasketItem, limit int) ([]domain.MatchCandidate, error) {
	if limit <= 0 {
		limit = s.suggestLimit
	}

	scored, err := s.rank(ctx, item)
	if err != nil {
		return nil, err
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	candidates := make([]domain.MatchCandidate, 0, len(scored))
	for _, c := range scored {
		if c.score < s.minScore {
			continue
		}
		candidates = append(candidates, c.product.Candidate(roundScore(math.Min(1, c.score))))
	}
	return candidates, nil
}

// rank fetches and scores candidates, best first; ties keep catalog order
func (s *MatchingService) rank(ctx context.Context, item domain.BasketItem) ([]scoredProduct, error) {
	products, err := s.FetchCandidates(ctx, item.ItemName)
	if err != nil {
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	scored := make([]scoredProduct, len(products))
	for i, p := range products {
		scored[i] = scoredProduct{product: p, score: s.Score(p, item)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored, nil
}

// similarity is 1 - levenshtein(a, b) / max(len(a), len(b)) over runes
func similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshteinDistance(a, b))/float64(longest)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func containsAny(values []string, sub string) bool {
	for _, v := range values {
		if strings.Contains(v, sub) {
			return true
		}
	}
	return false
}

// roundScore rounds to four decimal places
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
