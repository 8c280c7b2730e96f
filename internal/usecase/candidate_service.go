package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ttokjang/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxItems    = 30
	defaultConcurrency = 4
	defaultMatchTTL    = 10 * time.Minute

	// matchedScore is reported for the single candidate of a matched row
	matchedScore = 1.0
)

// CandidateServiceConfig holds configuration for the candidate service
type CandidateServiceConfig struct {
	CacheTTL     time.Duration
	MaxItems     int
	Concurrency  int
	SuggestLimit int
}

// CandidateService answers match-candidates requests: for every item, either
// the single catalog product it resolves to or up to SuggestLimit alternatives.
type CandidateService struct {
	cache        domain.CacheRepository
	matcher      *MatchingService
	cacheTTL     time.Duration
	maxItems     int
	concurrency  int
	suggestLimit int
	log          *zap.Logger
}

// NewCandidateService creates a new candidate service with dependencies
func NewCandidateService(
	cache domain.CacheRepository,
	matcher *MatchingService,
	config CandidateServiceConfig,
	log *zap.Logger,
) *CandidateService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CandidateService{
		cache:        cache,
		matcher:      matcher,
		cacheTTL:     config.CacheTTL,
		maxItems:     config.MaxItems,
		concurrency:  config.Concurrency,
		suggestLimit: config.SuggestLimit,
		log:          log,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultMatchTTL
	}
	if s.maxItems <= 0 {
		s.maxItems = defaultMaxItems
	}
	if s.concurrency <= 0 {
		s.concurrency = defaultConcurrency
	}
	if s.suggestLimit <= 0 {
		s.suggestLimit = defaultSuggestLimit
	}
	return s
}

// MatchCandidates resolves every item. Rows come back in request order.
// Flow per item: check cache -> match -> suggest on miss -> cache -> return
func (s *CandidateService) MatchCandidates(ctx context.Context, items []domain.BasketItem) ([]domain.MatchRow, error) {
	if len(items) == 0 || len(items) > s.maxItems {
		return nil, fmt.Errorf("%w: between 1 and %d items required", domain.ErrInvalidRequest, s.maxItems)
	}
	for _, item := range items {
		if strings.TrimSpace(item.ItemName) == "" {
			return nil, fmt.Errorf("%w: item_name is required", domain.ErrInvalidRequest)
		}
	}

	rows := make([]domain.MatchRow, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, item := range items {
		g.Go(func() error {
			row, err := s.matchOne(gctx, item)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *CandidateService) matchOne(ctx context.Context, item domain.BasketItem) (domain.MatchRow, error) {
	key := matchCacheKey(item)

	if row, ok := s.getFromCache(ctx, key); ok {
		row.ItemName = item.ItemName
		return row, nil
	}

	row := domain.MatchRow{ItemName: item.ItemName}

	product, err := s.matcher.Match(ctx, item)
	switch {
	case err == nil:
		row.Matched = true
		row.Candidates = []domain.MatchCandidate{product.Candidate(matchedScore)}
	case errors.Is(err, domain.ErrProductNotFound):
		suggestions, err := s.matcher.Suggest(ctx, item, s.suggestLimit)
		if err != nil {
			return domain.MatchRow{}, err
		}
		row.Candidates = suggestions
	default:
		return domain.MatchRow{}, err
	}

	if row.Candidates == nil {
		row.Candidates = []domain.MatchCandidate{}
	}

	s.setInCache(ctx, key, row)
	return row, nil
}

// matchCacheKey creates a normalized cache key for an item.
// Format: "match:{name}:{brand}:{size}"
func matchCacheKey(item domain.BasketItem) string {
	return fmt.Sprintf("match:%s:%s:%s", normalize(item.ItemName), normalize(item.Brand), normalize(item.Size))
}

func (s *CandidateService) getFromCache(ctx context.Context, key string) (domain.MatchRow, bool) {
	if s.cache == nil {
		return domain.MatchRow{}, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return domain.MatchRow{}, false
	}

	var row domain.MatchRow
	if err := json.Unmarshal(data, &row); err != nil {
		s.log.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return domain.MatchRow{}, false
	}
	return row, true
}

// setInCache stores a row; failures are logged, never returned
func (s *CandidateService) setInCache(ctx context.Context, key string, row domain.MatchRow) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(row)
	if err != nil {
		s.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
