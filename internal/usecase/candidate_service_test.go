package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttokjang/backend/internal/domain"
)

func newTestCandidateService(cache domain.CacheRepository) (*CandidateService, *mockCatalog) {
	matcher, catalog := newTestMatcher()
	return NewCandidateService(cache, matcher, CandidateServiceConfig{}, nil), catalog
}

func TestMatchCandidates_UnresolvedScoresInRange(t *testing.T) {
	s, _ := newTestCandidateService(newMockCache())

	rows, err := s.MatchCandidates(context.Background(), []domain.BasketItem{
		{ItemName: "우유", Brand: "서울우유", Size: "5L", Quantity: 1},
	})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Matched)
	require.NotEmpty(t, rows[0].Candidates)
	for _, c := range rows[0].Candidates {
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 1.0)
	}
}

func TestMatchCandidates(t *testing.T) {
	s, _ := newTestCandidateService(newMockCache())

	rows, err := s.MatchCandidates(context.Background(), []domain.BasketItem{
		{ItemName: "우유", Brand: "서울우유", Size: "1L", Quantity: 1},
		{ItemName: "우유", Size: "500ml", Quantity: 2},
		{ItemName: "없는품목", Quantity: 1},
	})

	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "우유", rows[0].ItemName)
	assert.True(t, rows[0].Matched)
	require.Len(t, rows[0].Candidates, 1)
	assert.Equal(t, "p_milk_1l", rows[0].Candidates[0].ProductNormKey)
	assert.Equal(t, 1.0, rows[0].Candidates[0].Score)

	assert.False(t, rows[1].Matched)
	assert.Len(t, rows[1].Candidates, 2)
	assert.True(t, rows[1].NeedsChoice())

	assert.False(t, rows[2].Matched)
	assert.NotNil(t, rows[2].Candidates, "empty candidates encode as []")
	assert.Empty(t, rows[2].Candidates)
}

func TestMatchCandidates_PreservesOrder(t *testing.T) {
	s, _ := newTestCandidateService(nil)

	items := make([]domain.BasketItem, 0, 20)
	for i := 0; i < 20; i++ {
		name := []string{"우유", "달걀", "사과", "계란"}[i%4]
		items = append(items, domain.BasketItem{ItemName: name, Quantity: i + 1})
	}

	rows, err := s.MatchCandidates(context.Background(), items)

	require.NoError(t, err)
	require.Len(t, rows, len(items))
	for i, row := range rows {
		assert.Equal(t, items[i].ItemName, row.ItemName)
		assert.True(t, row.Matched, row.ItemName)
	}
}

func TestMatchCandidates_Validation(t *testing.T) {
	s, _ := newTestCandidateService(nil)
	ctx := context.Background()

	_, err := s.MatchCandidates(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	tooMany := make([]domain.BasketItem, 31)
	for i := range tooMany {
		tooMany[i] = domain.BasketItem{ItemName: "우유", Quantity: 1}
	}
	_, err = s.MatchCandidates(ctx, tooMany)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = s.MatchCandidates(ctx, []domain.BasketItem{{ItemName: " "}})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestMatchCandidates_UsesCache(t *testing.T) {
	cache := newMockCache()
	s, catalog := newTestCandidateService(cache)
	ctx := context.Background()
	items := []domain.BasketItem{{ItemName: "달걀", Quantity: 1}}

	first, err := s.MatchCandidates(ctx, items)
	require.NoError(t, err)
	searches := len(catalog.searches)
	assert.Equal(t, 1, cache.sets)

	key := matchCacheKey(items[0])
	assert.Equal(t, "match:달걀::", key)
	raw, err := cache.Get(ctx, key)
	require.NoError(t, err)
	var cached domain.MatchRow
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, first[0], cached)

	second, err := s.MatchCandidates(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, searches, len(catalog.searches), "second lookup is served from cache")
}

func TestMatchCandidates_CacheFailuresAreIgnored(t *testing.T) {
	cache := newMockCache()
	cache.getErr = domain.ErrCacheUnavailable
	cache.setErr = domain.ErrCacheUnavailable
	s, _ := newTestCandidateService(cache)

	rows, err := s.MatchCandidates(context.Background(), []domain.BasketItem{{ItemName: "우유", Quantity: 1}})

	require.NoError(t, err)
	assert.True(t, rows[0].Matched)
}

func TestMatchCandidates_CorruptCacheEntry(t *testing.T) {
	cache := newMockCache()
	item := domain.BasketItem{ItemName: "우유", Quantity: 1}
	require.NoError(t, cache.Set(context.Background(), matchCacheKey(item), []byte("{"), 0))
	s, _ := newTestCandidateService(cache)

	rows, err := s.MatchCandidates(context.Background(), []domain.BasketItem{item})

	require.NoError(t, err)
	assert.True(t, rows[0].Matched)
}

func TestMatchCandidates_CatalogFailure(t *testing.T) {
	s, catalog := newTestCandidateService(nil)
	catalog.err = errors.New("disk I/O error")

	_, err := s.MatchCandidates(context.Background(), []domain.BasketItem{{ItemName: "우유", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestMatchCacheKey(t *testing.T) {
	assert.Equal(t, "match:흰우유:서울우유:1l", matchCacheKey(domain.BasketItem{ItemName: "흰 우유", Brand: "서울우유", Size: "1L"}))
	assert.Equal(t, matchCacheKey(domain.BasketItem{ItemName: "우유"}), matchCacheKey(domain.BasketItem{ItemName: " 우유 ", Quantity: 5}))
}
