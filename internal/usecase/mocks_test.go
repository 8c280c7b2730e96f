package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ttokjang/backend/internal/domain"
)

// mockCatalog is an in-memory CatalogRepository with the same ordering as the SQLite store
type mockCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	searches []string
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	sorted := append([]domain.Product(nil), products...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].NormalizedName != sorted[j].NormalizedName {
			return sorted[i].NormalizedName < sorted[j].NormalizedName
		}
		return sorted[i].ProductNormKey < sorted[j].ProductNormKey
	})
	return &mockCatalog{products: sorted}
}

func (m *mockCatalog) Search(ctx context.Context, pattern string, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, pattern)
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, p := range m.products {
		hit := strings.Contains(p.NormalizedName, pattern)
		for _, a := range p.Aliases {
			hit = hit || strings.Contains(a, pattern)
		}
		if hit && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) All(ctx context.Context, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.products) > limit {
		return append([]domain.Product(nil), m.products[:limit]...), nil
	}
	return append([]domain.Product(nil), m.products...), nil
}

func (m *mockCatalog) Upsert(ctx context.Context, products []domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, products...)
	return nil
}

func (m *mockCatalog) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

// mockCache is a map-backed CacheRepository that records writes
type mockCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	sets   int
	getErr error
	setErr error
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// mockPlaces answers local search queries from a fixed table
type mockPlaces struct {
	mu         sync.Mutex
	configured bool
	results    map[string][]domain.Place
	err        error
	queries    []string
}

func (m *mockPlaces) SearchPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.results[query], nil
}

func (m *mockPlaces) Configured() bool {
	return m.configured
}

func fixtureProducts() []domain.Product {
	return []domain.Product{
		{ProductNormKey: "p_milk_1l", NormalizedName: "우유", Brand: "서울우유", SizeValue: 1, SizeUnit: "L", SizeDisplay: "1L", Category: "유제품", Aliases: []string{"흰우유"}},
		{ProductNormKey: "p_milk_900", NormalizedName: "우유", Brand: "매일", SizeValue: 0.9, SizeUnit: "L", SizeDisplay: "900ml", Category: "유제품", Aliases: []string{"흰우유"}},
		{ProductNormKey: "p_egg_10", NormalizedName: "계란", Brand: "자연란", SizeValue: 10, SizeUnit: "EA", SizeDisplay: "10구", Category: "축산", Aliases: []string{"달걀"}},
		{ProductNormKey: "p_apple_1kg", NormalizedName: "사과", SizeValue: 1, SizeUnit: "kg", SizeDisplay: "1kg", Category: "과일", Aliases: []string{"부사"}},
	}
}
