package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ttokjang/backend/internal/domain"
	"github.com/ttokjang/backend/internal/infrastructure/naver"
	"go.uber.org/zap"
)

const defaultGeocodeTTL = 30 * time.Minute

// GeocodeServiceConfig holds configuration for the geocode service
type GeocodeServiceConfig struct {
	CacheTTL time.Duration
}

// GeocodeService resolves free-text addresses through the local search API
type GeocodeService struct {
	cache    domain.CacheRepository
	places   domain.LocalSearchClient
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewGeocodeService creates a new geocode service
func NewGeocodeService(cache domain.CacheRepository, places domain.LocalSearchClient, config GeocodeServiceConfig, log *zap.Logger) *GeocodeService {
	if log == nil {
		log = zap.NewNop()
	}
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = defaultGeocodeTTL
	}
	return &GeocodeService{cache: cache, places: places, cacheTTL: ttl, log: log}
}

// Geocode tries progressively looser variants of query and returns the first
// place that yields coordinates inside Korea.
func (s *GeocodeService) Geocode(ctx context.Context, rawQuery string) (*domain.GeocodeResult, error) {
	query := decodeQuery(rawQuery)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidRequest)
	}
	if s.places == nil || !s.places.Configured() {
		return nil, fmt.Errorf("%w: local search API key is not configured", domain.ErrGeocoderUnavailable)
	}

	key := "geocode:" + query
	if cached, ok := s.getFromCache(ctx, key); ok {
		return cached, nil
	}

	for _, variant := range geocodeQueryVariants(query) {
		places, err := s.places.SearchPlaces(ctx, variant)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.log.Warn("local search failed", zap.String("query", variant), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", domain.ErrGeocoderUnavailable, err)
		}

		for _, place := range places {
			lat, lng, ok := naver.ParseCoordinates(place.MapX, place.MapY)
			if !ok {
				continue
			}
			result := &domain.GeocodeResult{
				Query:           query,
				ResolvedQuery:   variant,
				Lat:             lat,
				Lng:             lng,
				ResolvedAddress: naver.DisplayAddress(place, variant),
			}
			s.setInCache(ctx, key, result)
			return result, nil
		}
	}

	return nil, domain.ErrGeocodeNotFound
}

// geocodeQueryVariants returns query, its first two and three tokens, its last
// token, and that token suffixed as a station and as a community center.
// Duplicates are dropped, order is kept.
func geocodeQueryVariants(query string) []string {
	tokens := strings.Fields(strings.ReplaceAll(query, ",", " "))
	variants := []string{query}
	if len(tokens) >= 2 {
		variants = append(variants, strings.Join(tokens[:2], " "))
	}
	if len(tokens) >= 3 {
		variants = append(variants, strings.Join(tokens[:3], " "))
	}
	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		variants = append(variants, last, last+"역", last+" 주민센터")
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// decodeQuery undoes a second round of percent-encoding some clients apply
func decodeQuery(raw string) string {
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}

func (s *GeocodeService) getFromCache(ctx context.Context, key string) (*domain.GeocodeResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var result domain.GeocodeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (s *GeocodeService) setInCache(ctx context.Context, key string, result *domain.GeocodeResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
