// File: services/flights/search.go
package flights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"aerovoice/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const flightCachePrefix = "flights:query:"

// HTTPSearchService queries the upstream flight-search collaborator over
// HTTP with a bounded timeout, caches result sets in Redis, and hands the
// query to a fallback (typically the synthetic generator) when the upstream
// is unreachable.
type HTTPSearchService struct {
	BaseURL  string
	Client   *http.Client
	Cache    *redis.Client
	CacheTTL time.Duration
	Fallback SearchService
	Logger   *zap.Logger
}

func NewHTTPSearchService(baseURL string, timeout time.Duration, cache *redis.Client, cacheTTL time.Duration, fallback SearchService, logger *zap.Logger) *HTTPSearchService {
	return &HTTPSearchService{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: timeout},
		Cache:    cache,
		CacheTTL: cacheTTL,
		Fallback: fallback,
		Logger:   logger,
	}
}

func (s *HTTPSearchService) Search(ctx context.Context, query models.FlightQuery) ([]models.FlightOption, error) {
	key := cacheKey(query)

	if s.Cache != nil {
		if data, err := s.Cache.Get(ctx, key).Result(); err == nil {
			var cached []models.FlightOption
			if err := json.Unmarshal([]byte(data), &cached); err == nil {
				return cached, nil
			}
		}
	}

	options, err := s.searchUpstream(ctx, query)
	if err != nil {
		s.Logger.Warn("upstream flight search failed", zap.Error(err),
			zap.String("origin", query.Origin), zap.String("destination", query.Destination))
		if s.Fallback != nil {
			return s.Fallback.Search(ctx, query)
		}
		return nil, ErrSearchUnavailable
	}

	if s.Cache != nil && len(options) > 0 {
		if b, err := json.Marshal(options); err == nil {
			if err := s.Cache.Set(ctx, key, b, s.CacheTTL).Err(); err != nil {
				s.Logger.Warn("failed to cache flight results", zap.Error(err))
			}
		}
	}
	return options, nil
}

func (s *HTTPSearchService) searchUpstream(ctx context.Context, query models.FlightQuery) ([]models.FlightOption, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flight query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/search", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flight search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flight search returned status %d", resp.StatusCode)
	}

	var options []models.FlightOption
	if err := json.NewDecoder(resp.Body).Decode(&options); err != nil {
		return nil, fmt.Errorf("failed to decode flight results: %w", err)
	}
	return options, nil
}

func cacheKey(q models.FlightQuery) string {
	return fmt.Sprintf("%s%s|%s|%s|%s|%s|%s",
		flightCachePrefix, q.Origin, q.Destination, q.DepartureDate, q.ReturnDate, q.TripType, q.CabinClass)
}
