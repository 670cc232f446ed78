package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TalaGit/tala_pos/internal/cache"
)

// GoldPriceService fetches the market reference price for 18k gold in rials
// per gram. Results are cached in Redis so a burst of enqueues does not hammer
// the upstream feed. Every failure path returns 0: a sale must never be
// blocked because the price feed is down.
type GoldPriceService struct {
	endpoint   string
	cache      *cache.GoldPriceCache
	httpClient *http.Client
}

func NewGoldPriceService(endpoint string, priceCache *cache.GoldPriceCache) *GoldPriceService {
	return &GoldPriceService{
		endpoint: endpoint,
		cache:    priceCache,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CurrentPrice returns the cached or freshly fetched reference price, or 0
// when no price is available.
func (s *GoldPriceService) CurrentPrice(ctx context.Context) int64 {
	if s.endpoint == "" {
		return 0
	}
	if s.cache != nil {
		if price, ok := s.cache.Get(ctx); ok {
			return price
		}
	}

	price, err := s.fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Gold price fetch failed, recording 0")
		return 0
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, price); err != nil {
			log.Warn().Err(err).Msg("Failed to cache gold price")
		}
	}
	return price
}

func (s *GoldPriceService) fetch(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("gold price feed returned status %d", resp.StatusCode)
	}

	var body struct {
		PricePerGram int64 `json:"price_per_gram"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	if body.PricePerGram <= 0 {
		return 0, fmt.Errorf("gold price feed returned non-positive price %d", body.PricePerGram)
	}
	return body.PricePerGram, nil
}
