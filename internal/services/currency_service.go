package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"invoicegen/internal/caching"
)

// CurrencyService is a thin client over an external exchange-rate API.
// Rates are advisory display data only; invoice amounts are never
// converted in storage.
type CurrencyService interface {
	GetExchangeRates(ctx context.Context, baseCurrency string) (map[string]float64, error)
	Convert(ctx context.Context, amount float64, fromCurrency, toCurrency string) (float64, error)
}

type currencyService struct {
	apiURL     string
	httpClient *http.Client
	cacheSvc   caching.CacheService
}

const ratesCacheTTL = time.Hour

func NewCurrencyService(apiURL string, cacheSvc caching.CacheService) CurrencyService {
	return &currencyService{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cacheSvc: cacheSvc,
	}
}

func (s *currencyService) GetExchangeRates(ctx context.Context, baseCurrency string) (map[string]float64, error) {
	if cached, err := s.cacheSvc.GetExchangeRates(ctx, baseCurrency); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		log.Printf("WARN: exchange rate cache read failed: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", s.apiURL, baseCurrency), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange rate lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange rate API returned %d for %s", resp.StatusCode, baseCurrency)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed exchange rate response: %w", err)
	}

	if err := s.cacheSvc.SetExchangeRates(ctx, baseCurrency, payload.Rates, ratesCacheTTL); err != nil {
		log.Printf("WARN: exchange rate cache write failed: %v", err)
	}

	return payload.Rates, nil
}

func (s *currencyService) Convert(ctx context.Context, amount float64, fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return amount, nil
	}

	rates, err := s.GetExchangeRates(ctx, fromCurrency)
	if err != nil {
		return 0, err
	}

	rate, ok := rates[toCurrency]
	if !ok {
		return 0, fmt.Errorf("exchange rate not found for %s", toCurrency)
	}

	return math.Round(amount*rate*100) / 100, nil
}
