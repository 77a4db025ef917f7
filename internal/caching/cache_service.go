package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Exchange rate caching
	GetExchangeRates(ctx context.Context, baseCurrency string) (map[string]float64, error)
	SetExchangeRates(ctx context.Context, baseCurrency string, rates map[string]float64, ttl time.Duration) error

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis:// and rediss:// style addresses as well as host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func ratesKey(baseCurrency string) string {
	return fmt.Sprintf("exchange_rates:%s", baseCurrency)
}

func (s *redisCacheService) GetExchangeRates(ctx context.Context, baseCurrency string) (map[string]float64, error) {
	data, err := s.client.Get(ctx, ratesKey(baseCurrency)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var rates map[string]float64
	if err := json.Unmarshal([]byte(data), &rates); err != nil {
		return nil, fmt.Errorf("corrupt cached rates for %s: %w", baseCurrency, err)
	}
	return rates, nil
}

func (s *redisCacheService) SetExchangeRates(ctx context.Context, baseCurrency string, rates map[string]float64, ttl time.Duration) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, ratesKey(baseCurrency), data, ttl).Err()
}

func (s *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *redisCacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
