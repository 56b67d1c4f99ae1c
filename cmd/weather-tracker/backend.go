package main

import (
	"context"
	"fmt"

	"github.com/i474232898/weather-tracker/internal/config"
	"github.com/i474232898/weather-tracker/internal/store"
)

func openBackend(ctx context.Context, cfg *config.AppConfig) (store.Backend, error) {
	switch cfg.StoreBackend {
	case store.BackendMemory:
		return store.NewMemoryStore(), nil
	case store.BackendRedis:
		return store.NewRedisStore(cfg.Redis), nil
	case store.BackendDynamoDB:
		s, err := store.NewDynamoStore(ctx, cfg.Dynamo)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
