// Package cache keeps the package catalog in redis so the catalog listing does
// not hit MySQL on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"investment-service/internal/models"
)

const catalogKey = "catalog:packages"

// Catalog caches the package list. A nil *Catalog is a valid, always-missing cache.
type Catalog struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient connects to redis and logs, but does not fail, when the server is unreachable.
func NewClient(ctx context.Context, addr, password string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if pong, err := client.Ping(ctx).Result(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("Could not connect to redis cache")
	} else {
		log.Info().Str("addr", addr).Str("reply", pong).Msg("Connected to redis cache")
	}
	return client
}

func NewCatalog(client *redis.Client, ttl time.Duration) *Catalog {
	if client == nil {
		return nil
	}
	return &Catalog{client: client, ttl: ttl}
}

// Packages returns the cached catalog. ok is false on a miss or any redis error.
func (c *Catalog) Packages(ctx context.Context) (pkgs []models.Package, ok bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("Catalog cache read failed")
		}
		return nil, false
	}
	if err := json.Unmarshal(raw, &pkgs); err != nil {
		log.Warn().Err(err).Msg("Discarding malformed catalog cache entry")
		return nil, false
	}
	return pkgs, true
}

func (c *Catalog) StorePackages(ctx context.Context, pkgs []models.Package) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(pkgs)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode catalog for cache")
		return
	}
	if err := c.client.Set(ctx, catalogKey, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("Catalog cache write failed")
	}
}

// Invalidate drops the cached catalog after a package is created or changed.
func (c *Catalog) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		log.Warn().Err(err).Msg("Catalog cache invalidation failed")
	}
}
