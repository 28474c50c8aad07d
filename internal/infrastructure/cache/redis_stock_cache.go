package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/clinica-estoque-api/internal/application/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

var _ inventory.StockViewCache = (*RedisStockCache)(nil)

const (
	keyPrefix        = "stock:view:"
	generationPrefix = "stock:gen:"
)

// RedisStockCache vista agregada por producto en Redis. Cada entrada guarda el día para el que
// se calculó; una entrada de otro día cuenta como ausente. La clave incluye la generación del
// producto (stock:gen:<id>), que Invalidate incrementa con INCR: las vistas de generaciones
// anteriores quedan huérfanas hasta que vence su TTL.
type RedisStockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStockCache conecta con la URL (redis://...) y verifica con PING.
func NewRedisStockCache(ctx context.Context, url string, ttl time.Duration) (*RedisStockCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStockCacheFromClient(client, ttl), nil
}

// NewRedisStockCacheFromClient reutiliza un cliente existente.
func NewRedisStockCacheFromClient(client *redis.Client, ttl time.Duration) *RedisStockCache {
	return &RedisStockCache{client: client, ttl: ttl}
}

type cachedView struct {
	Day  string                `json:"day"`
	Item *entity.StockListItem `json:"item"`
}

func stockKey(productID string, generation int64) string {
	return keyPrefix + productID + ":" + strconv.FormatInt(generation, 10)
}

func generationKey(productID string) string {
	return generationPrefix + productID
}

// Get lee la generación actual y la vista guardada bajo ella. Devuelve (nil, gen, nil) si no
// hay entrada o si es de otro día.
func (c *RedisStockCache) Get(ctx context.Context, productID, day string) (*entity.StockListItem, int64, error) {
	generation, err := c.client.Get(ctx, generationKey(productID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("redis get generación: %w", err)
	}
	raw, err := c.client.Get(ctx, stockKey(productID, generation)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, generation, nil
		}
		return nil, 0, fmt.Errorf("redis get: %w", err)
	}
	item, err := decodeView(raw, day)
	if err != nil {
		return nil, 0, err
	}
	return item, generation, nil
}

// Set guarda la vista bajo la generación leída en Get, con el TTL configurado.
func (c *RedisStockCache) Set(ctx context.Context, day string, generation int64, item *entity.StockListItem) error {
	raw, err := json.Marshal(cachedView{Day: day, Item: item})
	if err != nil {
		return fmt.Errorf("encode stock view: %w", err)
	}
	if err := c.client.Set(ctx, stockKey(item.ProductID, generation), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate avanza la generación de los productos indicados en un solo pipeline.
func (c *RedisStockCache) Invalidate(ctx context.Context, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range productIDs {
			pipe.Incr(ctx, generationKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis incr generación: %w", err)
	}
	return nil
}

// Ping para el health check.
func (c *RedisStockCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close cierra el cliente.
func (c *RedisStockCache) Close() error {
	return c.client.Close()
}

func decodeView(raw []byte, day string) (*entity.StockListItem, error) {
	var v cachedView
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode stock view: %w", err)
	}
	if v.Day != day || v.Item == nil {
		return nil, nil
	}
	return v.Item, nil
}
