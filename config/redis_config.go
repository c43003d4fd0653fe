package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("[Redis] ping %s: %w", cfg.Addr, err)
	}

	log.Printf("[Redis] connected to %s", cfg.Addr)
	return &RedisClient{Client: client}, nil
}

func (c *RedisClient) Close() error {
	if err := c.Client.Close(); err != nil {
		return fmt.Errorf("[Redis] close: %w", err)
	}
	return nil
}
