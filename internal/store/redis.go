package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/linkgate/linkgate/internal/shortener"
	"github.com/redis/go-redis/v9"
)

// linksKey is the single storage key holding the whole link table as one
// JSON object ({code: originalUrl}). The layout is part of the persisted
// state contract.
const linksKey = "urls"

// maxCASAttempts bounds optimistic-concurrency retries when concurrent
// writers race on the link table.
const maxCASAttempts = 8

// ErrTooMuchContention is returned when the CAS retry budget is exhausted.
var ErrTooMuchContention = errors.New("too much contention on the link table")

// RedisStore is a Redis implementation of shortener.Repository. The whole
// table lives under one key; mutations run inside WATCH so that concurrent
// read-modify-write cycles cannot lose updates.
type RedisStore struct {
	client    *redis.Client
	generator *shortener.Generator
}

// NewRedisStore creates a new Redis-backed link store.
func NewRedisStore(client *redis.Client, generator *shortener.Generator) *RedisStore {
	return &RedisStore{
		client:    client,
		generator: generator,
	}
}

func (r *RedisStore) CreateLink(ctx context.Context, originalURL string, length int) (string, error) {
	var code string

	err := r.update(ctx, func(links map[string]string) (bool, error) {
		for range maxCodeAttempts {
			candidate, err := r.generator.Generate(length)
			if err != nil {
				return false, err
			}

			if _, exists := links[candidate]; exists {
				continue
			}

			code = candidate
			links[code] = originalURL

			return true, nil
		}

		return false, shortener.ErrCodeSpaceExhausted
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

func (r *RedisStore) GetOriginalURL(ctx context.Context, code string) (string, error) {
	links, err := readLinks(ctx, r.client)
	if err != nil {
		return "", err
	}

	url, ok := links[code]
	if !ok {
		return "", shortener.ErrNotFound
	}

	return url, nil
}

func (r *RedisStore) DeleteLink(ctx context.Context, code string) error {
	return r.update(ctx, func(links map[string]string) (bool, error) {
		if _, exists := links[code]; !exists {
			return false, nil
		}

		delete(links, code)

		return true, nil
	})
}

// update runs a read-modify-write cycle on the link table under WATCH,
// retrying when a concurrent writer invalidates the transaction. mutate
// returns false to skip the write entirely.
func (r *RedisStore) update(ctx context.Context, mutate func(links map[string]string) (bool, error)) error {
	txf := func(tx *redis.Tx) error {
		links, err := readLinks(ctx, tx)
		if err != nil {
			return err
		}

		dirty, err := mutate(links)
		if err != nil {
			return err
		}

		if !dirty {
			return nil
		}

		payload, err := json.Marshal(links)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, linksKey, payload, 0)

			return nil
		})

		return err
	}

	for range maxCASAttempts {
		err := r.client.Watch(ctx, txf, linksKey)
		if err == nil {
			return nil
		}

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return err
	}

	return ErrTooMuchContention
}

func readLinks(ctx context.Context, c redis.Cmdable) (map[string]string, error) {
	payload, err := c.Get(ctx, linksKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Absent table is treated as empty.
			return map[string]string{}, nil
		}

		return nil, err
	}

	links := map[string]string{}
	if err := json.Unmarshal(payload, &links); err != nil {
		return nil, err
	}

	return links, nil
}

// Compile-time check.
var _ shortener.Repository = (*RedisStore)(nil)
