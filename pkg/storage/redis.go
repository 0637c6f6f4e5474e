package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flowdesk/pkg/cache"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 256

// RedisStore keeps each file in a string key below a prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *RedisStore) key(p string) string { return s.prefix + p }

func (s *RedisStore) Read(ctx context.Context, p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	var content string
	err = cache.Retry(ctx, func() error {
		var err error
		content, err = s.client.Get(ctx, s.key(clean)).Result()
		return cache.RedisTransient(err)
	})
	if errors.Is(err, redis.Nil) {
		return "", notFound(clean)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", clean, err)
	}
	return content, nil
}

// Write stores content, retrying transient connection failures.
func (s *RedisStore) Write(ctx context.Context, p, content string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	err = cache.Retry(ctx, func() error {
		return cache.RedisTransient(s.client.Set(ctx, s.key(clean), content, 0).Err())
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, dir string) ([]string, error) {
	prefix, err := cleanDir(dir)
	if err != nil {
		return nil, err
	}
	pattern := escapeGlob(s.key(prefix)) + "*"

	var out []string
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	// SCAN may return a key more than once.
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (s *RedisStore) Delete(ctx context.Context, p string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	n, err := s.client.Del(ctx, s.key(clean)).Result()
	if err != nil {
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	if n == 0 {
		return notFound(clean)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error { return s.client.Close() }

// escapeGlob escapes the characters SCAN MATCH treats as wildcards.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Store = (*RedisStore)(nil)
