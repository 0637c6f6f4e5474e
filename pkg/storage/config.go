package storage

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendFS     = "fs"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Config selects and configures a storage backend. Environment overrides
// use the upper-cased field names, e.g. FLOWDESK_STORAGE_REDIS_ADDR.
type Config struct {
	Backend string       `toml:"backend"`
	Root    string       `toml:"root"`
	Redis   RedisConfig  `toml:"redis"`
	Mongo   MongoConfig  `toml:"mongo"`
	SQLite  SQLiteConfig `toml:"sqlite"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// MongoConfig configures the mongo backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFS
	}
	if c.Root == "" {
		c.Root = "."
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "flowdesk:file:"
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "flowdesk"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "files"
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "flowdesk.db"
	}
}

// Open connects to the backend selected by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	cfg.SetDefaults()
	switch cfg.Backend {
	case BackendFS:
		return NewFSStore(cfg.Root)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case BackendMongo:
		return NewMongoStore(ctx, cfg.Mongo)
	case BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("%w: %q (must be one of: fs, memory, redis, mongo, sqlite)", ErrUnknownBackend, cfg.Backend)
	}
}
