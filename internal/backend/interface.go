// Package backend assembles the key/value store, read cache and optional
// event publisher selected by configuration.
package backend

import (
	"context"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the assembled backend. Cache and Notifier are nil when
// disabled.
type Result struct {
	Store    storage.Store
	Keys     storage.Keys
	Cache    *storage.Cached
	Notifier *amqp.Client
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	DataDirectory string
	SQLiteDBPath  string
	StoragePrefix string

	CacheSize int
	CacheTTL  time.Duration

	// Publishing is disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
