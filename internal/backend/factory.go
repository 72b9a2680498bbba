package backend

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/settings"
	"fintrack/internal/storage"
	"fintrack/internal/storage/file"
	"fintrack/internal/storage/memory"
	"fintrack/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	store, closeStore, err := f.createStore(config)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		cleanups = append(cleanups, closeStore)
	}

	res := &Result{Store: store, Keys: storage.NewKeys(config.StoragePrefix)}

	if config.CacheSize > 0 {
		lru := cache.NewLRUCache[[]byte](config.CacheSize, config.CacheTTL)
		manager := cache.NewManager()
		manager.Register(lru)
		manager.StartCleanup(cleanupInterval(config.CacheTTL))
		cleanups = append(cleanups, func() error {
			manager.Stop()
			st := lru.Stats()
			f.logger.Debug("Closed read cache",
				"hits", st.Hits,
				"misses", st.Misses,
				"evictions", st.Evictions)
			return nil
		})
		res.Cache = storage.NewCached(store, lru)
		res.Store = res.Cache
		f.logger.Info("Initialized read cache", "size", config.CacheSize, "ttl", config.CacheTTL)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			res.Notifier = client
			cleanups = append(cleanups, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	res.Cleanup = func() error {
		var first error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	f.logger.Info("Initialized backend",
		log.FieldBackend, config.Type.String(),
		"cache_enabled", res.Cache != nil,
		"amqp_enabled", res.Notifier != nil)
	return res, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.Store, CleanupFunc, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Debug("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil
	case FileBackend:
		store, err := file.New(config.DataDirectory)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		f.logger.Debug("Opened file store", "data_directory", config.DataDirectory)
		return store, nil, nil
	case MemoryBackend:
		f.logger.Debug("Opened memory store", "data_directory", config.DataDirectory)
		if config.DataDirectory == "" {
			return memory.New(), nil, nil
		}
		return memory.NewFromDir(config.DataDirectory), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Minute
	}
	return ttl
}

// Open loads the settings store and a ledger engine over the backend. The
// engine publishes its events to the AMQP client when one is configured.
func (r *Result) Open(ctx context.Context, opts ...ledger.Option) (*settings.Store, *ledger.Engine, error) {
	set, err := settings.Open(ctx, r.Store, r.Keys)
	if err != nil {
		return nil, nil, err
	}
	base := []ledger.Option{ledger.WithKeys(r.Keys), ledger.WithSettings(set)}
	if r.Notifier != nil {
		base = append(base, ledger.WithNotifier(r.Notifier))
	}
	engine, err := ledger.Open(ctx, r.Store, append(base, opts...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return set, engine, nil
}

// Close runs the cleanup function, if any.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}
