package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jhonbg/quyca-sub001/internal/config"
	"github.com/jhonbg/quyca-sub001/internal/observability"
)

// Compile-time interface verification.
var _ Store = (*Mongo)(nil)

// Mongo is the MongoDB implementation of Store. The underlying client keeps
// its own goroutine-safe connection pool shared across concurrent requests.
type Mongo struct {
	client  *mongo.Client
	db      *mongo.Database
	limiter *RateLimiter
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// Connect establishes the MongoDB connection pool and verifies connectivity.
// metrics may be nil when instrumentation is disabled.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger, metrics *observability.Metrics) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(cfg.URIOrDefault()).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to document store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping document store: %w", err)
	}

	var limiter *RateLimiter
	if cfg.QueryRateLimit > 0 {
		limiter = NewRateLimiter(cfg.QueryRateLimit, cfg.QueryRateBurst)
	}

	return &Mongo{
		client:  client,
		db:      client.Database(cfg.Name),
		limiter: limiter,
		metrics: metrics,
		logger:  logger.With().Str("component", "store").Logger(),
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Health reports store connectivity for readiness checks.
type Health struct {
	Status string
	Error  string
}

// Health pings the store and reports the result.
func (m *Mongo) Health(ctx context.Context) Health {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return Health{Status: "unhealthy", Error: err.Error()}
	}
	return Health{Status: "healthy"}
}

// Find implements Store.
func (m *Mongo) Find(ctx context.Context, collection string, filter interface{}) (Cursor, error) {
	done, err := m.before(ctx, collection, "find")
	if err != nil {
		return nil, err
	}
	cur, err := m.db.Collection(collection).Find(ctx, filter)
	done(err)
	if err != nil {
		return nil, m.wrap(collection, "find", err)
	}
	return cur, nil
}

// FindOne implements Store.
func (m *Mongo) FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error {
	done, err := m.before(ctx, collection, "find_one")
	if err != nil {
		return err
	}
	err = m.db.Collection(collection).FindOne(ctx, filter).Decode(result)
	done(err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNoDocuments
	}
	if err != nil {
		return m.wrap(collection, "find_one", err)
	}
	return nil
}

// Aggregate implements Store.
func (m *Mongo) Aggregate(ctx context.Context, collection string, pipeline interface{}) (Cursor, error) {
	done, err := m.before(ctx, collection, "aggregate")
	if err != nil {
		return nil, err
	}
	cur, err := m.db.Collection(collection).Aggregate(ctx, pipeline)
	done(err)
	if err != nil {
		return nil, m.wrap(collection, "aggregate", err)
	}
	return cur, nil
}

// Count implements Store.
func (m *Mongo) Count(ctx context.Context, collection string, filter interface{}) (int64, error) {
	done, err := m.before(ctx, collection, "count")
	if err != nil {
		return 0, err
	}
	n, err := m.db.Collection(collection).CountDocuments(ctx, filter)
	done(err)
	if err != nil {
		return 0, m.wrap(collection, "count", err)
	}
	return n, nil
}

// before applies the rate limiter and starts instrumentation for one
// operation. The returned func records duration and outcome.
func (m *Mongo) before(ctx context.Context, collection, op string) (func(error), error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("store rate limiter: %w", err)
	}
	start := time.Now()
	return func(err error) {
		if m.metrics == nil {
			return
		}
		m.metrics.StoreQueriesTotal.WithLabelValues(collection, op).Inc()
		m.metrics.StoreQueryDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			m.metrics.StoreQueriesFailed.WithLabelValues(collection, op).Inc()
		}
	}, nil
}

func (m *Mongo) wrap(collection, op string, err error) error {
	m.logger.Error().Err(err).Str("collection", collection).Str("operation", op).Msg("store operation failed")
	return fmt.Errorf("%s on %s: %w", op, collection, err)
}
