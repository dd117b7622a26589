package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func NewPool(ctx context.Context, dsn string, maxConns, minConns int32, maxConnLife time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLife
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// WarmUp acquires and pings n connections so the first requests do not pay
// connection setup cost. Best effort: failures are logged, never fatal.
func WarmUp(ctx context.Context, pool *pgxpool.Pool, n int, logger *logrus.Logger) {
	if pool == nil || n <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conns := make([]*pgxpool.Conn, 0, n)
	for i := 0; i < n; i++ {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			logger.WithError(err).Warn("pool warm-up acquire failed")
			break
		}
		if err := conn.Ping(ctx); err != nil {
			logger.WithError(err).Warn("pool warm-up ping failed")
			conn.Release()
			break
		}
		conns = append(conns, conn)
	}
	for _, conn := range conns {
		conn.Release()
	}
	logger.WithField("connections", len(conns)).Info("database pool warmed up")
}
