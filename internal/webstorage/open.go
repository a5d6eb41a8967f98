package webstorage

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"biblioteca-backend/internal/platform/config"
	"biblioteca-backend/internal/platform/db"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// Open builds the Storage selected by cfg.Driver, wrapped with the
// configured per-call timeout and quota.
func Open(ctx context.Context, cfg config.Storage, logger *zap.Logger) (Storage, io.Closer, error) {
	var (
		s      Storage
		closer io.Closer = nopCloser
	)

	switch cfg.Driver {
	case config.DriverMemory:
		s = NewMemory()

	case config.DriverSQLite, config.DriverMySQL, config.DriverPostgres:
		conn, dialect, err := openSQL(cfg)
		if err != nil {
			return nil, nil, err
		}
		st, err := NewSQL(conn, dialect, cfg.Table)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		s, closer = st, conn

	case config.DriverRedis:
		client := NewRedisClient(cfg.Redis.Addr)
		rs := NewRedis(client, cfg.Redis.Prefix)
		if !rs.Healthy(ctx) {
			// localStorage と同様、起動は止めない（読み書き時にエラー→空扱い）
			logger.Warn("redis not reachable", zap.String("addr", cfg.Redis.Addr))
		}
		s, closer = rs, client

	default:
		return nil, nil, fmt.Errorf("webstorage: unknown driver %q", cfg.Driver)
	}

	logger.Info("storage ready", zap.String("driver", cfg.Driver), zap.String("key", cfg.Key))
	return WithQuota(WithTimeout(s, cfg.Timeout), cfg.QuotaUnits), closer, nil
}

func openSQL(cfg config.Storage) (*sql.DB, Dialect, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		conn, err := db.Connect(cfg.MySQL)
		return conn, DialectMySQL, err
	case config.DriverPostgres:
		conn, err := db.ConnectPostgres(cfg.Postgres.URL)
		return conn, DialectPostgres, err
	default:
		conn, err := db.OpenSQLite(cfg.SQLite.Path)
		return conn, DialectSQLite, err
	}
}

type timeout struct {
	Storage
	d time.Duration
}

// WithTimeout bounds every call by d. d <= 0 returns s unchanged.
func WithTimeout(s Storage, d time.Duration) Storage {
	if d <= 0 {
		return s
	}
	return &timeout{Storage: s, d: d}
}

func (t *timeout) GetItem(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Storage.GetItem(ctx, key)
}

func (t *timeout) SetItem(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Storage.SetItem(ctx, key, value)
}
