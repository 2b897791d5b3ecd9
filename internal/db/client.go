// Package db mirrors removal audit entries to SurrealDB over an
// auto-reconnecting WebSocket connection.
package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

func init() {
	// WebSocket upgrade fails when ALPN negotiates HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Auth levels accepted in Config.AuthLevel.
const (
	AuthRoot     = "root"
	AuthDatabase = "database"
)

// Connection tuning. A mirror is optional, so an unreachable server gives up
// quickly instead of holding the run.
const (
	dialTimeout     = 5 * time.Second
	retryFirstDelay = time.Second
	retryMaxDelay   = 5 * time.Second
	retryMax        = 3
)

// Config holds SurrealDB connection configuration.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // AuthRoot (default) or AuthDatabase
}

// auth returns the credentials for the configured auth level.
func (c Config) auth() surrealdb.Auth {
	if c.AuthLevel == AuthDatabase {
		return surrealdb.Auth{
			Namespace: c.Namespace,
			Database:  c.Database,
			Username:  c.Username,
			Password:  c.Password,
		}
	}
	return surrealdb.Auth{Username: c.Username, Password: c.Password}
}

// Client is a signed-in SurrealDB session scoped to one namespace and database.
type Client struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	logger logger.Logger
}

// NewClient connects, signs in and selects the namespace and database.
// An empty URL returns ErrNotConfigured.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	if log == nil {
		log = slog.Default()
	}
	sdkLogger := logger.New(log.Handler())

	conn := dial(cfg.URL, sdkLogger)
	sdkLogger.Info("connecting to SurrealDB", "url", cfg.URL)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err == nil {
		err = signIn(ctx, db, cfg)
	}
	if err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	sdkLogger.Info("SurrealDB connection established", "namespace", cfg.Namespace, "database", cfg.Database)
	return &Client{conn: conn, db: db, logger: sdkLogger}, nil
}

// dial builds the reconnecting connection. gorillaws appends /rpc itself, so a
// trailing /rpc in url is dropped.
func dial(url string, log logger.Logger) *rews.Connection[*gorillaws.Connection] {
	codec := surrealcbor.New()
	baseURL := strings.TrimSuffix(url, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      log,
			}), nil
		},
		dialTimeout,
		codec,
		log,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = retryFirstDelay
	retryer.MaxDelay = retryMaxDelay
	retryer.Multiplier = 2.0
	retryer.MaxRetries = retryMax
	conn.Retryer = retryer
	return conn
}

func signIn(ctx context.Context, db *surrealdb.DB, cfg Config) error {
	if _, err := db.SignIn(ctx, cfg.auth()); err != nil {
		return fmt.Errorf("signin as %s (%s): %w", cfg.Username, cfg.AuthLevel, err)
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return fmt.Errorf("use %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// InitSchema defines the removal table and its indexes. It is idempotent.
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, c.db, SchemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// WipeData deletes every mirrored removal and keeps the schema.
func (c *Client) WipeData(ctx context.Context) error {
	c.logger.Warn("deleting all mirrored removals")
	if _, err := surrealdb.Query[any](ctx, c.db, "DELETE removal", nil); err != nil {
		return fmt.Errorf("delete removal: %w", err)
	}
	return nil
}
