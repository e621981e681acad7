package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connection is a live database session together with the URL it was opened with.
// The gorm handle is expected to be pinned to one physical connection so that
// session-scoped statements affect every statement that follows them.
type Connection struct {
	db  *gorm.DB
	url string
}

// NewConnection wraps an already opened gorm handle.
func NewConnection(db *gorm.DB, url string) *Connection {
	return &Connection{db: db, url: url}
}

// URL returns the URL the connection was opened with, including any jdbc: prefix.
func (c *Connection) URL() string {
	return c.url
}

// DB returns the gorm handle bound to ctx.
func (c *Connection) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

// Close releases the underlying pool. Only the party that opened the connection calls it.
func (c *Connection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type Config struct {
	GormConfig *gorm.Config
}

type OptFunc func(*Config)

// WithLogLevel sets the gorm logger level: silent, error, warn or info.
func WithLogLevel(level string) OptFunc {
	return func(cfg *Config) {
		cfg.GormConfig.Logger = newGormLogger(level)
	}
}

// WithGormConfig replaces the gorm configuration entirely.
func WithGormConfig(gc *gorm.Config) OptFunc {
	return func(cfg *Config) {
		if gc != nil {
			cfg.GormConfig = gc
		}
	}
}

// DefaultGormConfig returns default GORM configuration
func DefaultGormConfig() *Config {
	return &Config{
		GormConfig: &gorm.Config{
			Logger:                                   newGormLogger("warn"),
			SkipDefaultTransaction:                   true,
			DisableForeignKeyConstraintWhenMigrating: true,
		},
	}
}

func newGormLogger(levelStr string) logger.Interface {
	var logLevel logger.LogLevel

	switch strings.ToLower(levelStr) {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}

// Open opens a gorm handle with dialector and pins its pool to a single connection.
func Open(dialector gorm.Dialector, url string, opts ...OptFunc) (*Connection, error) {
	cfg := DefaultGormConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	db, err := gorm.Open(dialector, cfg.GormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", Redact(url), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return NewConnection(db, url), nil
}

// Redact hides the password part of a URL for error messages and logs.
func Redact(url string) string {
	at := strings.LastIndex(url, "@")
	if at < 0 {
		return url
	}
	userInfo := url[:at]
	colon := strings.LastIndex(userInfo, ":")
	if colon < 0 || strings.HasPrefix(userInfo[colon+1:], "/") {
		return url
	}
	return userInfo[:colon+1] + "****" + url[at:]
}
