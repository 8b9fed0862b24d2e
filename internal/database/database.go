// SPDX-License-Identifier: Apache-2.0

// Package database provides PostgreSQL connectivity probes for the db
// service. The project configures its database with a SQLAlchemy-style URL
// (postgresql+psycopg://...); this package normalizes that URL into a DSN
// pgx understands and polls the server until it accepts connections.
package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"crmstack/internal/logger"

	"github.com/jackc/pgx/v5"
)

// Params are the connection details extracted from the configured URL,
// used to build the `psql` invocation for db-shell.
type Params struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
}

// NormalizeDSN converts a SQLAlchemy-style URL into a plain postgres:// DSN.
// Driver suffixes in the scheme (postgresql+psycopg, postgresql+asyncpg, ...)
// are stripped; already-plain URLs pass through unchanged.
func NormalizeDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}

	scheme := u.Scheme
	if idx := strings.Index(scheme, "+"); idx != -1 {
		scheme = scheme[:idx]
	}
	switch scheme {
	case "postgres", "postgresql":
		u.Scheme = scheme
	case "":
		return "", fmt.Errorf("database URL %q has no scheme", raw)
	default:
		return "", fmt.Errorf("unsupported database scheme %q (expected postgresql)", u.Scheme)
	}

	return u.String(), nil
}

// Parse extracts connection parameters from the configured URL.
func Parse(raw string) (Params, error) {
	dsn, err := NormalizeDSN(raw)
	if err != nil {
		return Params{}, err
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return Params{}, fmt.Errorf("invalid database URL: %w", err)
	}

	params := Params{
		Host:     u.Hostname(),
		Port:     u.Port(),
		Database: strings.TrimPrefix(u.Path, "/"),
	}
	if u.User != nil {
		params.User = u.User.Username()
		params.Password, _ = u.User.Password()
	}
	if params.User == "" {
		params.User = "postgres"
	}
	if params.Port == "" {
		params.Port = "5432"
	}
	return params, nil
}

// Ping opens a connection and verifies the server responds.
func Ping(ctx context.Context, rawURL string) error {
	dsn, err := NormalizeDSN(rawURL)
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(ctx); closeErr != nil {
			logger.Warn("Error closing probe connection", "error", closeErr)
		}
	}()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// WaitReady polls the database until it accepts connections or ctx expires.
// The interval between attempts defaults to one second when non-positive.
func WaitReady(ctx context.Context, rawURL string, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}

	var lastErr error
	attempt := 0
	for {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = Ping(pingCtx, rawURL)
		cancel()

		if lastErr == nil {
			logger.Info("Database is ready", "attempts", attempt)
			return nil
		}
		logger.Debug("Database not ready yet", "attempt", attempt, "error", lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for database: %w (last error: %v)", ctx.Err(), lastErr)
		case <-time.After(interval):
		}
	}
}
