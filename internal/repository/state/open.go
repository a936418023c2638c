package state

import (
	"context"
	"fmt"
	"time"

	"goeats/internal/db"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Options selects and configures a storage driver.
type Options struct {
	Driver        string
	Dir           string
	Profile       string
	MaxValueBytes int
	DSN           string
	Timeout       time.Duration
}

// Open builds the Repository named by opts.Driver. The returned close func
// releases any pool and is safe to call for every driver.
func Open(ctx context.Context, opts Options) (Repository, func(), error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(opts.MaxValueBytes), func() {}, nil
	case DriverFile:
		f, err := NewFile(opts.Dir, opts.Profile, opts.MaxValueBytes)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	case DriverPostgres:
		pool, err := db.Connect(ctx, opts.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to db: %w", err)
		}
		return NewPostgres(pool, opts.Profile, opts.Timeout, opts.MaxValueBytes), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// Ping checks repo when the driver supports it. Memory always answers.
func Ping(repo Repository) error {
	if p, ok := repo.(interface{ Ping() error }); ok {
		return p.Ping()
	}
	return nil
}
