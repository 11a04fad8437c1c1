package main

import (
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/parley-dev/parley"
	"github.com/parley-dev/parley/internal/logging"
	fileStore "github.com/parley-dev/parley/pkg/adapters/file"
	"github.com/parley-dev/parley/pkg/adapters/memory"
	redisStore "github.com/parley-dev/parley/pkg/adapters/redis"
	"github.com/parley-dev/parley/pkg/ports"
	"github.com/parley-dev/parley/pkg/schema"
)

// buildEngine assembles an engine from the persistent flags: task catalog,
// store backend, and logging.
func buildEngine(cmd *cobra.Command, opts ...parley.Option) (*parley.Engine, error) {
	registry, err := loadRegistry(cmd)
	if err != nil {
		return nil, err
	}

	store, locker, err := buildStore(cmd)
	if err != nil {
		return nil, err
	}

	logger := buildLogger(cmd)

	engineOpts := []parley.Option{
		parley.WithStore(store),
		parley.WithLogger(logger),
	}
	if locker != nil {
		engineOpts = append(engineOpts, parley.WithLocker(locker))
	}
	engineOpts = append(engineOpts, opts...)

	return parley.New(registry, engineOpts...)
}

// buildLogger constructs the CLI's stderr logger from the --log-level
// flag. An unrecognized level falls back to info.
func buildLogger(cmd *cobra.Command) *slog.Logger {
	name, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level)
}

func loadRegistry(cmd *cobra.Command) (*schema.Registry, error) {
	path, _ := cmd.Flags().GetString("tasks")
	if path == "" {
		return schema.Builtin(), nil
	}
	registry, err := schema.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load task catalog: %w", err)
	}
	return registry, nil
}

func buildStore(cmd *cobra.Command) (ports.StateStore, ports.DistributedLocker, error) {
	kind, _ := cmd.Flags().GetString("store")
	switch kind {
	case "memory":
		return memory.NewStore(), nil, nil

	case "file":
		dir, _ := cmd.Flags().GetString("data-dir")
		store, err := fileStore.NewStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		client := backend.NewClient(&backend.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})
		store := redisStore.NewFromClient(client, redisStore.WithTTL(ttl))
		locker := redisStore.NewLocker(client, "parley:")
		return store, locker, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s (supported: memory, file, redis)", kind)
	}
}
