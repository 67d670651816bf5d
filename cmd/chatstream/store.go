package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/chatstream"
	csjson "github.com/fwojciec/chatstream/json"
	"github.com/fwojciec/chatstream/redis"
	"github.com/fwojciec/chatstream/sqlite"
)

// sessionStore is the opened session store. Both fields are nil when
// persistence is disabled.
type sessionStore struct {
	chatstream.SessionStore
	chatstream.SessionLoader
	closer io.Closer
}

func (s sessionStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// openStore opens the store selected by cfg. dir is the default location for
// file-backed stores when cfg.Path is empty.
func openStore(ctx context.Context, cfg chatstream.StoreConfig, dir string) (sessionStore, error) {
	switch cfg.Kind {
	case "", "none":
		return sessionStore{}, nil
	case "json":
		path := cfg.Path
		if path == "" {
			path = dir
		}
		s := csjson.New(path)
		return sessionStore{SessionStore: s, SessionLoader: s}, nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(dir, "sessions.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return sessionStore{}, fmt.Errorf("create sqlite directory: %w", err)
		}
		s, err := sqlite.Open(ctx, path)
		if err != nil {
			return sessionStore{}, fmt.Errorf("open sqlite store: %w", err)
		}
		return sessionStore{SessionStore: s, SessionLoader: s, closer: s}, nil
	case "redis":
		s := redis.New(cfg)
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return sessionStore{}, fmt.Errorf("connect redis store: %w", err)
		}
		return sessionStore{SessionStore: s, SessionLoader: s, closer: s}, nil
	default:
		return sessionStore{}, fmt.Errorf("unknown store %q: %w", cfg.Kind, chatstream.ErrValidation)
	}
}
