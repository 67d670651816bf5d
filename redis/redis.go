// Package redis persists sessions in Redis lists, one JSON-encoded message
// per element.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/chatstream"
	csjson "github.com/fwojciec/chatstream/json"
	"github.com/redis/go-redis/v9"
)

// Interface compliance checks.
var (
	_ chatstream.SessionStore  = (*Store)(nil)
	_ chatstream.SessionLoader = (*Store)(nil)
)

// DefaultPrefix namespaces session keys.
const DefaultPrefix = "chatstream:session:"

// Store is a Redis-backed session store.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a Store from cfg. An empty prefix means DefaultPrefix; a zero
// TTL means keys never expire.
func New(cfg chatstream.StoreConfig) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg.Prefix, cfg.TTL)
}

// NewWithClient creates a Store over an existing client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ReplaceMessages overwrites the stored conversation atomically.
func (s *Store) ReplaceMessages(ctx context.Context, sessionID string, msgs []chatstream.Message) error {
	values, err := encode(msgs)
	if err != nil {
		return err
	}
	key := s.key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
			s.expire(ctx, pipe, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: replace %s: %w", sessionID, err)
	}
	return nil
}

// AppendMessage adds one message after the stored ones.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg chatstream.Message) error {
	values, err := encode([]chatstream.Message{msg})
	if err != nil {
		return err
	}
	key := s.key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		s.expire(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: append %s: %w", sessionID, err)
	}
	return nil
}

// LoadMessages returns the stored conversation or
// chatstream.ErrSessionNotFound. A session replaced with no messages is
// indistinguishable from an unknown one.
func (s *Store) LoadMessages(ctx context.Context, sessionID string) ([]chatstream.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: load %s: %w", sessionID, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("redis: %s: %w", sessionID, chatstream.ErrSessionNotFound)
	}
	msgs := make([]chatstream.Message, len(raw))
	for i, r := range raw {
		m, err := csjson.DecodeMessage([]byte(r))
		if err != nil {
			return nil, fmt.Errorf("redis: message %d of %s: %w", i, sessionID, err)
		}
		msgs[i] = m
	}
	return msgs, nil
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

func encode(msgs []chatstream.Message) ([]any, error) {
	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		if m.IsStreaming {
			continue
		}
		data, err := csjson.EncodeMessage(m)
		if err != nil {
			return nil, fmt.Errorf("redis: encode message %s: %w", m.ID, err)
		}
		values = append(values, string(data))
	}
	return values, nil
}
