package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dki-gateway/middleware/dki/domain"

	"github.com/redis/go-redis/v9"
)

type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "dki:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// reasonField converte a razão em um campo de hash sem espaços.
func reasonField(r domain.Reason) string {
	switch r {
	case domain.ReasonResolved:
		return "resolved"
	case domain.ReasonMissingIdentifier:
		return "missing_identifier"
	case domain.ReasonUnavailableTable:
		return "unavailable_table"
	case domain.ReasonUnknownIdentifier:
		return "unknown_identifier"
	}
	return "other"
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.RewriteEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := reasonField(ev.Reason)
	totalKey := s.prefix + ":total"

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, totalKey, field, 1)
	pipe.HIncrBy(ctx, totalKey, "text_nodes", int64(ev.TextNodes))
	pipe.HIncrBy(ctx, totalKey, "entries", int64(ev.Entries))
	if ev.Aborted {
		pipe.HIncrBy(ctx, totalKey, "aborted", 1)
	}

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	// cidades resolvidas vêm da tabela, então a cardinalidade é limitada
	if ev.Reason == domain.ReasonResolved && strings.TrimSpace(ev.City) != "" {
		pipe.HIncrBy(ctx, s.prefix+":city", strings.TrimSpace(ev.City), 1)
	}

	_, err := pipe.Exec(ctx)
	return err
}
