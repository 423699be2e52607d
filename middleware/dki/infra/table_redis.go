package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisTableSource carrega a tabela de um hash Redis (HGETALL) para o holder.
//
// A reescrita só consulta o snapshot em memória; o Redis é lido apenas no
// Load e no refresh periódico.
type RedisTableSource struct {
	rdb    *redis.Client
	holder *TableHolder
	log    *zap.Logger

	key     string
	refresh time.Duration
	timeout time.Duration
}

type RedisTableOption func(*RedisTableSource)

func WithTableKey(key string) RedisTableOption {
	return func(s *RedisTableSource) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}

func WithTableRefresh(d time.Duration) RedisTableOption {
	return func(s *RedisTableSource) { s.refresh = d }
}

func WithTableLogger(l *zap.Logger) RedisTableOption {
	return func(s *RedisTableSource) {
		if l != nil {
			s.log = l
		}
	}
}

func NewRedisTableSource(rdb *redis.Client, holder *TableHolder, opts ...RedisTableOption) *RedisTableSource {
	s := &RedisTableSource{
		rdb:     rdb,
		holder:  holder,
		log:     zap.NewNop(),
		key:     "dki:locations",
		refresh: 5 * time.Minute,
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load lê o hash inteiro. Hash inexistente vira tabela vazia (carregada),
// erro de conexão mantém a tabela anterior.
func (s *RedisTableSource) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	m, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}
	s.holder.Store(m)
	s.log.Debug("locality table refreshed", zap.String("key", s.key), zap.Int("entries", s.holder.Len()))
	return nil
}

// StartRefresher recarrega a tabela periodicamente. Pare cancelando o contexto.
func (s *RedisTableSource) StartRefresher(ctx context.Context) {
	if s.refresh <= 0 {
		return
	}

	t := time.NewTicker(s.refresh)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := s.Load(ctx); err != nil {
					s.log.Warn("locality table refresh failed", zap.String("key", s.key), zap.Error(err))
				}
			}
		}
	}()
}
