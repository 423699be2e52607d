package infra

import (
	"dki-gateway/middleware/dki/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LogSink implementa domain.DiagnosticSink em zap.
//
// Decisões normais saem em debug. Fallbacks (razão != resolved) saem em info,
// limitados por token-bucket (x/time/rate), um por razão, para que uma
// enxurrada de `?loc=` inválidos não inunde os logs.
type LogSink struct {
	log *zap.Logger

	limiters map[domain.Reason]*rate.Limiter
	// razões fora do conjunto conhecido dividem um único bucket
	other *rate.Limiter
}

type LogSinkOption func(*logSinkConfig)

type logSinkConfig struct {
	rps   rate.Limit
	burst int
}

// WithSinkRate define quantos logs de fallback por segundo (e rajada) passam por razão.
func WithSinkRate(rps float64, burst int) LogSinkOption {
	return func(c *logSinkConfig) {
		c.rps = rate.Limit(rps)
		c.burst = burst
	}
}

func NewLogSink(log *zap.Logger, opts ...LogSinkOption) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := logSinkConfig{rps: 1, burst: 5}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &LogSink{
		log:      log.Named("dki"),
		limiters: make(map[domain.Reason]*rate.Limiter, 3),
		other:    rate.NewLimiter(cfg.rps, cfg.burst),
	}
	for _, r := range []domain.Reason{
		domain.ReasonMissingIdentifier,
		domain.ReasonUnavailableTable,
		domain.ReasonUnknownIdentifier,
	} {
		s.limiters[r] = rate.NewLimiter(cfg.rps, cfg.burst)
	}
	return s
}

func (s *LogSink) Observe(d domain.Diagnostic) {
	fields := []zap.Field{
		zap.String("step", string(d.Step)),
		zap.String("city", d.City),
	}
	if d.Reason != "" {
		fields = append(fields, zap.String("reason", string(d.Reason)))
	}
	if d.RequestedID != "" {
		fields = append(fields, zap.String("loc", d.RequestedID))
	}
	if d.Step == domain.StepRewrite || d.Step == domain.StepSync || d.Step == domain.StepFinished {
		fields = append(fields, zap.Int("count", d.Count))
	}
	if d.Err != nil {
		fields = append(fields, zap.Error(d.Err))
	}

	fallback := d.Step == domain.StepResolve && d.Reason != domain.ReasonResolved
	if !fallback {
		s.log.Debug("dki decision", fields...)
		return
	}
	if s.limiter(d.Reason).Allow() {
		s.log.Info("dki fallback to default city", fields...)
	}
}

// o mapa é só lido depois do construtor; rate.Limiter já é seguro entre goroutines
func (s *LogSink) limiter(r domain.Reason) *rate.Limiter {
	if lim, ok := s.limiters[r]; ok {
		return lim
	}
	return s.other
}
