package dki

import (
	"bytes"
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"dki-gateway/middleware/dki/application"
	"dki-gateway/middleware/dki/domain"
	"dki-gateway/middleware/dki/infra"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
)

const DefaultMaxBodyBytes = 2 << 20

type Options struct {
	// Placeholder é a cidade fixa no HTML estático (ex: "Hornchurch").
	Placeholder string
	// DefaultCity é usada no fallback. Vazio = Placeholder (nada muda).
	DefaultCity  string
	Param        string
	OnUnresolved domain.UnresolvedPolicy

	Tables         domain.TableProvider
	SocialProofVar string

	Stats  domain.StatsStore
	Sink   domain.DiagnosticSink
	Logger *zap.Logger

	MaxBodyBytes   int64
	MaxConcurrent  int
	AcquireTimeout time.Duration
	AddDKIHeaders  bool
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.SocialProofVar == "" {
		opts.SocialProofVar = infra.DefaultSocialProofVar
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	placeholder := domain.NewPlaceholder(opts.Placeholder)
	orch := application.Orchestrator{
		Placeholder:  placeholder,
		DefaultCity:  opts.DefaultCity,
		Param:        opts.Param,
		OnUnresolved: opts.OnUnresolved,
		Sink:         opts.Sink,
	}

	var pool domain.SlotPool
	if opts.MaxConcurrent > 0 {
		pool = infra.NewChanPool(opts.MaxConcurrent)
	}

	return func(next http.Handler) http.Handler {
		if placeholder.Name == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// upgrade (websocket) precisa do writer original para o Hijack
			if r.Method != http.MethodGet || isUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}

			// o corpo precisa vir sem compressão para ser reescrito; assets seguem comprimidos
			if wantsHTML(r) {
				r = r.Clone(r.Context())
				r.Header.Del("Accept-Encoding")
			}

			var release func()
			cw := newCaptureWriter(w, opts.MaxBodyBytes, func() bool {
				rel, ok := acquireSlot(r.Context(), pool, opts.AcquireTimeout)
				if !ok {
					opts.Logger.Warn("dki: no rewrite slot, serving default content", zap.String("path", r.URL.Path))
					return false
				}
				release = rel
				return true
			})
			defer func() {
				if release != nil {
					release()
				}
			}()

			next.ServeHTTP(cw, r)

			body, ok := cw.buffered()
			if !ok {
				return
			}

			out, rep, err := personalize(orch, opts, r, body)
			if err != nil {
				opts.Logger.Warn("dki: rewrite failed, serving original", zap.String("path", r.URL.Path), zap.Error(err))
				out = body
			}

			h := w.Header()
			h.Set("Content-Length", formatInt(len(out)))
			if !bytes.Equal(out, body) {
				h.Del("ETag")
			}
			if opts.AddDKIHeaders && err == nil {
				h.Set("X-DKI-City", rep.Resolution.Name)
				h.Set("X-DKI-Reason", string(rep.Resolution.Reason))
				h.Set("X-DKI-Rewrites", formatInt(rep.Rewrite.TextNodes))
			}
			w.WriteHeader(cw.status)
			_, _ = w.Write(out)

			if opts.Stats != nil && err == nil {
				recordStats(r.Context(), opts, r, rep)
			}
		})
	}
}

// acquireSlot espera uma vaga de reescrita. Com timeout <= 0 espera até o ctx
// cancelar. Sem pool não há limite.
func acquireSlot(ctx context.Context, pool domain.SlotPool, timeout time.Duration) (func(), bool) {
	if pool == nil {
		return func() {}, true
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return pool.Acquire(ctx)
}

func isUpgrade(r *http.Request) bool {
	return r.Header.Get("Upgrade") != "" || httpguts.HeaderValuesContainsToken(r.Header["Connection"], "upgrade")
}

// wantsHTML adivinha se a resposta pode ser uma página: navegação do browser
// (Accept com text/html) ou caminho sem extensão / .html.
func wantsHTML(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		return true
	}
	switch strings.ToLower(path.Ext(r.URL.Path)) {
	case "", ".html", ".htm":
		return true
	}
	return false
}

// personalize roda uma execução do DKI sobre o HTML bufferizado.
// Sem nenhuma mutação, devolve o corpo original byte a byte.
func personalize(orch application.Orchestrator, opts Options, r *http.Request, body []byte) ([]byte, domain.Report, error) {
	// pending até o documento terminar de ser parseado
	gate := application.NewReadiness(application.StatePending)

	doc, err := infra.ParseDocument(bytes.NewReader(body))
	if err != nil {
		return nil, domain.Report{}, err
	}

	page := application.Page{
		Query:    r.URL.Query(),
		Document: doc,
	}
	if opts.Tables != nil {
		page.Table = opts.Tables.Current()
	}
	sp := infra.BindSocialProof(doc, opts.SocialProofVar)
	if sp != nil {
		page.SocialProof = sp
	}

	var rep domain.Report
	orch.Attach(gate, page, func(got domain.Report) { rep = got })
	gate.MarkReady()

	if sp != nil {
		if err := sp.Flush(); err != nil {
			return nil, rep, err
		}
	}
	if !rep.Rewrite.TitleChanged && rep.Rewrite.TextNodes == 0 && rep.Entries == 0 {
		return body, rep, nil
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, rep, err
	}
	return out, rep, nil
}

func recordStats(ctx context.Context, opts Options, r *http.Request, rep domain.Report) {
	err := opts.Stats.Record(ctx, domain.RewriteEvent{
		Reason:       rep.Resolution.Reason,
		RequestedID:  rep.Resolution.RequestedID,
		City:         rep.Resolution.Name,
		Aborted:      rep.Resolution.Abort,
		TextNodes:    rep.Rewrite.TextNodes,
		TitleChanged: rep.Rewrite.TitleChanged,
		Entries:      rep.Entries,
		Method:       r.Method,
		Path:         r.URL.Path,
		At:           time.Now(),
	})
	if err != nil {
		opts.Logger.Debug("dki: stats record failed", zap.Error(err))
	}
}
