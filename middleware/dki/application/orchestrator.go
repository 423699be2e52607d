package application

import (
	"errors"
	"net/url"

	"dki-gateway/middleware/dki/domain"
)

// Page agrupa as dependências de uma execução. Nada vem de estado global:
// tabela e social proof são injetados por quem chama.
type Page struct {
	Query       url.Values
	Table       domain.LocalityTable
	Document    domain.Document
	SocialProof domain.SocialProof
}

// Orchestrator executa Resolver -> Rewriter -> Synchronizer, nessa ordem,
// uma vez por página.
type Orchestrator struct {
	Placeholder  domain.Placeholder
	DefaultCity  string
	Param        string
	OnUnresolved domain.UnresolvedPolicy
	Sink         domain.DiagnosticSink
}

// Attach agenda uma execução para quando o portão ficar pronto.
// done (opcional) recebe o Report.
func (o Orchestrator) Attach(gate *Readiness, page Page, done func(domain.Report)) {
	gate.OnReady(func() {
		rep := o.Run(page)
		if done != nil {
			done(rep)
		}
	})
}

func (o Orchestrator) Run(page Page) domain.Report {
	defaultCity := o.DefaultCity
	if defaultCity == "" {
		defaultCity = o.Placeholder.Name
	}

	res := Resolver{
		Param:        o.Param,
		DefaultCity:  defaultCity,
		OnUnresolved: o.OnUnresolved,
		Sink:         o.Sink,
	}.Resolve(page.Query, page.Table)

	rep := domain.Report{Resolution: res}
	if res.Abort {
		o.finish(rep)
		return rep
	}

	rep.Rewrite = Rewriter{Sink: o.Sink}.Rewrite(page.Document, o.Placeholder, res.Name)

	n, err := Synchronizer{Sink: o.Sink}.Sync(page.SocialProof, o.Placeholder, res.Name)
	rep.Entries = n
	rep.SocialProofMissing = errors.Is(err, domain.ErrMissingExternalData)

	o.finish(rep)
	return rep
}

func (o Orchestrator) finish(rep domain.Report) {
	if o.Sink == nil {
		return
	}
	o.Sink.Observe(domain.Diagnostic{
		Step:        domain.StepFinished,
		Reason:      rep.Resolution.Reason,
		RequestedID: rep.Resolution.RequestedID,
		City:        rep.Resolution.Name,
		Count:       rep.Rewrite.TextNodes,
	})
}
