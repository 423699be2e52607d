package application

import (
	"net/url"
	"strings"

	"dki-gateway/middleware/dki/domain"
)

const DefaultParam = "loc"

// Resolver aplica a cadeia de fallback da localidade.
//
// Ele é uma função pura da query e da tabela; Sink só observa.
type Resolver struct {
	Param        string
	DefaultCity  string
	OnUnresolved domain.UnresolvedPolicy
	Sink         domain.DiagnosticSink
}

func (r Resolver) Resolve(query url.Values, table domain.LocalityTable) domain.Resolution {
	param := r.Param
	if param == "" {
		param = DefaultParam
	}

	res := domain.Resolution{
		Name:           r.DefaultCity,
		TableAvailable: table != nil,
	}
	res.RequestedID = strings.TrimSpace(query.Get(param))
	res.HasRequestedID = res.RequestedID != ""

	// primeira regra que casar vence
	switch {
	case !res.HasRequestedID:
		res.Reason = domain.ReasonMissingIdentifier
	case table == nil:
		res.Reason = domain.ReasonUnavailableTable
	default:
		name, ok := table.Lookup(res.RequestedID)
		if ok && name != "" {
			res.Name = name
			res.Reason = domain.ReasonResolved
		} else {
			res.Reason = domain.ReasonUnknownIdentifier
		}
	}

	if res.Reason != domain.ReasonResolved && r.OnUnresolved == domain.Abort {
		res.Abort = true
	}

	if r.Sink != nil {
		r.Sink.Observe(domain.Diagnostic{
			Step:        domain.StepResolve,
			Reason:      res.Reason,
			RequestedID: res.RequestedID,
			City:        res.Name,
			Err:         res.Err(),
		})
	}
	return res
}
