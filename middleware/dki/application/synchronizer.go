package application

import (
	"dki-gateway/middleware/dki/domain"
)

// Synchronizer mantém a cidade das entradas de social proof consistente com
// a cidade resolvida.
type Synchronizer struct {
	Sink domain.DiagnosticSink
}

// Sync devolve o número de entradas sobrescritas. Sem objeto externo, devolve
// domain.ErrMissingExternalData (não fatal: o passo é só pulado).
func (s Synchronizer) Sync(sp domain.SocialProof, ph domain.Placeholder, resolved string) (int, error) {
	if sp == nil {
		if s.Sink != nil {
			s.Sink.Observe(domain.Diagnostic{Step: domain.StepSync, City: resolved, Err: domain.ErrMissingExternalData})
		}
		return 0, domain.ErrMissingExternalData
	}

	updated := 0
	if resolved != "" && resolved != ph.Name {
		for _, e := range sp.Entries() {
			if e == nil {
				continue
			}
			// igualdade exata, sem match parcial
			if city, ok := e.City(); ok && city == ph.Name {
				e.SetCity(resolved)
				updated++
			}
		}
	}

	if s.Sink != nil {
		s.Sink.Observe(domain.Diagnostic{Step: domain.StepSync, City: resolved, Count: updated})
	}
	return updated, nil
}
