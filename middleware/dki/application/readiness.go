package application

import "sync"

type ReadyState int

const (
	StatePending ReadyState = iota
	StateReady
)

func (s ReadyState) String() string {
	if s == StateReady {
		return "ready"
	}
	return "pending"
}

// Readiness é um portão de uma só vez: pending -> ready.
//
// OnReady consulta o estado antes de se inscrever, então uma inscrição feita
// depois do sinal roda na hora (sem sinal perdido). Cada callback roda uma vez.
type Readiness struct {
	mu      sync.Mutex
	state   ReadyState
	waiting []func()
}

// NewReadiness cria o portão já no estado informado.
func NewReadiness(state ReadyState) *Readiness {
	return &Readiness{state: state}
}

func (g *Readiness) State() ReadyState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Readiness) OnReady(fn func()) {
	g.mu.Lock()
	if g.state == StateReady {
		g.mu.Unlock()
		fn()
		return
	}
	g.waiting = append(g.waiting, fn)
	g.mu.Unlock()
}

// MarkReady dispara os callbacks pendentes. Chamadas repetidas são no-op.
func (g *Readiness) MarkReady() {
	g.mu.Lock()
	if g.state == StateReady {
		g.mu.Unlock()
		return
	}
	g.state = StateReady
	waiting := g.waiting
	g.waiting = nil
	g.mu.Unlock()

	for _, fn := range waiting {
		fn()
	}
}
