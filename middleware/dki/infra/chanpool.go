package infra

import (
	"context"
	"sync"

	"dki-gateway/middleware/dki/domain"
)

type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um semáforo baseado em channel com capacidade `max`
// (número de respostas em reescrita ao mesmo tempo).
func NewChanPool(max int) domain.SlotPool {
	if max < 1 {
		max = 1
	}
	return &chanPool{sem: make(chan struct{}, max)}
}

// Acquire devolve um release idempotente: chamar duas vezes não libera
// uma vaga que pertence a outra request.
func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-p.sem }) }, true
	case <-ctx.Done():
		return nil, false
	}
}
