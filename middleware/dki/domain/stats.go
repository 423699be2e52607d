package domain

import (
	"context"
	"time"
)

// RewriteEvent representa uma execução do DKI sobre uma resposta.
//
// Observação: cuidado com cardinalidade (ex.: salvar RequestedID/Path sem
// controle pode explodir o número de séries/chaves em Redis/Prometheus).
type RewriteEvent struct {
	Reason      Reason
	RequestedID string
	City        string
	Aborted     bool

	TextNodes    int
	TitleChanged bool
	Entries      int

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do DKI.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O middleware trata erro como best-effort (não derruba a request).
type StatsStore interface {
	Record(ctx context.Context, ev RewriteEvent) error
}
