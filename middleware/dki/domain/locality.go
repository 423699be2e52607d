package domain

import (
	"errors"
	"strings"
)

// LocalityTable mapeia um identificador de localidade (ex: "RM1") para o
// nome de cidade exibido.
//
// Uma tabela nil significa "não carregada".
type LocalityTable interface {
	Lookup(id string) (string, bool)
}

// TableProvider devolve a tabela vigente, ou nil quando nenhuma foi carregada.
type TableProvider interface {
	Current() LocalityTable
}

// UnresolvedPolicy decide o que fazer quando a localidade não resolve.
type UnresolvedPolicy string

const (
	FallbackToDefault UnresolvedPolicy = "fallback-to-default"
	Abort             UnresolvedPolicy = "abort"
)

// ParsePolicy aceita os nomes canônicos; qualquer outro valor vira FallbackToDefault.
func ParsePolicy(s string) UnresolvedPolicy {
	if UnresolvedPolicy(strings.ToLower(strings.TrimSpace(s))) == Abort {
		return Abort
	}
	return FallbackToDefault
}

type Reason string

const (
	ReasonMissingIdentifier Reason = "no identifier provided"
	ReasonUnavailableTable  Reason = "lookup table missing"
	ReasonUnknownIdentifier Reason = "unknown identifier"
	ReasonResolved          Reason = "resolved"
)

var (
	ErrMissingIdentifier   = errors.New("dki: no locality identifier provided")
	ErrUnavailableTable    = errors.New("dki: locality table not loaded")
	ErrUnknownIdentifier   = errors.New("dki: unknown locality identifier")
	ErrMissingExternalData = errors.New("dki: social proof data not present")
)

// Err devolve o erro sentinela da razão (nil para ReasonResolved).
// Nenhum desses erros é fatal: todos levam ao conteúdo padrão.
func (r Reason) Err() error {
	switch r {
	case ReasonMissingIdentifier:
		return ErrMissingIdentifier
	case ReasonUnavailableTable:
		return ErrUnavailableTable
	case ReasonUnknownIdentifier:
		return ErrUnknownIdentifier
	}
	return nil
}

// Resolution é o contexto efêmero de uma execução (uma resposta HTML).
type Resolution struct {
	RequestedID    string
	HasRequestedID bool
	TableAvailable bool

	// Name nunca é vazio, mesmo quando Abort=true.
	Name   string
	Reason Reason
	Abort  bool
}

func (r Resolution) Err() error { return r.Reason.Err() }

// Placeholder é a cidade fixa no conteúdo estático da página e sua forma maiúscula.
type Placeholder struct {
	Name  string
	Upper string
}

func NewPlaceholder(name string) Placeholder {
	name = strings.TrimSpace(name)
	return Placeholder{Name: name, Upper: strings.ToUpper(name)}
}
