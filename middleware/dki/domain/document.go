package domain

// Document é o alvo da reescrita: o título e os nós de texto do body.
//
// A implementação concreta (infra) usa golang.org/x/net/html, mas o domínio
// só enxerga este contrato.
type Document interface {
	// Title devolve o título e se o elemento existe.
	Title() (string, bool)
	SetTitle(string)
	// VisitText percorre os nós de texto sob o body em ordem de documento.
	// Retornar false interrompe a visita.
	VisitText(fn func(TextNode) bool)
}

type TextNode interface {
	Text() string
	SetText(string)
	// ParentTag é o nome (minúsculo) do elemento ancestral mais próximo.
	ParentTag() string
}

// SocialProof é o objeto externo com a lista de popups (popup_data).
// O sistema não é dono do ciclo de vida dele: só lê e sobrescreve a cidade.
type SocialProof interface {
	Entries() []SocialProofEntry
}

type SocialProofEntry interface {
	// City devolve location.city e se o campo existe.
	City() (string, bool)
	SetCity(string)
}

// RewriteResult resume as mutações feitas no documento.
type RewriteResult struct {
	TitleChanged bool
	// TextNodes é o número de nós de texto efetivamente alterados.
	TextNodes int
}

// Report é o resultado de uma execução completa (resolver, rewriter, synchronizer).
type Report struct {
	Resolution Resolution
	Rewrite    RewriteResult
	// Entries é o número de entradas de social proof sincronizadas.
	Entries int
	// SocialProofMissing indica que o objeto externo não estava presente.
	SocialProofMissing bool
}
