// Package domain define contratos e tipos de domínio para a personalização
// de conteúdo por localidade (DKI).
//
// Este pacote não depende de net/http nem de parser HTML.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura (DOM, Redis, arquivos).
package domain
