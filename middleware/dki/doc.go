// Package dki fornece o middleware HTTP (net/http) que personaliza páginas
// HTML pela localidade informada na query (dynamic keyword insertion).
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (tabela, documento, social proof, estatísticas)
//   - application: casos de uso (resolver, rewriter, synchronizer, orquestrador)
//   - infra: DOM (x/net/html + goquery), fontes da tabela, stats, logs
//   - dki (este pacote): middleware HTTP + captura da resposta + headers
//
// Fluxo no gateway:
//
//   1) Deixa o próximo handler (ex: reverse proxy) produzir a resposta
//   2) Se for GET 200 text/html sem compressão, guarda o corpo em memória
//   3) Resolve a cidade via ?loc= e troca o placeholder no título, no texto
//      visível e no objeto js_socialproof_vars
//   4) Responde o HTML reescrito (ou o original, se nada mudou)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como DKI_PLACEHOLDER, DKI_DEFAULT_CITY, DKI_ON_UNRESOLVED e DKI_TABLE_FILE.
package dki
