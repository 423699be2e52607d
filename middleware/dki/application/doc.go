// Package application contém os casos de uso do DKI: resolver a localidade,
// reescrever o documento, sincronizar o social proof e orquestrar os três.
//
// Ele depende apenas do pacote domain e não conhece net/http nem o parser HTML.
// Ex.: Orchestrator.Run(page) retorna um Report com a decisão e as mutações feitas.
package application
