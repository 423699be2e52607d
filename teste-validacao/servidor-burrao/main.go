package main

import (
	"fmt"
	"net/http"
)

// Página de marketing com o placeholder fixo, para validar o gateway à mão:
//
//	UPSTREAM_URL=http://localhost:8081 DKI_ADD_HEADERS=true go run ./cmd/gateway
//	curl -i 'http://localhost:8080/?loc=RM1'
const pagina = `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8">
<title>Emergency Locksmith in Hornchurch | HORNCHURCH 24/7</title>
<style>.hero-Hornchurch { background: #222 }</style>
</head><body>
<h1>HORNCHURCH LOCKSMITHS</h1>
<p>Locked out in Hornchurch? We arrive in 30 minutes.</p>
<div class="gallery-grid">
  <div class="gallery-item" data-full="/img/hornchurch-1.jpg" title="Hornchurch lock change"><img src="/img/t1.jpg" alt=""></div>
</div>
<script>var analyticsTown = "Hornchurch";</script>
<script id="social-proof-js-extra">
var js_socialproof_vars = {"popup_data":[{"name":"Sarah","location":{"city":"Hornchurch"}},{"name":"Tom","location":{"city":"Upminster"}}]};
</script>
</body></html>`

func main() {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, pagina)
		fmt.Println("Log: Alguém acessou", r.URL.String())
	})
	fmt.Println("Servidor rodando em http://localhost:8081")
	err := http.ListenAndServe(":8081", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
