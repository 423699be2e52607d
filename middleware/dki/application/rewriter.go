package application

import (
	"strings"

	"dki-gateway/middleware/dki/domain"
)

// Rewriter troca a cidade placeholder pela cidade resolvida no título e
// nos nós de texto visíveis do documento.
type Rewriter struct {
	Sink domain.DiagnosticSink
}

// hiddenParents são containers cujo texto nunca é inspecionado nem alterado.
var hiddenParents = map[string]bool{
	"script": true,
	"style":  true,
}

func (rw Rewriter) Rewrite(doc domain.Document, ph domain.Placeholder, resolved string) domain.RewriteResult {
	var out domain.RewriteResult
	if doc == nil || ph.Name == "" || resolved == "" || resolved == ph.Name {
		return out
	}
	upper := strings.ToUpper(resolved)

	if title, ok := doc.Title(); ok {
		if next := replaceCity(title, ph, resolved, upper); next != title {
			doc.SetTitle(next)
			out.TitleChanged = true
		}
	}

	// 1) coleta: nenhuma mutação durante a visita
	var targets []domain.TextNode
	doc.VisitText(func(n domain.TextNode) bool {
		if hiddenParents[n.ParentTag()] {
			return true
		}
		text := n.Text()
		if strings.Contains(text, ph.Name) || strings.Contains(text, ph.Upper) {
			targets = append(targets, n)
		}
		return true
	})

	if rw.Sink != nil {
		rw.Sink.Observe(domain.Diagnostic{Step: domain.StepRewrite, City: resolved, Count: len(targets)})
	}

	// 2) mutação
	for _, n := range targets {
		text := n.Text()
		next := replaceCity(text, ph, resolved, upper)
		if next == text {
			continue
		}
		n.SetText(next)
		out.TextNodes++
	}
	return out
}

// replaceCity aplica primeiro a forma exata e depois a maiúscula, ambas
// literais (nunca case-insensitive): "HornChurch" não casa com nenhuma.
func replaceCity(s string, ph domain.Placeholder, resolved, upper string) string {
	s = strings.ReplaceAll(s, ph.Name, resolved)
	if ph.Upper != "" {
		s = strings.ReplaceAll(s, ph.Upper, upper)
	}
	return s
}
