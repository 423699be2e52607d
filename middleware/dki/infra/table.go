package infra

import (
	"strings"
	"sync/atomic"

	"dki-gateway/middleware/dki/domain"
)

// MapTable é a tabela de localidades em memória. Somente leitura depois de criada.
type MapTable map[string]string

func (m MapTable) Lookup(id string) (string, bool) {
	v, ok := m[id]
	return v, ok
}

// normalizeTable descarta chaves vazias e espaços nas bordas.
func normalizeTable(in map[string]string) MapTable {
	out := make(MapTable, len(in))
	for k, v := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// TableHolder guarda a tabela vigente e permite trocá-la atomicamente
// enquanto requests leem. Zero value = nenhuma tabela carregada.
type TableHolder struct {
	cur atomic.Pointer[MapTable]
}

func NewTableHolder(initial map[string]string) *TableHolder {
	h := &TableHolder{}
	if initial != nil {
		h.Store(initial)
	}
	return h
}

// Current implementa domain.TableProvider. Devolve nil (interface nil) quando
// nada foi carregado, o que o resolver trata como tabela ausente.
func (h *TableHolder) Current() domain.LocalityTable {
	if h == nil {
		return nil
	}
	t := h.cur.Load()
	if t == nil {
		return nil
	}
	return *t
}

func (h *TableHolder) Store(m map[string]string) {
	t := normalizeTable(m)
	h.cur.Store(&t)
}

// Clear volta ao estado "não carregada".
func (h *TableHolder) Clear() { h.cur.Store(nil) }

func (h *TableHolder) Len() int {
	t := h.cur.Load()
	if t == nil {
		return 0
	}
	return len(*t)
}
