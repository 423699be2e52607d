package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"dki-gateway/middleware/dki/domain"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const DefaultSocialProofVar = "js_socialproof_vars"

// SocialProofScript liga o objeto `var <nome> = {...};` de um <script> inline
// ao contrato domain.SocialProof.
//
// Só popup_data[i].location.city é interpretado. No Flush apenas os valores de
// city alterados são trocados no texto; o resto do objeto fica byte a byte.
type SocialProofScript struct {
	node   *html.Node
	prefix string
	obj    string
	suffix string

	// uma posição por entrada de popup_data; nil = entrada sem location.city
	cities []*cityValue

	dirty bool
}

// cityValue aponta o literal JSON da cidade dentro de obj.
type cityValue struct {
	start, end int
	value      string
	changed    bool
}

var errNoObject = errors.New("social proof: object literal not found")

// BindSocialProof procura o script que define varName. Devolve nil quando o
// objeto não existe ou não é um JSON válido com popup_data.
func BindSocialProof(doc *HTMLDocument, varName string) *SocialProofScript {
	if varName == "" {
		varName = DefaultSocialProofVar
	}

	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(varName) + `\s*=\s*\{`)

	var found *SocialProofScript
	doc.Selection().Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n := s.Get(0)
		if n.FirstChild == nil || n.FirstChild.Type != html.TextNode {
			return true
		}
		sp, err := parseSocialProof(n.FirstChild, re)
		if err != nil {
			return true
		}
		found = sp
		return false
	})
	return found
}

func parseSocialProof(n *html.Node, re *regexp.Regexp) (*SocialProofScript, error) {
	src := n.Data
	loc := re.FindStringIndex(src)
	if loc == nil {
		return nil, errNoObject
	}
	start := loc[1] - 1

	sc := &cityScanner{src: src[start:], dec: json.NewDecoder(strings.NewReader(src[start:]))}
	tok, ts, te, err := sc.next()
	if err != nil {
		return nil, fmt.Errorf("social proof: decode: %w", err)
	}
	if err := sc.walk(tok, ts, te, nil); err != nil {
		return nil, fmt.Errorf("social proof: decode: %w", err)
	}
	if !sc.popup {
		return nil, errNoObject
	}
	end := start + int(sc.dec.InputOffset())

	return &SocialProofScript{
		node:   n,
		prefix: src[:start],
		obj:    src[start:end],
		suffix: src[end:],
		cities: sc.cities,
	}, nil
}

// cityScanner percorre o objeto token a token guardando onde cada
// popup_data[i].location.city começa e termina.
type cityScanner struct {
	src string
	dec *json.Decoder

	popup  bool
	entry  int
	cities []*cityValue
}

// next devolve o token e seu intervalo em src, sem separadores à esquerda.
func (sc *cityScanner) next() (json.Token, int, int, error) {
	start := int(sc.dec.InputOffset())
	tok, err := sc.dec.Token()
	if err == io.EOF {
		return nil, 0, 0, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, 0, 0, err
	}
	end := int(sc.dec.InputOffset())
	for start < end && strings.IndexByte(" \t\r\n,:", sc.src[start]) >= 0 {
		start++
	}
	return tok, start, end, nil
}

func (sc *cityScanner) walk(tok json.Token, start, end int, path []string) error {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			for {
				k, _, _, err := sc.next()
				if err != nil {
					return err
				}
				if d, ok := k.(json.Delim); ok && d == '}' {
					return nil
				}
				key, _ := k.(string)
				vt, vs, ve, err := sc.next()
				if err != nil {
					return err
				}
				if err := sc.walk(vt, vs, ve, append(path, key)); err != nil {
					return err
				}
			}
		case '[':
			inPopup := len(path) == 1 && path[0] == "popup_data"
			if inPopup {
				sc.popup = true
				sc.cities = sc.cities[:0]
			}
			for i := 0; ; i++ {
				t, ts, te, err := sc.next()
				if err != nil {
					return err
				}
				if d, ok := t.(json.Delim); ok && d == ']' {
					return nil
				}
				if inPopup {
					sc.entry = i
					sc.cities = append(sc.cities, nil)
				}
				if err := sc.walk(t, ts, te, append(path, "[]")); err != nil {
					return err
				}
			}
		}
	case string:
		if len(path) == 4 && path[0] == "popup_data" && path[1] == "[]" && path[2] == "location" && path[3] == "city" {
			// chave repetida: vale a última, como no JS
			sc.cities[sc.entry] = &cityValue{start: start, end: end, value: v}
		}
	}
	return nil
}

func (s *SocialProofScript) Entries() []domain.SocialProofEntry {
	out := make([]domain.SocialProofEntry, 0, len(s.cities))
	for i := range s.cities {
		out = append(out, socialEntry{s: s, i: i})
	}
	return out
}

// Dirty indica se alguma cidade foi alterada desde o bind (ou o último Flush).
func (s *SocialProofScript) Dirty() bool { return s.dirty }

// Flush grava as cidades alteradas de volta no texto do script.
func (s *SocialProofScript) Flush() error {
	if !s.dirty {
		return nil
	}

	var b strings.Builder
	last, shift := 0, 0
	for _, cv := range s.cities {
		if cv == nil {
			continue
		}
		start, end := cv.start, cv.end
		if !cv.changed {
			cv.start += shift
			cv.end += shift
			continue
		}
		// json.Marshal escapa <, > e &: o valor não fecha o <script>
		enc, err := json.Marshal(cv.value)
		if err != nil {
			return fmt.Errorf("social proof: encode city: %w", err)
		}
		b.WriteString(s.obj[last:start])
		b.Write(enc)
		last = end

		cv.start = start + shift
		cv.end = cv.start + len(enc)
		cv.changed = false
		shift += len(enc) - (end - start)
	}
	b.WriteString(s.obj[last:])
	s.obj = b.String()

	s.node.Data = s.prefix + s.obj + s.suffix
	s.dirty = false
	return nil
}

type socialEntry struct {
	s *SocialProofScript
	i int
}

func (e socialEntry) City() (string, bool) {
	cv := e.s.cities[e.i]
	if cv == nil {
		return "", false
	}
	return cv.value, true
}

func (e socialEntry) SetCity(city string) {
	cv := e.s.cities[e.i]
	if cv == nil {
		return
	}
	cv.value = city
	cv.changed = true
	e.s.dirty = true
}
