package application

import (
	"dki-gateway/middleware/dki/domain"
)

type mapTable map[string]string

func (m mapTable) Lookup(id string) (string, bool) {
	v, ok := m[id]
	return v, ok
}

type fakeText struct {
	text   string
	parent string
	writes int
}

func (n *fakeText) Text() string { return n.text }
func (n *fakeText) ParentTag() string { return n.parent }
func (n *fakeText) SetText(s string) {
	n.writes++
	n.text = s
}

type fakeDoc struct {
	title    string
	hasTitle bool
	nodes    []*fakeText
	// visiting fica true durante VisitText; SetText durante a visita é bug.
	visiting    bool
	mutatedLive bool
}

func newFakeDoc(title string, nodes ...*fakeText) *fakeDoc {
	return &fakeDoc{title: title, hasTitle: true, nodes: nodes}
}

func (d *fakeDoc) Title() (string, bool) { return d.title, d.hasTitle }
func (d *fakeDoc) SetTitle(s string) { d.title = s }

func (d *fakeDoc) VisitText(fn func(domain.TextNode) bool) {
	d.visiting = true
	defer func() { d.visiting = false }()
	for _, n := range d.nodes {
		before := n.writes
		if !fn(n) {
			return
		}
		if n.writes != before {
			d.mutatedLive = true
		}
	}
}

func (d *fakeDoc) writes() int {
	total := 0
	for _, n := range d.nodes {
		total += n.writes
	}
	return total
}

func text(s string) *fakeText { return &fakeText{text: s, parent: "p"} }

func textIn(parent, s string) *fakeText { return &fakeText{text: s, parent: parent} }

type fakeEntry struct {
	city    string
	hasCity bool
}

func (e *fakeEntry) City() (string, bool) { return e.city, e.hasCity }
func (e *fakeEntry) SetCity(s string) { e.city = s }

type fakeSocialProof []*fakeEntry

func (f fakeSocialProof) Entries() []domain.SocialProofEntry {
	out := make([]domain.SocialProofEntry, 0, len(f))
	for _, e := range f {
		out = append(out, e)
	}
	return out
}

func entry(city string) *fakeEntry { return &fakeEntry{city: city, hasCity: true} }

type recordingSink struct {
	got []domain.Diagnostic
}

func (s *recordingSink) Observe(d domain.Diagnostic) { s.got = append(s.got, d) }

func (s *recordingSink) steps() []domain.Step {
	out := make([]domain.Step, 0, len(s.got))
	for _, d := range s.got {
		out = append(out, d.Step)
	}
	return out
}
