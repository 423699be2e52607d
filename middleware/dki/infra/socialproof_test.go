package infra

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const socialProofPage = `<html><head><title>t</title></head><body>
<script>var other = {"popup_data":[]};</script>
<script id="sp-js-extra">
/* <![CDATA[ */
var js_socialproof_vars = {"popup_data":[{"name":"Anna","location":{"city":"Hornchurch","country":"UK"}},{"name":"Bob","location":{"city":"Romford"}},{"name":"Cid"}],"delay":"5"};
/* ]]> */
</script>
</body></html>`

func scriptText(t *testing.T, doc *HTMLDocument, id string) string {
	t.Helper()
	return doc.Selection().Find("script#" + id).Text()
}

func TestBindSocialProof_ReadsCities(t *testing.T) {
	doc := parse(t, socialProofPage)

	sp := BindSocialProof(doc, "")
	require.NotNil(t, sp)

	entries := sp.Entries()
	require.Len(t, entries, 3)

	city, ok := entries[0].City()
	assert.True(t, ok)
	assert.Equal(t, "Hornchurch", city)

	city, ok = entries[1].City()
	assert.True(t, ok)
	assert.Equal(t, "Romford", city)

	_, ok = entries[2].City()
	assert.False(t, ok)
}

func TestBindSocialProof_FlushRewritesOnlyScriptObject(t *testing.T) {
	doc := parse(t, socialProofPage)
	sp := BindSocialProof(doc, DefaultSocialProofVar)
	require.NotNil(t, sp)

	sp.Entries()[0].SetCity("Ilford")
	require.True(t, sp.Dirty())
	require.NoError(t, sp.Flush())
	assert.False(t, sp.Dirty())

	src := scriptText(t, doc, "sp-js-extra")
	assert.Contains(t, src, "/* <![CDATA[ */")
	assert.Contains(t, src, "/* ]]> */")

	start := strings.Index(src, "{")
	end := strings.LastIndex(src, "}")
	var got struct {
		PopupData []struct {
			Name     string `json:"name"`
			Location *struct {
				City    string `json:"city"`
				Country string `json:"country"`
			} `json:"location"`
		} `json:"popup_data"`
		Delay string `json:"delay"`
	}
	require.NoError(t, json.Unmarshal([]byte(src[start:end+1]), &got))
	require.Len(t, got.PopupData, 3)
	assert.Equal(t, "Ilford", got.PopupData[0].Location.City)
	assert.Equal(t, "UK", got.PopupData[0].Location.Country)
	assert.Equal(t, "Romford", got.PopupData[1].Location.City)
	assert.Nil(t, got.PopupData[2].Location)
	assert.Equal(t, "5", got.Delay)
}

func TestBindSocialProof_UnchangedScriptIsNotReencoded(t *testing.T) {
	doc := parse(t, socialProofPage)
	before := scriptText(t, doc, "sp-js-extra")

	sp := BindSocialProof(doc, "")
	require.NotNil(t, sp)
	require.NoError(t, sp.Flush())

	assert.Equal(t, before, scriptText(t, doc, "sp-js-extra"))
}

func TestBindSocialProof_Absent(t *testing.T) {
	assert.Nil(t, BindSocialProof(parse(t, `<body><script>var x = 1;</script></body>`), ""))
	assert.Nil(t, BindSocialProof(parse(t, `<body><script>var js_socialproof_vars = {"delay":1};</script></body>`), ""))
	assert.Nil(t, BindSocialProof(parse(t, `<body><script>var js_socialproof_vars = {broken</script></body>`), ""))
}

func TestBindSocialProof_WindowAssignment(t *testing.T) {
	doc := parse(t, `<body><script>window.js_socialproof_vars={"popup_data":[{"location":{"city":"Hornchurch"}}]};</script></body>`)

	sp := BindSocialProof(doc, "")
	require.NotNil(t, sp)
	city, ok := sp.Entries()[0].City()
	assert.True(t, ok)
	assert.Equal(t, "Hornchurch", city)
}

func TestBindSocialProof_FlushKeepsUnrelatedBytes(t *testing.T) {
	doc := parse(t, `<body><script id="sp">var js_socialproof_vars = {"zeta":1, "popup_data":[{"name":"<b>Sarah</b> & co","location":{"city":"Hornchurch"}},{"location":{ "city" : "Upminster","note":"é"}}],"alpha":"a"};</script></body>`)
	before := scriptText(t, doc, "sp")

	sp := BindSocialProof(doc, "")
	require.NotNil(t, sp)
	entries := sp.Entries()
	require.Len(t, entries, 2)

	entries[0].SetCity("Ilford")
	require.NoError(t, sp.Flush())
	want := strings.Replace(before, `"city":"Hornchurch"`, `"city":"Ilford"`, 1)
	assert.Equal(t, want, scriptText(t, doc, "sp"))

	// segunda troca depois do primeiro Flush usa as posições já deslocadas
	entries[1].SetCity("Gidea Park")
	require.NoError(t, sp.Flush())
	want = strings.Replace(want, `"city" : "Upminster"`, `"city" : "Gidea Park"`, 1)
	assert.Equal(t, want, scriptText(t, doc, "sp"))

	city, ok := entries[1].City()
	assert.True(t, ok)
	assert.Equal(t, "Gidea Park", city)
}

func TestBindSocialProof_FlushEscapesMarkupInCity(t *testing.T) {
	doc := parse(t, `<body><script id="sp">var js_socialproof_vars = {"popup_data":[{"location":{"city":"Hornchurch"}}]};</script></body>`)

	sp := BindSocialProof(doc, "")
	require.NotNil(t, sp)
	sp.Entries()[0].SetCity("</script>")
	require.NoError(t, sp.Flush())

	assert.Equal(t, `var js_socialproof_vars = {"popup_data":[{"location":{"city":"\u003c/script\u003e"}}]};`, scriptText(t, doc, "sp"))
}
