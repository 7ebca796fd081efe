package browser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Student One", "'Student One'"},
		{"O'Brien Tutoring", `"O'Brien Tutoring"`},
		{`Say "hi" to O'Neil`, `concat('Say "hi" to O', "'", 'Neil')`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, XPathLiteral(tt.in))
		})
	}
}

func TestSelector_Constructors(t *testing.T) {
	assert.Equal(t, Selector{Query: "#openMenu", Kind: KindCSS}, ID("openMenu"))
	assert.Equal(t, KindXPath, XPath("//input").Kind)
	assert.True(t, Selector{}.IsZero())

	named := CSS("#store").Named("store field")
	assert.Equal(t, "store field(css #store)", named.String())
	assert.Equal(t, "css #store", CSS("#store").String())
}

func TestSelector_JSONOmitsLabel(t *testing.T) {
	data, err := json.Marshal(XPath("//a").Named("link"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"//a","kind":"xpath"}`, string(data))
}

func TestBuildScript(t *testing.T) {
	script, err := buildScript(`function(sel, n) { return n; }`, CSS("#x"), 3)
	require.NoError(t, err)

	assert.Contains(t, script, `function __resolve(sel)`)
	assert.Contains(t, script, `(function(sel, n) { return n; })({"query":"#x","kind":"css"}, 3)`)

	_, err = buildScript(`function(x) {}`, make(chan int))
	assert.Error(t, err)
}
