package payloads

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSizes(t *testing.T) {
	assert.Len(t, SQL(SQLTime), 4)
	assert.Len(t, SQL(SQLError), 3)
	assert.Len(t, SQL(SQLUnion), 3)
	assert.Len(t, SQL(SQLBlind), 4)
	assert.Len(t, SQL(""), 14)
	assert.Len(t, XSS(), 13)
	assert.Len(t, Command(), 13)
	assert.Len(t, CommandTiming(), 4)
	assert.Len(t, Traversal(), 8)
	assert.Len(t, XXE(), 3)
	assert.Len(t, SSRF(), 7)
	assert.Len(t, Redirect(), 6)
}

func TestCatalogReturnsCopies(t *testing.T) {
	x := XSS()
	x[0] = "mutated"
	assert.NotEqual(t, "mutated", XSS()[0])
}

func TestSampleXSS(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	got := SampleXSS(r, 5)
	require.Len(t, got, 5)

	seen := map[string]bool{}
	for _, p := range got {
		assert.Contains(t, xssPayloads, p)
		assert.False(t, seen[p], "sample should not repeat %q", p)
		seen[p] = true
	}

	assert.Len(t, SampleXSS(r, 100), len(xssPayloads))
	assert.Empty(t, SampleXSS(r, 0))
}

func TestSampleXSS_Deterministic(t *testing.T) {
	a := SampleXSS(rand.New(rand.NewSource(42)), 5)
	b := SampleXSS(rand.New(rand.NewSource(42)), 5)
	assert.Equal(t, a, b)
}

func TestForContext(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	id := ForContext("user_id", r)
	assert.Equal(t, append(First(SQL(SQLTime), 3), First(SQL(SQLUnion), 2)...), id)

	search := ForContext("Q", r)
	require.Len(t, search, 5)
	assert.Equal(t, First(SQL(SQLBlind), 2), search[3:])

	assert.Equal(t, Redirect(), ForContext("redirect", r))
	assert.Equal(t, Traversal(), ForContext("filename", r))

	def := ForContext("color", r)
	require.Len(t, def, 4)
	assert.Equal(t, First(SQL(SQLBlind), 2), def[2:])
}

func TestObfuscate(t *testing.T) {
	tests := []struct {
		technique Technique
		in        string
		want      string
	}{
		{URLEncode, "<a b>/x", "%3Ca%20b%3E/x"},
		{DoubleURLEncode, "<", "%253C"},
		{HTMLEncode, "<script>", "&lt;script&gt;"},
		{Base64Encode, "abc", "YWJj"},
		{HexEncode, "AB", "0x4142"},
		{Technique("rot13"), "same", "same"},
	}
	for _, tt := range tests {
		t.Run(string(tt.technique), func(t *testing.T) {
			assert.Equal(t, tt.want, Obfuscate(tt.in, tt.technique))
		})
	}
}

func TestParseTechniques(t *testing.T) {
	got, err := ParseTechniques("url, HTML,,hex")
	require.NoError(t, err)
	assert.Equal(t, []Technique{URLEncode, HTMLEncode, HexEncode}, got)

	_, err = ParseTechniques("url,rot13")
	assert.Error(t, err)
}

func TestVariants(t *testing.T) {
	got := Variants([]string{"<x>", "abc"}, []Technique{URLEncode})
	// "abc" is unchanged by URL encoding, so it gets no variant.
	assert.Equal(t, []string{"<x>", "abc", "%3Cx%3E"}, got)

	list := []string{"a"}
	assert.Equal(t, list, Variants(list, nil))
}
