package format

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/classxref/classfile/classtest"
	"github.com/dhamidi/classxref/xref"
)

func sampleResult(t *testing.T) *xref.Result {
	t.Helper()
	b := classtest.New("p/C", "java/lang/Object").SourceFile("C.java")
	b.Field(0, "x", "I")
	b.Utf8("hello")
	res, err := xref.NewAnalyzer("/s?").Analyze(b.Parse())
	require.NoError(t, err)
	return res
}

func encodeWith(t *testing.T, name string, res *xref.Result) string {
	t.Helper()
	var buf bytes.Buffer
	enc, err := NewEncoder(name, &buf)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(res))
	return buf.String()
}

func TestTextEncoders(t *testing.T) {
	res := sampleResult(t)
	assert.Equal(t, res.Text, encodeWith(t, "html", res))
	assert.Equal(t, "C.java\npackage p\npublic C extends Object {\n\tint x\n}\n", encodeWith(t, "text", res))
}

func TestTokensEncoder(t *testing.T) {
	res := sampleResult(t)
	assert.Equal(t, "C.java\np\nC\nx\n", encodeWith(t, "defs", res))
	assert.Equal(t, "C.java\np\nC\nObject\nx\n", encodeWith(t, "refs", res))
	assert.Equal(t, "hello\n", encodeWith(t, "literals", res))
}

func TestJSONEncoder(t *testing.T) {
	res := sampleResult(t)
	var got xref.Result
	require.NoError(t, json.Unmarshal([]byte(encodeWith(t, "json", res)), &got))
	assert.Equal(t, *res, got)

	empty := encodeWith(t, "json", &xref.Result{Text: "x"})
	assert.Contains(t, empty, `"literals": []`)
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewEncoder("yaml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	d, err := Diff("a.class", "b.class", "x\ny\n", "x\nz\n", 0)
	require.NoError(t, err)
	for _, want := range []string{"--- a.class\n", "+++ b.class\n", " x\n", "-y\n", "+z\n"} {
		assert.Contains(t, d, want)
	}

	d, err = Diff("a", "b", "same\n", "same\n", 0)
	require.NoError(t, err)
	assert.Empty(t, d)
}
