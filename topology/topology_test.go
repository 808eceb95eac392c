package topology

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = `from,to,bw,loss,delay,max_queue_number
con0,agg0,100,0,10,10000
con0,agg1,100,1,100,1000
`

func TestParseAndRender(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleTable))
	require.NoError(t, err)

	assert.Equal(t, []NodeID{"agg0", "agg1", "con0"}, d.Nodes)
	require.Len(t, d.Links, 2)
	assert.Equal(t, NodeID("con0"), d.Links[0].From)
	assert.Equal(t, NodeID("agg1"), d.Links[1].To)

	want := "[nodes]\n" +
		"agg0:_\n" +
		"agg1:_\n" +
		"con0:_\n" +
		"\n" +
		"[links]\n" +
		"con0:agg0 bw=100 loss=0 delay=10 max_queue_number=10000\n" +
		"con0:agg1 bw=100 loss=1 delay=100 max_queue_number=1000\n"
	assert.Equal(t, want, string(d.Bytes()))
}

func TestRenderIsStable(t *testing.T) {
	first, err := Parse(strings.NewReader(sampleTable))
	require.NoError(t, err)
	second, err := Parse(strings.NewReader(sampleTable))
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestNodesSortedRegardlessOfRowOrder(t *testing.T) {
	a := "from,to,bw\npro1,agg0,10\ncon0,agg0,10\npro0,agg0,10\n"
	b := "from,to,bw\npro0,agg0,10\npro1,agg0,10\ncon0,agg0,10\n"

	da, err := Parse(strings.NewReader(a))
	require.NoError(t, err)
	db, err := Parse(strings.NewReader(b))
	require.NoError(t, err)

	want := []NodeID{"agg0", "con0", "pro0", "pro1"}
	assert.Equal(t, want, da.Nodes)
	assert.Equal(t, want, db.Nodes)

	// links keep source order
	assert.Equal(t, NodeID("pro1"), da.Links[0].From)
	assert.Equal(t, NodeID("pro0"), db.Links[0].From)
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"short header":   "from\n",
		"bad header":     "src,dst,bw\na,b,1\n",
		"column count":   "from,to,bw\na,b,1,2\n",
		"missing column": "from,to,bw\na,b\n",
		"empty endpoint": "from,to,bw\n,b,1\n",
		"bad quoting":    "from,to,bw\na,\"b,1\n",
	}
	for name, table := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(table))
			assert.ErrorIs(t, err, ErrMalformedTable)
		})
	}
}

func TestParseColumnErrorNamesLine(t *testing.T) {
	_, err := Parse(strings.NewReader("from,to,bw\na,b,1\nc,d\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "structure.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0o644))

	d, err := ParseFile(path)
	require.NoError(t, err)
	assert.True(t, d.HasNode("con0"))
	assert.False(t, d.HasNode("pro9"))

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHeaderOnlyTable(t *testing.T) {
	d, err := Parse(strings.NewReader("from,to\n"))
	require.NoError(t, err)
	assert.Empty(t, d.Nodes)
	assert.Equal(t, "[nodes]\n\n[links]\n", string(d.Bytes()))
}

func TestLinkAccessors(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleTable))
	require.NoError(t, err)

	raw, ok := d.Links[1].Attr("delay")
	require.True(t, ok)
	assert.Equal(t, "100", raw)

	bw, err := d.Links[0].Float("bw")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, bw, 1e-9)

	_, err = d.Links[0].Float("jitter")
	assert.ErrorIs(t, err, ErrInvalidAttribute)
}
