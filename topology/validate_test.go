package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleTable))
	require.NoError(t, err)
	assert.NoError(t, d.Validate())
}

func TestValidateRejectsBadAttributes(t *testing.T) {
	cases := map[string]string{
		"zero bandwidth":   "from,to,bw\na,b,0\n",
		"text bandwidth":   "from,to,bw\na,b,fast\n",
		"loss above 100":   "from,to,loss\na,b,101\n",
		"negative delay":   "from,to,delay\na,b,-1\n",
		"fractional queue": "from,to,max_queue_number\na,b,1.5\n",
		"self loop":        "from,to,bw\na,a,10\n",
	}
	for name, table := range cases {
		t.Run(name, func(t *testing.T) {
			d, err := Parse(strings.NewReader(table))
			require.NoError(t, err)
			assert.ErrorIs(t, d.Validate(), ErrInvalidAttribute)
		})
	}
}

func TestValidateIgnoresUnknownColumns(t *testing.T) {
	d, err := Parse(strings.NewReader("from,to,color\na,b,blue\n"))
	require.NoError(t, err)
	assert.NoError(t, d.Validate())
}
