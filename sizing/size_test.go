package sizing

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1MB", 1048576},
		{"2.5GB", 2684354560},
		{"0B", 0},
		{"512b", 512},
		{"  4kb ", 4096},
		{"1 TB", 1 << 40},
		{"1.5KB", 1536},
		{"0.3B", 0},
		{"1.9B", 1},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSizeMatchesMultiplier(t *testing.T) {
	for unit, mult := range units {
		for _, v := range []int64{1, 3, 17, 100} {
			got, err := ParseSize(fmtSize(v, unit))
			require.NoError(t, err)
			assert.Equal(t, v*mult, got, "%d%s", v, unit)

			again, err := ParseSize(fmtSize(v, unit))
			require.NoError(t, err)
			assert.Equal(t, got, again)
		}
	}
}

func TestParseSizeErrors(t *testing.T) {
	for _, in := range []string{"", "MB", "1.MB", "-1MB", "1,5MB", "1MB2", ".5GB"} {
		_, err := ParseSize(in)
		assert.ErrorIs(t, err, ErrInvalidSizeFormat, in)
	}
	for _, in := range []string{"1PB", "10KiB", "3bytes"} {
		_, err := ParseSize(in)
		assert.ErrorIs(t, err, ErrUnknownUnit, in)
	}

	_, err := ParseSize("99999999TB")
	assert.ErrorIs(t, err, ErrSizeOutOfRange)
}

func fmtSize(v int64, unit string) string {
	return strconv.FormatInt(v, 10) + unit
}
