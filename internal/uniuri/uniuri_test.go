package uniuri

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLenChars(t *testing.T) {
	testCases := []struct {
		name   string
		length int
		chars  []byte
	}{
		{name: "merchant suffix", length: MerchantSuffixLen, chars: UpperAlnum},
		{name: "file suffix", length: FileSuffixLen, chars: Digits},
		{name: "token", length: TokenLen, chars: StdChars},
		{name: "longer than one buffer", length: 5000, chars: UpperAlnum},
		{name: "binary charset", length: 64, chars: []byte("01")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewLenChars(tc.length, tc.chars)
			require.NoError(t, err)
			require.Len(t, s, tc.length)

			for _, c := range []byte(s) {
				assert.True(t, bytes.IndexByte(tc.chars, c) >= 0, "unexpected %q", c)
			}
		})
	}
}

func TestNewLenCharsRejectsCharset(t *testing.T) {
	_, err := NewLenChars(4, []byte("a"))
	require.ErrorIs(t, err, ErrCharset)

	_, err = NewLenChars(4, make([]byte, 257))
	require.ErrorIs(t, err, ErrCharset)
}

func TestNewLenCharsZeroLength(t *testing.T) {
	s, err := NewLenChars(0, StdChars)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestToken(t *testing.T) {
	a, err := Token()
	require.NoError(t, err)
	b, err := Token()
	require.NoError(t, err)

	assert.Len(t, a, TokenLen)
	assert.NotEqual(t, a, b)
}
