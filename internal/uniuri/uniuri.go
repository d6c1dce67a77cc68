package uniuri

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
)

const (
	// TokenLen gives ~381 bits of entropy with StdChars, used for reset tokens.
	TokenLen = 64
	// MerchantSuffixLen is the random tail of a merchant order id.
	MerchantSuffixLen = 6
	// FileSuffixLen is the random part of a stored upload name.
	FileSuffixLen = 9
)

// Character sets.
var (
	// StdChars are upper and lower case letters and digits.
	StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")
	// UpperAlnum is the alphabet of merchant ids, the gateway echoes them back upper case.
	UpperAlnum = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	// Digits keeps upload names numeric.
	Digits = []byte("0123456789")
)

// ErrCharset is returned for character sets shorter than 2 or longer than 256.
var ErrCharset = errors.New("uniuri: wrong charset length")

const (
	// maxBufLen is the maximum length of a temporary buffer for random bytes.
	maxBufLen = 2048

	// minRegenBufLen is the minimum length of the buffer refilled after a short first read.
	minRegenBufLen = 16

	maxByteValue = 255
	byteRange    = 256
)

// Token returns a reset token of TokenLen standard characters.
func Token() (string, error) {
	return NewLenChars(TokenLen, StdChars)
}

// estimatedBufLen returns how many random bytes to read when bytes above maxByte are rejected.
func estimatedBufLen(need, maxByte int) int {
	return int(math.Ceil(float64(need) * (maxByteValue / float64(maxByte))))
}

func clampBuf(n, floor int) int {
	if n < floor {
		n = floor
	}
	if n > maxBufLen {
		n = maxBufLen
	}

	return n
}

// NewLenCharsBytes returns length random bytes drawn from chars without modulo bias.
func NewLenCharsBytes(length int, chars []byte) ([]byte, error) {
	if length <= 0 {
		return nil, nil
	}

	clen := len(chars)
	if clen < 2 || clen > byteRange {
		return nil, fmt.Errorf("%w: %d", ErrCharset, clen)
	}

	maxRb := maxByteValue - (byteRange % clen)
	bufLen := clampBuf(estimatedBufLen(length, maxRb), length)

	buf := make([]byte, bufLen)
	out := make([]byte, length)

	var i int
	for {
		if _, err := rand.Read(buf[:bufLen]); err != nil {
			return nil, fmt.Errorf("uniuri: read random bytes: %w", err)
		}

		for _, rb := range buf[:bufLen] {
			c := int(rb)
			if c > maxRb {
				continue
			}

			out[i] = chars[c%clen]
			i++
			if i == length {
				return out, nil
			}
		}

		bufLen = estimatedBufLen(length-i, maxRb)
		if minRegenBufLen < cap(buf) {
			bufLen = clampBuf(bufLen, minRegenBufLen)
		}
		if bufLen > cap(buf) {
			bufLen = cap(buf)
		}
	}
}

// NewLenChars returns a random string of length characters from chars.
func NewLenChars(length int, chars []byte) (string, error) {
	b, err := NewLenCharsBytes(length, chars)
	if err != nil {
		return "", err
	}

	return string(b), nil
}
