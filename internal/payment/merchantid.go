package payment

import (
	"fmt"
	"time"

	"github.com/gopalparivar/dhenu-mahima/internal/uniuri"
)

// Merchant id prefixes.
const (
	PrefixTransaction  = "TXN"
	PrefixSubscription = "SUB"
	PrefixOrder        = "ORD"
	PrefixUser         = "USER"
)

// NewMerchantID returns "<PREFIX>_<unix millis>_<6 random upper case alphanumerics>".
func NewMerchantID(prefix string) (string, error) {
	suffix, err := uniuri.NewLenChars(uniuri.MerchantSuffixLen, uniuri.UpperAlnum)
	if err != nil {
		return "", fmt.Errorf("merchant id: %w", err)
	}

	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), suffix), nil
}
