package auth

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// otpPeriod is the step of the signup codes, it matches their lifetime.
const otpPeriod = 300

func otpOptions() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    otpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// NewOTPSecret creates a per user secret for signup codes.
func NewOTPSecret(issuer, email string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: email,
		Period:      otpPeriod,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return "", fmt.Errorf("generate otp secret: %w", err)
	}

	return key.Secret(), nil
}

// GenerateOTP returns the six digit code of secret at t.
func GenerateOTP(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, otpOptions())
}

// ValidateOTP checks a code issued within the previous or current step.
func ValidateOTP(secret, code string, t time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, t, otpOptions())

	return err == nil && ok
}
