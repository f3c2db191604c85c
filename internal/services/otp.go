package services

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// OTPLength is the number of decimal digits in an issued code.
const OTPLength = 6

// DigitSource yields uniformly distributed integers in [0, n).
type DigitSource interface {
	IntN(n int) int
}

type cryptoDigits struct{}

func (cryptoDigits) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is unusable.
		panic(err)
	}
	return int(v.Int64())
}

// CryptoDigits draws digits from crypto/rand.
var CryptoDigits DigitSource = cryptoDigits{}

// GenerateOTP draws OTPLength independent digits from src and concatenates them.
func GenerateOTP(src DigitSource) string {
	var b strings.Builder
	b.Grow(OTPLength)
	for i := 0; i < OTPLength; i++ {
		b.WriteByte(byte('0' + src.IntN(10)))
	}
	return b.String()
}
