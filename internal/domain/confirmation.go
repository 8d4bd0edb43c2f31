package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const confirmationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewConfirmationNumber генерирует номер подтверждения из 8 символов A-Z0-9
// Уникальность обеспечивает уникальный индекс в БД, при коллизии номер генерируется заново
func NewConfirmationNumber() (string, error) {
	buf := make([]byte, ConfirmationNumberLength)
	max := big.NewInt(int64(len(confirmationAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("confirmation number: %w", err)
		}
		buf[i] = confirmationAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// IsValidConfirmationNumber проверяет формат номера подтверждения
func IsValidConfirmationNumber(s string) bool {
	if len(s) != ConfirmationNumberLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
