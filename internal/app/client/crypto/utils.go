package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// GenerateRandomBytes генерирует криптографически безопасные случайные байты
func GenerateRandomBytes(size int) ([]byte, error) {
	bytes := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return bytes, nil
}

// MaskSensitiveData оставляет видимыми только края значения: "sk_l****wxyz"
func MaskSensitiveData(value string) string {
	n := utf8.RuneCountInString(value)
	if n <= 8 {
		return strings.Repeat("*", n)
	}
	runes := []rune(value)
	return string(runes[:4]) + "****" + string(runes[n-4:])
}

func clearMemory(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
