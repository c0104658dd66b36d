package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

const (
	secretSize = 32
	keyLength  = 32 // 256 бит для AES-256

	// Контекст HKDF: меняется при смене формата зашифрованных настроек
	keyInfo = "clinicsync credentials v1"

	secretFilePermissions = 0600
)

// ErrInvalidSecret файл секрета поврежден или имеет неверный размер
var ErrInvalidSecret = errors.New("invalid installation secret")

// SecretBox шифрует чувствительные настройки (API-ключ) перед записью в локальную базу.
// Ключ выводится через HKDF из случайного секрета установки, который лежит рядом с базой.
type SecretBox struct {
	key []byte
}

// LoadOrCreate читает секрет установки из path, создавая его при первом запуске
func LoadOrCreate(path string) (*SecretBox, error) {
	secret, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		secret, err = GenerateRandomBytes(secretSize)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("ошибка создания каталога секрета: %w", err)
		}
		if err := os.WriteFile(path, secret, secretFilePermissions); err != nil {
			return nil, fmt.Errorf("ошибка сохранения секрета: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения секрета: %w", err)
	}
	defer clearMemory(secret)

	return NewSecretBox(secret)
}

// NewSecretBox выводит ключ шифрования из секрета установки
func NewSecretBox(secret []byte) (*SecretBox, error) {
	if len(secret) != secretSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSecret, secretSize, len(secret))
	}
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("ошибка вывода ключа: %w", err)
	}
	return &SecretBox{key: key}, nil
}

// Seal шифрует строку и возвращает base64
func (b *SecretBox) Seal(plaintext string) (string, error) {
	ciphertext, err := encryptWithKey(b.key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open расшифровывает результат Seal
func (b *SecretBox) Open(sealed string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("ошибка декодирования: %w", err)
	}
	plaintext, err := decryptWithKey(b.key, ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Wipe затирает ключ в памяти
func (b *SecretBox) Wipe() {
	clearMemory(b.key)
	b.key = nil
}

// encryptWithKey шифрует данные с использованием AES-GCM
func encryptWithKey(key, plaintext []byte) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("ключ затерт")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decryptWithKey расшифровывает данные с использованием AES-GCM
func decryptWithKey(key, ciphertext []byte) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("ключ затерт")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("шифротекст слишком короткий")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка расшифровки: %w", err)
	}

	return plaintext, nil
}
