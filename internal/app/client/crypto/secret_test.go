package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretBox_SealOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")

	box, err := LoadOrCreate(path)
	require.NoError(t, err)

	sealed, err := box.Seal("api-key-123")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "api-key-123")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secretFilePermissions), info.Mode().Perm())

	// тот же секрет после перезапуска расшифровывает прежние значения
	reopened, err := LoadOrCreate(path)
	require.NoError(t, err)
	plain, err := reopened.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "api-key-123", plain)
}

func TestSecretBox_WrongSecret(t *testing.T) {
	a, err := LoadOrCreate(filepath.Join(t.TempDir(), "a.key"))
	require.NoError(t, err)
	b, err := LoadOrCreate(filepath.Join(t.TempDir(), "b.key"))
	require.NoError(t, err)

	sealed, err := a.Seal("api-key-123")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.Error(t, err)

	_, err = a.Open("not base64!")
	assert.Error(t, err)
}

func TestNewSecretBox_InvalidSize(t *testing.T) {
	_, err := NewSecretBox([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestSecretBox_Wipe(t *testing.T) {
	secret, err := GenerateRandomBytes(secretSize)
	require.NoError(t, err)
	box, err := NewSecretBox(secret)
	require.NoError(t, err)

	box.Wipe()
	_, err = box.Seal("x")
	assert.Error(t, err)
}

func TestMaskSensitiveData(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"sk_live_abcdefwxyz", "sk_l****wxyz"},
		{"ключ-доступа-2026", "ключ****2026"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskSensitiveData(tt.in))
	}
}
