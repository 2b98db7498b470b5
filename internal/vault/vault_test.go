package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipaura/internal/domain"
)

func TestNew_EmptyPassphrase(t *testing.T) {
	v, err := New("")

	assert.Nil(t, v)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestEncryptDecrypt(t *testing.T) {
	v, err := New("correct horse battery staple")
	require.NoError(t, err)

	tests := []struct {
		name        string
		plaintext   string
		expectError bool
	}{
		{name: "empty string", plaintext: ""},
		{name: "simple password", plaintext: "hunter2"},
		{name: "exact block size", plaintext: "0123456789abcdef"},
		{name: "unicode", plaintext: "пароль密码"},
		{name: "special chars", plaintext: "!@#$%^&*()_+-=[]{}|;':\",./<>?"},
		{name: "long", plaintext: strings.Repeat("x", 500)},
		{name: "invalid utf-8 rejected", plaintext: "pa\xffss", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := v.Encrypt(tt.plaintext)
			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, encrypted)
				return
			}
			require.NoError(t, err)

			ivHex, ctHex, ok := strings.Cut(encrypted, ":")
			require.True(t, ok)
			assert.Len(t, ivHex, 32)
			assert.Equal(t, 0, len(ctHex)%32)

			decrypted, err := v.Decrypt(encrypted)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	v, err := New("passphrase")
	require.NoError(t, err)

	a, err := v.Encrypt("same text")
	require.NoError(t, err)
	b, err := v.Encrypt("same text")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecrypt_SamePassphraseDifferentInstance(t *testing.T) {
	writer, err := New("shared")
	require.NoError(t, err)
	reader, err := New("shared")
	require.NoError(t, err)

	encrypted, err := writer.Encrypt("broker-password")
	require.NoError(t, err)

	decrypted, err := reader.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "broker-password", decrypted)
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	writer, err := New("right")
	require.NoError(t, err)
	reader, err := New("wrong")
	require.NoError(t, err)

	encrypted, err := writer.Encrypt("a reasonably long broker password")
	require.NoError(t, err)

	_, err = reader.Decrypt(encrypted)
	require.Error(t, err)
	assert.True(t, domain.IsDecryptionError(err))
}

func TestDecrypt_Malformed(t *testing.T) {
	v, err := New("passphrase")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separator", "00112233445566778899aabbccddeeff"},
		{"bad iv hex", "zz:00112233445566778899aabbccddeeff"},
		{"short iv", "0011:00112233445566778899aabbccddeeff"},
		{"bad ciphertext hex", "00112233445566778899aabbccddeeff:xyz"},
		{"unaligned ciphertext", "00112233445566778899aabbccddeeff:0011"},
		{"empty ciphertext", "00112233445566778899aabbccddeeff:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Decrypt(tt.input)
			require.Error(t, err)
			assert.True(t, domain.IsDecryptionError(err))
		})
	}
}

func TestPKCS7(t *testing.T) {
	padded := pkcs7Pad([]byte("abc"), 16)
	assert.Len(t, padded, 16)
	assert.Equal(t, byte(13), padded[15])

	unpadded, err := pkcs7Unpad(padded, 16)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(unpadded))

	full := pkcs7Pad(make([]byte, 16), 16)
	assert.Len(t, full, 32)

	bad := append([]byte("abcdefghijklmno"), 0x00)
	_, err = pkcs7Unpad(bad, 16)
	assert.Error(t, err)
}
