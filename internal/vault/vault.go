package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/scrypt"

	"pipaura/internal/domain"
)

// scrypt parameters match Node's crypto.scryptSync defaults so that
// credentials written by the previous backend still decrypt
const (
	kdfSalt   = "salt"
	kdfN      = 16384
	kdfR      = 8
	kdfP      = 1
	keyLength = 32
)

// Vault encrypts broker passwords with AES-256-CBC. Ciphertexts are stored as hex(iv):hex(ct).
type Vault struct {
	key []byte
}

// New derives the AES key from passphrase
func New(passphrase string) (*Vault, error) {
	if passphrase == "" {
		return nil, &domain.ConfigurationError{Setting: "ENC_PASSPHRASE"}
	}

	key, err := scrypt.Key([]byte(passphrase), []byte(kdfSalt), kdfN, kdfR, kdfP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	return &Vault{key: key}, nil
}

// Encrypt encrypts plaintext with a fresh random IV. Plaintext must be valid
// UTF-8, which Decrypt relies on to reject a wrong key.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if !utf8.ValidString(plaintext) {
		return "", fmt.Errorf("failed to encrypt: plaintext is not valid UTF-8")
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Every failure is a *domain.DecryptionError.
func (v *Vault) Decrypt(encoded string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return "", &domain.DecryptionError{Reason: "malformed ciphertext"}
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", &domain.DecryptionError{Reason: "invalid IV"}
	}

	ciphertext, err := hex.DecodeString(ctHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", &domain.DecryptionError{Reason: "invalid ciphertext"}
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", &domain.DecryptionError{Reason: err.Error()}
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", &domain.DecryptionError{Reason: err.Error()}
	}

	// CBC has no authentication tag. A wrong key occasionally yields valid padding,
	// but almost never valid UTF-8 as well.
	if !utf8.Valid(plain) {
		return "", &domain.DecryptionError{Reason: "bad decrypt"}
	}

	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("bad decrypt")
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("bad decrypt")
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("bad decrypt")
		}
	}

	return data[:len(data)-n], nil
}
