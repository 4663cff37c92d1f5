package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// KeySealer encrypts payer wallet keys at rest with AES-256-GCM.
type KeySealer struct {
	key []byte // 32-byte key for AES-256
}

// NewKeySealer creates a sealer from a 64-character hex key.
func NewKeySealer(hexKey string) (*KeySealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding AES key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("AES key must be 32 bytes, got %d", len(key))
	}
	return &KeySealer{key: key}, nil
}

// Seal returns hex(nonce || ciphertext).
func (s *KeySealer) Seal(plaintext string) (string, error) {
	aesGCM, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal.
func (s *KeySealer) Open(sealedHex string) (string, error) {
	ciphertext, err := hex.DecodeString(sealedHex)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}

	aesGCM, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}

	return string(plaintext), nil
}

// OpenAll decrypts every sealed wallet key, failing on the first bad one.
func (s *KeySealer) OpenAll(sealed []string) ([]string, error) {
	out := make([]string, 0, len(sealed))
	for i, v := range sealed {
		key, err := s.Open(v)
		if err != nil {
			return nil, fmt.Errorf("wallet key %d: %w", i, err)
		}
		out = append(out, key)
	}
	return out, nil
}

func (s *KeySealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return aesGCM, nil
}
