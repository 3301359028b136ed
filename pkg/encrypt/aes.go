package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func newGCM(key string) (cipher.AEAD, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return aesGCM, nil
}

// AESEncrypt seals plaintext with AES-GCM and returns URL-safe base64.
func AESEncrypt(key, plaintext string) (string, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func AESDecrypt(key, cipherB64 string) (string, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(cipherB64)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	aesGCM, err := newGCM(key)
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
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

const sharePrefix = "portfolio:"

// ShareToken returns an opaque public token for a portfolio id.
func ShareToken(key string, portfolioID uint) (string, error) {
	return AESEncrypt(key, sharePrefix+strconv.FormatUint(uint64(portfolioID), 10))
}

func ParseShareToken(key, token string) (uint, error) {
	plain, err := AESDecrypt(key, token)
	if err != nil {
		return 0, err
	}
	raw, ok := strings.CutPrefix(plain, sharePrefix)
	if !ok {
		return 0, fmt.Errorf("not a portfolio token")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse portfolio id: %w", err)
	}
	return uint(id), nil
}
