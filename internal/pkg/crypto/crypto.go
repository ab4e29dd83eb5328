package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"gsource-auth/internal/pkg/config"
)

const keyInfo = "gsource-auth robot credential encryption"

// Cipher AES-256-GCM 加解密，密钥由 HKDF-SHA256 从配置的口令派生
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher 派生密钥并创建 Cipher
func NewCipher(secret, salt string) (*Cipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("crypto.aes_key 未配置")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("派生密钥失败: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// NewFromConfig 按 crypto 配置创建
func NewFromConfig(cfg *config.CryptoConfig) (*Cipher, error) {
	return NewCipher(cfg.AESKey, cfg.Salt)
}

// Encrypt 加密，返回 base64(nonce||密文)
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt 解密 Encrypt 的输出
func (c *Cipher) Decrypt(ciphertext string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, err
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("密文太短")
	}
	nonce, data := data[:nonceSize], data[nonceSize:]
	return c.aead.Open(nil, nonce, data, nil)
}
