// Package crypto provides the symmetric cipher used to protect vaulted
// access tokens at rest.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// kdfSalt is fixed and operator-controlled, like the secret it is combined
// with. Changing it invalidates every stored credential.
const kdfSalt = "reposhare.credentials.v1"

// scrypt cost parameters: interactive-grade, derived once per process.
const (
	scryptN     = 1 << 15
	scryptR     = 8
	scryptP     = 1
	keyLenBytes = 32
	ivLenBytes  = aes.BlockSize
)

// ErrDecrypt is wrapped into every decryption failure: malformed hex, bad
// length, or data produced under a different key. Callers treat any of these
// as "credential unusable".
var ErrDecrypt = errors.New("decrypt failed")

// Cipher encrypts and decrypts short secrets with AES-256-CBC under a
// process-wide scrypt-derived key. The key is immutable after construction
// and safe for concurrent use. Each Encrypt call draws a fresh random IV so
// identical plaintexts never produce identical ciphertexts.
//
// There is no padding-oracle mitigation beyond standard PKCS#7 padding; the
// ciphertext is never exposed to untrusted parties, only stored at rest.
type Cipher struct {
	key []byte
}

// New derives the AES-256 key from secret via scrypt and returns a Cipher.
func New(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("encryption secret must not be empty")
	}

	key, err := scrypt.Key([]byte(secret), []byte(kdfSalt), scryptN, scryptR, scryptP, keyLenBytes)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	return &Cipher{key: key}, nil
}

// Encrypt encrypts plaintext and returns the hex-encoded IV and ciphertext.
func (c *Cipher) Encrypt(plaintext string) (ivHex, ciphertextHex string, err error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", "", fmt.Errorf("aes.NewCipher: %w", err)
	}

	iv := make([]byte, ivLenBytes)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", fmt.Errorf("rand iv: %w", err)
	}

	padded := pad([]byte(plaintext))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv), hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Any malformed or tampered input, and any input
// produced under a different key, fails with an error wrapping ErrDecrypt.
func (c *Cipher) Decrypt(ivHex, ciphertextHex string) (string, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad iv encoding", ErrDecrypt)
	}
	if len(iv) != ivLenBytes {
		return "", fmt.Errorf("%w: iv length %d", ErrDecrypt, len(iv))
	}

	data, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding", ErrDecrypt)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d", ErrDecrypt, len(data))
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	plaintext, err := unpad(out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return string(plaintext), nil
}

// pad applies PKCS#7 padding up to the AES block size.
func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips and verifies PKCS#7 padding.
func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("empty input")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
