package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var ErrDecrypt = errors.New("cannot decrypt value")

// Sealer encrypts short secrets (OAuth tokens) for storage.
type Sealer struct {
	key [keySize]byte
}

// NewSealer accepts a 32 byte key encoded as hex or standard base64.
func NewSealer(encoded string) (*Sealer, error) {
	raw, err := decodeKey(encoded)
	if err != nil {
		return nil, err
	}
	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

func decodeKey(encoded string) ([]byte, error) {
	if b, err := hex.DecodeString(encoded); err == nil && len(b) == keySize {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(encoded); err == nil && len(b) == keySize {
		return b, nil
	}
	return nil, fmt.Errorf("encryption key must be %d bytes, hex or base64 encoded", keySize)
}

// Seal returns base64(nonce || box). Empty input stays empty.
func (s *Sealer) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
