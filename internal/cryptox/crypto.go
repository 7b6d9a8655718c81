// Package cryptox contains the key material helpers used by the local wallet:
// a password-sealed envelope for the mnemonic and HKDF key expansion.
package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	envelopeVersion = 1
	kdfArgon2id     = "argon2id"

	argonTime    uint32 = 1
	argonMemKB   uint32 = 64 * 1024
	argonThreads uint8  = 4

	// Upper bounds for parameters read back from an envelope.
	maxArgonTime  uint32 = 16
	maxArgonMemKB uint32 = 1024 * 1024
)

var (
	ErrDecrypt       = errors.New("cannot open envelope: wrong passphrase or corrupted data")
	ErrKDFParameters = errors.New("invalid kdf parameters")
)

// Envelope is the on-disk form of a sealed secret.
type Envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// Seal encrypts plaintext with a key stretched from passphrase by argon2id,
// using XChaCha20-Poly1305.
func Seal(plaintext, passphrase []byte) (*Envelope, error) {
	salt := common.GenerateRandByteArray(16)

	key := argon2.IDKey(passphrase, salt, argonTime, argonMemKB, argonThreads, chacha20poly1305.KeySize)
	defer common.WipeByteArray(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(chacha20poly1305.NonceSizeX)

	return &Envelope{
		Version:     envelopeVersion,
		KDF:         kdfArgon2id,
		KDFTime:     argonTime,
		KDFMemoryKB: argonMemKB,
		KDFThreads:  argonThreads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Open reverses Seal. A wrong passphrase yields ErrDecrypt.
func Open(env *Envelope, passphrase []byte) ([]byte, error) {
	if env == nil {
		return nil, errors.New("envelope is nil")
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	if env.KDF != kdfArgon2id {
		return nil, fmt.Errorf("unsupported kdf: %s", env.KDF)
	}
	if err := checkKDFParams(env); err != nil {
		return nil, err
	}

	key := argon2.IDKey(passphrase, env.Salt, env.KDFTime, env.KDFMemoryKB, env.KDFThreads, chacha20poly1305.KeySize)
	defer common.WipeByteArray(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// checkKDFParams keeps argon2 from panicking on a zero thread count and from
// being asked for unbounded time or memory by a tampered file.
func checkKDFParams(env *Envelope) error {
	switch {
	case env.KDFThreads < 1:
		return fmt.Errorf("%w: threads %d", ErrKDFParameters, env.KDFThreads)
	case env.KDFTime < 1 || env.KDFTime > maxArgonTime:
		return fmt.Errorf("%w: time %d", ErrKDFParameters, env.KDFTime)
	case env.KDFMemoryKB < 8*uint32(env.KDFThreads) || env.KDFMemoryKB > maxArgonMemKB:
		return fmt.Errorf("%w: memory %d KiB", ErrKDFParameters, env.KDFMemoryKB)
	case len(env.Nonce) != chacha20poly1305.NonceSizeX:
		return fmt.Errorf("%w: nonce length %d", ErrKDFParameters, len(env.Nonce))
	}
	return nil
}

// Expand derives outLen bytes from seed for the given purpose label.
func Expand(seed []byte, info string, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, seed, nil, []byte(info))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
