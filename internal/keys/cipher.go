package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
)

// pkcs1v15Overhead is the minimum padding PKCS#1 v1.5 adds to a message.
const pkcs1v15Overhead = 11

var ErrPayloadTooLarge = errors.New("payload too large for key")

// MaxPayloadSize is the largest message pub can encrypt with PKCS#1 v1.5.
func MaxPayloadSize(pub *rsa.PublicKey) int {
	limit := pub.Size() - pkcs1v15Overhead
	if limit < 0 {
		return 0
	}
	return limit
}

// Encrypt encrypts msg for pub using PKCS#1 v1.5 padding.
func Encrypt(random io.Reader, pub *rsa.PublicKey, msg []byte) ([]byte, error) {
	if limit := MaxPayloadSize(pub); len(msg) > limit {
		return nil, fmt.Errorf("%w: %d bytes, %d-bit key accepts at most %d",
			ErrPayloadTooLarge, len(msg), pub.N.BitLen(), limit)
	}

	ct, err := rsa.EncryptPKCS1v15(random, pub, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}

	return ct, nil
}

// Decrypt reverses Encrypt.
func Decrypt(priv *rsa.PrivateKey, ct []byte) ([]byte, error) {
	msg, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ct)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return msg, nil
}
