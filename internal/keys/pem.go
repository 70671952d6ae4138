// Package keys generates, encodes and loads the RSA keys used by a round trip.
//
// Private keys are written as PKCS#8 ("PRIVATE KEY") and public keys as PKIX
// ("PUBLIC KEY"). Loading also accepts the PKCS#1 block types.
package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// PEM block types.
const (
	PKCS8PrivateKeyType = "PRIVATE KEY"
	PKCS1PrivateKeyType = "RSA PRIVATE KEY"
	PKIXPublicKeyType   = "PUBLIC KEY"
	PKCS1PublicKeyType  = "RSA PUBLIC KEY"
)

var (
	ErrNoPEMBlock = errors.New("no supported PEM block found")
	ErrNotRSAKey  = errors.New("key is not an RSA key")
)

// MarshalPrivateKeyPEM encodes key as a PKCS#8 PEM block.
func MarshalPrivateKeyPEM(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  PKCS8PrivateKeyType,
		Bytes: der,
	}), nil
}

// MarshalPublicKeyPEM encodes pub as a PKIX SubjectPublicKeyInfo PEM block.
func MarshalPublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  PKIXPublicKeyType,
		Bytes: der,
	}), nil
}

// ParsePrivateKeyPEM returns the first RSA private key in data. Blocks of
// other types are skipped.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}

		switch block.Type {
		case PKCS8PrivateKeyType:
			parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
			}
			key, ok := parsed.(*rsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("%w: got %T", ErrNotRSAKey, parsed)
			}
			return key, nil
		case PKCS1PrivateKeyType:
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse PKCS#1 private key: %w", err)
			}
			return key, nil
		}

		data = rest
	}

	return nil, ErrNoPEMBlock
}

// ParsePublicKeyPEM returns the first RSA public key in data.
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}

		switch block.Type {
		case PKIXPublicKeyType:
			parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse PKIX public key: %w", err)
			}
			pub, ok := parsed.(*rsa.PublicKey)
			if !ok {
				return nil, fmt.Errorf("%w: got %T", ErrNotRSAKey, parsed)
			}
			return pub, nil
		case PKCS1PublicKeyType:
			pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse PKCS#1 public key: %w", err)
			}
			return pub, nil
		}

		data = rest
	}

	return nil, ErrNoPEMBlock
}

// LoadPrivateKeyFile reads, parses and validates the private key at path.
func LoadPrivateKeyFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	key, err := ParsePrivateKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key %s: %w", path, err)
	}

	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("invalid private key %s: %w", path, err)
	}

	return key, nil
}
