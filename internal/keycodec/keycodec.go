// Package keycodec stores RSA private keys in a compact MessagePack record.
package keycodec

import (
	"bytes"
	"crypto/rsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ugorji/go/codec"
)

// Version is the record layout written by Marshal.
const Version uint8 = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported key record version")
	ErrMalformed          = errors.New("malformed key record")
)

var msgpackHandle = &codec.MsgpackHandle{
	WriteExt: true,
}

// record holds the key components as big-endian magnitudes.
type record struct {
	Version uint8    `codec:"v"`
	N       []byte   `codec:"n"`
	E       int      `codec:"e"`
	D       []byte   `codec:"d"`
	Primes  [][]byte `codec:"p"`
}

// Marshal encodes key. CRT values are not stored; Unmarshal recomputes them.
func Marshal(key *rsa.PrivateKey) ([]byte, error) {
	if key == nil || key.N == nil || key.D == nil {
		return nil, fmt.Errorf("%w: incomplete private key", ErrMalformed)
	}

	rec := record{
		Version: Version,
		N:       key.N.Bytes(),
		E:       key.E,
		D:       key.D.Bytes(),
		Primes:  make([][]byte, 0, len(key.Primes)),
	}
	for _, p := range key.Primes {
		rec.Primes = append(rec.Primes, p.Bytes())
	}

	buf := bytes.NewBuffer(nil)
	if err := codec.NewEncoder(buf, msgpackHandle).Encode(&rec); err != nil {
		return nil, fmt.Errorf("failed to encode key record: %w", err)
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes a record written by Marshal and validates the key.
func Unmarshal(data []byte) (*rsa.PrivateKey, error) {
	var rec record
	if err := codec.NewDecoderBytes(data, msgpackHandle).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if rec.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version)
	}
	if len(rec.N) == 0 || len(rec.D) == 0 || len(rec.Primes) < 2 {
		return nil, fmt.Errorf("%w: missing key components", ErrMalformed)
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{
			N: new(big.Int).SetBytes(rec.N),
			E: rec.E,
		},
		D:      new(big.Int).SetBytes(rec.D),
		Primes: make([]*big.Int, 0, len(rec.Primes)),
	}
	for _, p := range rec.Primes {
		key.Primes = append(key.Primes, new(big.Int).SetBytes(p))
	}

	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	key.Precompute()

	return key, nil
}
