package keys

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
)

// readChunk bounds how much entropy is read between cancellation checks.
const readChunk = 1024

// Generate creates an RSA private key of the given modulus size. Generation
// stops with ctx.Err() once ctx is done.
func Generate(ctx context.Context, bits int) (*rsa.PrivateKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader := &contextReader{
		ctx:    ctx,
		reader: rand.Reader,
	}

	key, err := rsa.GenerateKey(reader, bits)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	return key, nil
}

// contextReader wraps a reader with context cancellation checks
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		select {
		case <-cr.ctx.Done():
			return total, cr.ctx.Err()
		default:
		}

		end := total + readChunk
		if end > len(p) {
			end = len(p)
		}

		n, err := cr.reader.Read(p[total:end])
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}
