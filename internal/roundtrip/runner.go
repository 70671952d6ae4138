// Package roundtrip encrypts a payload with an RSA key, writes the keys and
// ciphertext to disk and verifies the result by decrypting from disk.
package roundtrip

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/user/rsacheck/internal/keycodec"
	"github.com/user/rsacheck/internal/keys"
	"github.com/user/rsacheck/internal/payload"
	"github.com/user/rsacheck/internal/storage"
)

var (
	ErrPayloadMismatch = errors.New("decrypted data does not match input")
	ErrKeyMismatch     = errors.New("binary private key does not match PEM private key")
)

const spinnerInterval = 100 * time.Millisecond

type Runner struct {
	runID       string
	config      Config
	log         *zap.Logger
	storage     *storage.FileStorage
	random      io.Reader
	progressOut io.Writer
}

func NewRunner(config Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.New().String()
	return &Runner{
		runID:       runID,
		config:      config,
		log:         log.With(zap.String("run_id", runID)),
		storage:     storage.NewFileStorage(),
		random:      rand.Reader,
		progressOut: os.Stderr,
	}
}

// Run loads the input and key, encrypts, persists every artifact and then
// verifies the files on disk. Any failure aborts the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	report := &Report{
		RunID:     r.runID,
		StartedAt: time.Now(),
	}

	var data []byte
	err := r.step(report, StepLoadInput, func() error {
		var err error
		data, report.InputSource, err = payload.Load(r.config.InputData, r.config.InputFile)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	report.PayloadSize = len(data)
	r.log.Debug("input loaded", zap.String("source", string(report.InputSource)), zap.Int("bytes", len(data)))

	var key *rsa.PrivateKey
	if r.config.Regenerate {
		err = r.step(report, StepGenerateKey, func() error {
			var err error
			key, err = r.generateKey(ctx)
			return err
		})
		report.KeySource = KeyGenerated
	} else {
		err = r.step(report, StepLoadKey, func() error {
			var err error
			key, err = keys.LoadPrivateKeyFile(r.config.PrivateKeyPath)
			return err
		})
		report.KeySource = KeyLoaded
	}
	if err != nil {
		return nil, err
	}
	report.KeyBits = key.N.BitLen()
	if !r.config.Regenerate && r.config.KeyBits != report.KeyBits {
		r.log.Debug("bit size ignored for loaded key",
			zap.Int("requested", r.config.KeyBits), zap.Int("actual", report.KeyBits))
	}

	pub := &key.PublicKey
	report.MaxPayloadSize = keys.MaxPayloadSize(pub)

	var ct []byte
	err = r.step(report, StepEncrypt, func() error {
		var err error
		ct, err = keys.Encrypt(r.random, pub, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	report.CiphertextSize = len(ct)

	if err := r.step(report, StepPersist, func() error { return r.persist(key, ct) }); err != nil {
		return nil, fmt.Errorf("failed to persist artifacts: %w", err)
	}

	if err := r.step(report, StepVerify, func() error { return r.Verify(ctx, data) }); err != nil {
		return nil, fmt.Errorf("round trip verification failed: %w", err)
	}

	report.Verified = true
	report.Artifacts = r.storage.Artifacts()
	report.TotalTime = time.Since(report.StartedAt)

	r.log.Info("round trip verified",
		zap.Int("key_bits", report.KeyBits),
		zap.String("key_source", string(report.KeySource)),
		zap.Int("payload_bytes", report.PayloadSize),
		zap.Duration("took", report.TotalTime))

	return report, nil
}

// Verify decrypts the ciphertext file with the private key read back from
// its PEM file and compares the result with expected. It then checks that
// the binary key file decodes to the same key.
func (r *Runner) Verify(ctx context.Context, expected []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ct, err := r.storage.Read(r.config.OutputPath)
	if err != nil {
		return err
	}

	priv, err := keys.LoadPrivateKeyFile(r.config.PrivateKeyPath)
	if err != nil {
		return err
	}

	decrypted, err := keys.Decrypt(priv, ct)
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, decrypted) {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrPayloadMismatch, len(expected), len(decrypted))
	}

	blob, err := r.storage.Read(r.config.BinaryKeyPath())
	if err != nil {
		return err
	}

	binKey, err := keycodec.Unmarshal(blob)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", r.config.BinaryKeyPath(), err)
	}
	if !priv.Equal(binKey) {
		return ErrKeyMismatch
	}

	return nil
}

func (r *Runner) persist(key *rsa.PrivateKey, ct []byte) error {
	if r.config.Regenerate {
		privPEM, err := keys.MarshalPrivateKeyPEM(key)
		if err != nil {
			return err
		}
		if _, err := r.storage.Write(storage.RolePrivateKeyPEM, r.config.PrivateKeyPath, privPEM, storage.PrivateFileMode); err != nil {
			return err
		}
	}

	blob, err := keycodec.Marshal(key)
	if err != nil {
		return err
	}
	if _, err := r.storage.Write(storage.RolePrivateKeyBin, r.config.BinaryKeyPath(), blob, storage.PrivateFileMode); err != nil {
		return err
	}

	pubPEM, err := keys.MarshalPublicKeyPEM(&key.PublicKey)
	if err != nil {
		return err
	}
	if _, err := r.storage.Write(storage.RolePublicKeyPEM, r.config.PublicKeyPath, pubPEM, storage.PublicFileMode); err != nil {
		return err
	}

	_, err = r.storage.Write(storage.RoleCiphertext, r.config.OutputPath, ct, storage.PublicFileMode)
	return err
}

func (r *Runner) generateKey(ctx context.Context) (*rsa.PrivateKey, error) {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.config.Timeout)*time.Second)
		defer cancel()
	}

	r.log.Info("generating RSA key", zap.Int("bits", r.config.KeyBits))

	if r.config.ShowProgress {
		stop := r.startSpinner(fmt.Sprintf("[RSA-%d] generating key", r.config.KeyBits))
		defer stop()
	}

	key, err := keys.Generate(ctx, r.config.KeyBits)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("key generation timed out after %ds: %w", r.config.Timeout, err)
	}
	return key, err
}

// startSpinner animates an indeterminate progress bar until the returned
// func is called.
func (r *Runner) startSpinner(description string) func() {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.progressOut),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
		bar.Finish()
	}
}

func (r *Runner) step(report *Report, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	report.Timings = append(report.Timings, StepTiming{Step: name, Duration: elapsed})
	if err != nil {
		r.log.Debug("step failed", zap.String("step", name), zap.Duration("took", elapsed), zap.Error(err))
		return err
	}

	r.log.Debug("step finished", zap.String("step", name), zap.Duration("took", elapsed))
	return nil
}
