package roundtrip

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/rsacheck/internal/keycodec"
	"github.com/user/rsacheck/internal/keys"
	"github.com/user/rsacheck/internal/payload"
	"github.com/user/rsacheck/internal/storage"
)

func strPtr(s string) *string { return &s }

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.InputData = strPtr("attack at dawn")
	cfg.OutputPath = filepath.Join(dir, "encrypted_data")
	cfg.PrivateKeyPath = filepath.Join(dir, "privkey")
	cfg.PublicKeyPath = filepath.Join(dir, "pubkey")
	cfg.Regenerate = true
	cfg.KeyBits = 1024
	cfg.Timeout = 60
	return cfg
}

func TestRunRegenerate(t *testing.T) {
	cfg := testConfig(t)

	report, err := NewRunner(cfg, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Verified)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1024, report.KeyBits)
	assert.Equal(t, KeyGenerated, report.KeySource)
	assert.Equal(t, payload.SourceInline, report.InputSource)
	assert.Equal(t, len("attack at dawn"), report.PayloadSize)
	assert.Equal(t, 128, report.CiphertextSize)
	assert.Equal(t, 117, report.MaxPayloadSize)

	require.Len(t, report.Artifacts, 4)
	wantRoles := []storage.Role{
		storage.RolePrivateKeyPEM,
		storage.RolePrivateKeyBin,
		storage.RolePublicKeyPEM,
		storage.RoleCiphertext,
	}
	for i, role := range wantRoles {
		assert.Equal(t, role, report.Artifacts[i].Role)
	}
	assert.Equal(t, cfg.PrivateKeyPath+".bin", report.Artifacts[1].Path)

	var steps []string
	for _, timing := range report.Timings {
		steps = append(steps, timing.Step)
	}
	assert.Equal(t, []string{StepLoadInput, StepGenerateKey, StepEncrypt, StepPersist, StepVerify}, steps)

	priv, err := keys.LoadPrivateKeyFile(cfg.PrivateKeyPath)
	require.NoError(t, err)

	pubPEM, err := os.ReadFile(cfg.PublicKeyPath)
	require.NoError(t, err)
	pub, err := keys.ParsePublicKeyPEM(pubPEM)
	require.NoError(t, err)
	assert.True(t, priv.PublicKey.Equal(pub))

	blob, err := os.ReadFile(cfg.BinaryKeyPath())
	require.NoError(t, err)
	binKey, err := keycodec.Unmarshal(blob)
	require.NoError(t, err)
	assert.True(t, priv.Equal(binKey))

	ct, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	msg, err := keys.Decrypt(priv, ct)
	require.NoError(t, err)
	assert.Equal(t, "attack at dawn", string(msg))
}

func TestRunLoadsExistingKey(t *testing.T) {
	cfg := testConfig(t)
	_, err := NewRunner(cfg, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	before, err := os.ReadFile(cfg.PrivateKeyPath)
	require.NoError(t, err)

	input := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(input, []byte{0x00, 0x10, 0x20, 0xff}, 0o644))

	cfg.Regenerate = false
	cfg.KeyBits = DefaultKeyBits
	cfg.InputData = nil
	cfg.InputFile = input

	report, err := NewRunner(cfg, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Verified)
	assert.Equal(t, KeyLoaded, report.KeySource)
	assert.Equal(t, payload.SourceFile, report.InputSource)
	assert.Equal(t, 1024, report.KeyBits)
	assert.Equal(t, StepLoadKey, report.Timings[1].Step)

	require.Len(t, report.Artifacts, 3)
	for _, a := range report.Artifacts {
		assert.NotEqual(t, storage.RolePrivateKeyPEM, a.Role)
	}

	after, err := os.ReadFile(cfg.PrivateKeyPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunEmptyPayload(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputData = strPtr("")

	report, err := NewRunner(cfg, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Verified)
	assert.Equal(t, 0, report.PayloadSize)
}

func TestRunWithProgress(t *testing.T) {
	cfg := testConfig(t)
	cfg.ShowProgress = true

	runner := NewRunner(cfg, zaptest.NewLogger(t))
	runner.progressOut = io.Discard

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Verified)
}

func TestRunMissingKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Regenerate = false

	_, err := NewRunner(cfg, zaptest.NewLogger(t)).Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no input", func(c *Config) { c.InputData = nil }, payload.ErrNoInput},
		{"both inputs", func(c *Config) { c.InputFile = "input.txt" }, payload.ErrBothInputs},
		{"small key", func(c *Config) { c.KeyBits = 512 }, ErrKeySizeTooSmall},
		{"empty output", func(c *Config) { c.OutputPath = "" }, ErrEmptyPath},
		{"empty public key", func(c *Config) { c.PublicKeyPath = "" }, ErrEmptyPath},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(&cfg)

			_, err := NewRunner(cfg, zaptest.NewLogger(t)).Run(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateSmallKeyOnlyWhenRegenerating(t *testing.T) {
	cfg := testConfig(t)
	cfg.Regenerate = false
	cfg.KeyBits = 16
	assert.NoError(t, cfg.Validate())
}

func TestValidateZeroTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeout = 0
	assert.NoError(t, cfg.Validate())
}

func TestRunPayloadTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputData = strPtr(strings.Repeat("x", 118))

	_, err := NewRunner(cfg, zaptest.NewLogger(t)).Run(context.Background())
	assert.ErrorIs(t, err, keys.ErrPayloadTooLarge)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(cfg, zaptest.NewLogger(t)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyDetectsPayloadMismatch(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, zaptest.NewLogger(t))
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	priv, err := keys.LoadPrivateKeyFile(cfg.PrivateKeyPath)
	require.NoError(t, err)
	forged, err := keys.Encrypt(rand.Reader, &priv.PublicKey, []byte("retreat at dusk"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.OutputPath, forged, 0o644))

	err = runner.Verify(context.Background(), []byte("attack at dawn"))
	assert.ErrorIs(t, err, ErrPayloadMismatch)
}

func TestVerifyDetectsKeyMismatch(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, zaptest.NewLogger(t))
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	blob, err := keycodec.Marshal(other)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.BinaryKeyPath(), blob, 0o600))

	err = runner.Verify(context.Background(), []byte("attack at dawn"))
	assert.ErrorIs(t, err, ErrKeyMismatch)
}

func TestBinaryKeyPath(t *testing.T) {
	cfg := Config{PrivateKeyPath: "keys/priv.pem"}
	assert.Equal(t, "keys/priv.pem.bin", cfg.BinaryKeyPath())
}
