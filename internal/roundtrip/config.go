package roundtrip

import (
	"errors"
	"fmt"

	"github.com/user/rsacheck/internal/payload"
)

const (
	DefaultOutputPath     = "./encrypted_data"
	DefaultPrivateKeyPath = "./privkey"
	DefaultPublicKeyPath  = "./pubkey"
	DefaultKeyBits        = 4096
	DefaultTimeout        = 300

	// MinKeyBits is the smallest modulus accepted for a generated key.
	MinKeyBits = 1024

	// BinaryKeySuffix is appended to the private key path for the binary copy.
	BinaryKeySuffix = ".bin"
)

var (
	ErrKeySizeTooSmall = errors.New("key size too small")
	ErrEmptyPath       = errors.New("empty path")
	ErrInvalidTimeout  = errors.New("invalid timeout")
)

type Config struct {
	InputData      *string `json:"-"`
	InputFile      string  `json:"input_file,omitempty"`
	OutputPath     string  `json:"output_path"`
	PrivateKeyPath string  `json:"private_key_path"`
	PublicKeyPath  string  `json:"public_key_path"`
	Regenerate     bool    `json:"regenerate"`
	KeyBits        int     `json:"key_bits"`
	ShowProgress   bool    `json:"show_progress"`
	Timeout        int     `json:"timeout"`
}

// DefaultConfig returns a Config with the tool's default paths and key size.
func DefaultConfig() Config {
	return Config{
		OutputPath:     DefaultOutputPath,
		PrivateKeyPath: DefaultPrivateKeyPath,
		PublicKeyPath:  DefaultPublicKeyPath,
		KeyBits:        DefaultKeyBits,
		Timeout:        DefaultTimeout,
	}
}

// BinaryKeyPath is the private key path with BinaryKeySuffix appended.
func (c Config) BinaryKeyPath() string {
	return c.PrivateKeyPath + BinaryKeySuffix
}

func (c Config) Validate() error {
	switch {
	case c.InputData != nil && c.InputFile != "":
		return payload.ErrBothInputs
	case c.InputData == nil && c.InputFile == "":
		return payload.ErrNoInput
	}

	paths := []struct {
		name  string
		value string
	}{
		{"output file", c.OutputPath},
		{"private key", c.PrivateKeyPath},
		{"public key", c.PublicKeyPath},
	}
	for _, p := range paths {
		if p.value == "" {
			return fmt.Errorf("%w: %s", ErrEmptyPath, p.name)
		}
	}

	// Zero disables the key generation deadline.
	if c.Timeout < 0 {
		return fmt.Errorf("%w: %ds", ErrInvalidTimeout, c.Timeout)
	}

	if c.Regenerate && c.KeyBits < MinKeyBits {
		return fmt.Errorf("%w: %d bits, minimum is %d", ErrKeySizeTooSmall, c.KeyBits, MinKeyBits)
	}

	return nil
}
