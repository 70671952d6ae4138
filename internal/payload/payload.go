// Package payload resolves the bytes a round trip encrypts.
package payload

import (
	"errors"
	"fmt"
	"os"
)

// Source describes where a payload came from.
type Source string

const (
	SourceInline Source = "inline"
	SourceFile   Source = "file"
)

var (
	ErrNoInput    = errors.New("input data or input file missing")
	ErrBothInputs = errors.New("input data and input file are mutually exclusive")
)

// Load returns the literal data when it is set, otherwise the contents of
// file. A set but empty data string is a valid empty payload.
func Load(data *string, file string) ([]byte, Source, error) {
	switch {
	case data != nil && file != "":
		return nil, "", ErrBothInputs
	case data != nil:
		return []byte(*data), SourceInline, nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read input file: %w", err)
		}
		return b, SourceFile, nil
	default:
		return nil, "", ErrNoInput
	}
}
