package main

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"

	"github.com/user/rsacheck/internal/keycodec"
	"github.com/user/rsacheck/internal/keys"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <privkey.pem> [privkey.bin]\n", os.Args[0])
		os.Exit(1)
	}

	if err := check(os.Args[1], os.Args[2:]...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nKey validation complete!")
}

func check(keyFile string, binFile ...string) error {
	key, err := keys.LoadPrivateKeyFile(keyFile)
	if err != nil {
		return err
	}

	fmt.Printf("Key file: %s\n", keyFile)
	fmt.Printf("Key size: %d bits\n", key.N.BitLen())
	fmt.Printf("Public exponent: %d\n", key.E)
	fmt.Printf("Max PKCS#1 v1.5 payload: %d bytes\n", keys.MaxPayloadSize(&key.PublicKey))

	fmt.Println("\nValidating mathematical properties...")

	n := big.NewInt(1)
	for _, p := range key.Primes {
		n.Mul(n, p)
	}
	if n.Cmp(key.N) != 0 {
		return fmt.Errorf("n ≠ product of %d primes", len(key.Primes))
	}
	fmt.Println("✓ n = p × q")

	fmt.Println("\nTesting encryption/decryption...")
	message := []byte("keycheck probe")

	ct, err := keys.Encrypt(rand.Reader, &key.PublicKey, message)
	if err != nil {
		return err
	}
	plaintext, err := keys.Decrypt(key, ct)
	if err != nil {
		return err
	}
	if !bytes.Equal(plaintext, message) {
		return fmt.Errorf("decryption mismatch")
	}
	fmt.Printf("✓ Successfully encrypted and decrypted: %q\n", plaintext)

	if len(binFile) == 0 {
		return nil
	}

	fmt.Println("\nComparing binary key...")
	blob, err := os.ReadFile(binFile[0])
	if err != nil {
		return fmt.Errorf("failed to read binary key: %w", err)
	}
	binKey, err := keycodec.Unmarshal(blob)
	if err != nil {
		return fmt.Errorf("failed to decode binary key: %w", err)
	}
	if !key.Equal(binKey) {
		return fmt.Errorf("binary key %s does not match %s", binFile[0], keyFile)
	}
	fmt.Printf("✓ %s matches PEM key\n", binFile[0])

	return nil
}
