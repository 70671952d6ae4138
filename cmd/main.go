package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rsacheck/internal/logger"
	"github.com/user/rsacheck/internal/output"
	"github.com/user/rsacheck/internal/roundtrip"
	"github.com/user/rsacheck/pkg/sysinfo"
)

var (
	inputData    string
	inputFile    string
	outputFile   string
	privKeyPath  string
	pubKeyPath   string
	regenerate   bool
	bitSize      int
	logLevel     string
	verbose      bool
	showProgress bool
	timeout      int
	reportFormat string
	reportFile   string
)

var rootCmd = &cobra.Command{
	Use:   "rsacheck",
	Short: "Encrypt data with an RSA key and verify the round trip from disk",
	Long: `rsacheck encrypts a payload with RSA PKCS#1 v1.5 and writes the results to disk:
the private key (PKCS#8 PEM plus a binary copy at <priv-key-dir>.bin), the
public key (PKIX PEM) and the ciphertext.

It then reads the ciphertext and private key back, decrypts, and fails unless
the result matches the original input.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoundTrip,
}

func init() {
	rootCmd.Flags().StringVarP(&inputData, "input-data", "i", "", "Data to encrypt")
	rootCmd.Flags().StringVar(&inputFile, "input-file-dir", "", "File which contains data to encrypt")
	rootCmd.Flags().StringVarP(&outputFile, "output-file-dir", "o", roundtrip.DefaultOutputPath, "Path where encrypted data is saved")
	rootCmd.Flags().StringVar(&privKeyPath, "priv-key-dir", roundtrip.DefaultPrivateKeyPath, "Path where the private key is loaded from or saved")
	rootCmd.Flags().BoolVarP(&regenerate, "regenerate-priv-key", "r", false, "Generate a new private key and overwrite the one at --priv-key-dir")
	rootCmd.Flags().IntVar(&bitSize, "bit-size", roundtrip.DefaultKeyBits, "Bit size of a generated private key")
	rootCmd.Flags().StringVar(&pubKeyPath, "pub-key-dir", roundtrip.DefaultPublicKeyPath, "Path where the public key is saved")

	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().BoolVar(&showProgress, "progress", true, "Show a spinner while generating a key")
	rootCmd.Flags().IntVarP(&timeout, "timeout", "t", roundtrip.DefaultTimeout, "Timeout in seconds for key generation")
	rootCmd.Flags().StringVarP(&reportFormat, "format", "f", "table", "Report format (table, json, csv)")
	rootCmd.Flags().StringVar(&reportFile, "report", "", "Report file (default: stdout)")

	rootCmd.MarkFlagsMutuallyExclusive("input-data", "input-file-dir")
	rootCmd.MarkFlagsOneRequired("input-data", "input-file-dir")
}

func runRoundTrip(cmd *cobra.Command, args []string) error {
	formatter, err := output.NewFormatter(reportFormat)
	if err != nil {
		return fmt.Errorf("invalid report format: %w", err)
	}

	if verbose {
		logLevel = "debug"
	}
	log, err := logger.Initialize(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	config := roundtrip.Config{
		InputFile:      inputFile,
		OutputPath:     outputFile,
		PrivateKeyPath: privKeyPath,
		PublicKeyPath:  pubKeyPath,
		Regenerate:     regenerate,
		KeyBits:        bitSize,
		ShowProgress:   showProgress,
		Timeout:        timeout,
	}
	if cmd.Flags().Changed("input-data") {
		config.InputData = &inputData
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var host *sysinfo.HostInfo
	if verbose {
		host = sysinfo.Collect(ctx)
		fmt.Fprintln(os.Stderr, "rsacheck - RSA PKCS#1 v1.5 round trip")
		fmt.Fprintln(os.Stderr, "=====================================")
		fmt.Fprintf(os.Stderr, "  OS: %s/%s (%s)\n", host.OS, host.Architecture, host.Platform)
		fmt.Fprintf(os.Stderr, "  CPU: %s (%d cores)\n", host.CPUModel, host.CPUCores)
		fmt.Fprintf(os.Stderr, "  Memory: %.2f GB\n", host.MemoryGB())
		fmt.Fprintf(os.Stderr, "  Go Version: %s\n\n", host.GoVersion)
	}

	log.Debug("starting round trip",
		zap.Bool("regenerate", config.Regenerate),
		zap.Int("bits", config.KeyBits),
		zap.String("output", config.OutputPath),
		zap.String("private_key", config.PrivateKeyPath),
		zap.String("public_key", config.PublicKeyPath))

	report, err := roundtrip.NewRunner(config, log).Run(ctx)
	if err != nil {
		return err
	}
	report.Host = host

	return writeReport(reportFile, formatter, output.Data{Report: report, Config: config})
}

// writeReport formats data to path, or to stdout when path is empty.
func writeReport(path string, formatter output.Formatter, data output.Data) error {
	if path == "" {
		if err := formatter.Format(os.Stdout, data); err != nil {
			return fmt.Errorf("failed to format report: %w", err)
		}
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := formatter.Format(file, data); err != nil {
		file.Close()
		return fmt.Errorf("failed to format report: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}

	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
