// etf converts Erlang external term format data to and from JSON,
// YAML and CBOR, and checks whether ETF input is in canonical form.
//
//	etf decode [-f json|yaml|cbor] [-c] < term.bin
//	etf encode [-i json|yaml] [--compress N] < value.json > term.bin
//	etf check < terms.bin
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/diodechain/goetf"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

// exitError carries a specific exit status for failures that are not
// usage or I/O problems.
//
//	0  every term re-encodes to its input
//	1  usage, I/O or decode failure
//	2  check found terms that differ or have no encoder
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

func (e *exitError) ExitCode() int { return e.code }

const exitCheckFailed = 2

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return nil
	}
	command, args := args[0], args[1:]

	var (
		configPath  string
		verbose     bool
		format      string
		compact     bool
		input       string
		compression int
	)
	flagSet := pflag.NewFlagSet("etf "+command, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", os.Getenv("ETF_CONFIG"), "YAML config file (default $ETF_CONFIG)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log each term to stderr")
	switch command {
	case "decode":
		flagSet.StringVarP(&format, "format", "f", "json", "output format: json, yaml or cbor")
		flagSet.BoolVarP(&compact, "compact", "c", false, "single-line JSON output")
	case "encode":
		flagSet.StringVarP(&input, "input", "i", "json", "input format: json or yaml")
		flagSet.IntVar(&compression, "compress", 0, "zlib level 1-9, 0 for none")
	case "check":
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", command)
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("%s takes no positional arguments, got %q", command, flagSet.Arg(0))
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("format") {
		config.Format = format
	}
	if flagSet.Changed("compress") {
		config.Compression = compression
	}
	if err := config.Validate(); err != nil {
		return err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	switch command {
	case "decode":
		terms, err := readTerms(stdin, config.Options(), logger)
		if err != nil {
			return err
		}
		return writeTerms(stdout, terms, config.Format, compact, config.Options())
	case "encode":
		value, err := parseInput(stdin, input)
		if err != nil {
			return err
		}
		term, err := etf.FromGo(value, config.Options()...)
		if err != nil {
			return fmt.Errorf("convert input: %w", err)
		}
		return etf.Marshal(stdout, term, config.Options()...)
	default:
		return runCheck(stdin, stdout, config, logger)
	}
}

func runCheck(stdin io.Reader, stdout io.Writer, config Config, logger *slog.Logger) error {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	results, err := checkTerms(data, config.Options(), logger)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("empty input: expected ETF data on stdin")
	}

	var out bytes.Buffer
	failed := 0
	for _, result := range results {
		fmt.Fprintf(&out, "term %d (%s): %s", result.Index, result.Type, result.Status)
		if result.Err != nil {
			fmt.Fprintf(&out, ": %v", result.Err)
		}
		out.WriteByte('\n')
		if result.Status == statusDiffers || result.Status == statusNoEncoder {
			failed++
		}
	}
	if _, err := stdout.Write(out.Bytes()); err != nil {
		return err
	}
	if failed > 0 {
		return &exitError{code: exitCheckFailed, message: fmt.Sprintf("%d of %d terms do not re-encode to their input", failed, len(results))}
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `etf converts Erlang external term format data.

Usage:
  etf decode [-f json|yaml|cbor] [-c]   ETF on stdin to JSON, YAML or CBOR
  etf encode [-i json|yaml] [--compress N]   JSON or YAML on stdin to ETF
  etf check                             report terms that do not re-encode identically

Every command accepts --config FILE (default $ETF_CONFIG) and -v.
`)
}
