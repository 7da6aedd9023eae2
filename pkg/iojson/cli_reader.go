package iojson

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when neither a file nor piped stdin was provided.
var ErrNoInput = errors.New("no input provided (stdin is a terminal); use -f flag or pipe input")

// FileReader reads command input from a --file flag or piped stdin.
type FileReader struct {
	fileFlagValue string
	stdin         io.Reader
}

// Flag returns the --file flag bound to the reader.
func (fr *FileReader) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to input file (reads from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

// WithStdin replaces os.Stdin as the fallback source. The terminal check is
// skipped for injected readers.
func (fr *FileReader) WithStdin(r io.Reader) *FileReader {
	fr.stdin = r
	return fr
}

// ReadAll returns the raw input bytes.
func (fr *FileReader) ReadAll() ([]byte, error) {
	var reader io.Reader

	switch {
	case fr.fileFlagValue != "":
		f, err := os.Open(fr.fileFlagValue)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	case fr.stdin != nil:
		reader = fr.stdin
	default:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, ErrNoInput
		}
		reader = os.Stdin
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
