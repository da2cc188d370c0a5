package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// MaxLineBytes is the longest line ReadLines accepts.
const MaxLineBytes = 1 << 20

// LineFunc receives one line without its line terminator.
// The slice is owned by the callee.
type LineFunc func(line []byte) error

// ReadLines calls fn for every line of r until EOF, a read error, an error
// from fn, or ctx being done. Empty lines are skipped. EOF is not an error.
func ReadLines(ctx context.Context, r io.Reader, fn LineFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		if err := fn(bytes.Clone(line)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read lines: %w", err)
	}
	return nil
}
