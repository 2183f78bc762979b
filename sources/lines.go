package sources

import (
	"bufio"
	"fmt"
	"io"
)

// Lines yields the lines of a reader without their line endings.
type Lines struct {
	scanner *bufio.Scanner
	reader  io.Reader
}

// NewLines scans r line by line. If r is an io.Closer, Close closes it.
func NewLines(r io.Reader) *Lines {
	return &Lines{scanner: bufio.NewScanner(r), reader: r}
}

// Buffer sets the initial buffer and the maximum line length, as
// bufio.Scanner.Buffer. Call it before the first pull.
func (l *Lines) Buffer(buf []byte, maxSize int) *Lines {
	l.scanner.Buffer(buf, maxSize)
	return l
}

func (l *Lines) Next() (string, bool, error) {
	if l.scanner.Scan() {
		return l.scanner.Text(), true, nil
	}
	if err := l.scanner.Err(); err != nil {
		return "", false, fmt.Errorf("sources: scan: %w", err)
	}
	return "", false, nil
}

func (l *Lines) Close() error {
	if c, ok := l.reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
