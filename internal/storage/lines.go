package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const maxLineBytes = 1 << 20

// errStopLines ends readLines early without an error.
var errStopLines = errors.New("stop reading lines")

// readLines calls fn for every non-blank line of path. A missing file is
// treated as empty. Lines longer than maxLineBytes are dropped whole and
// reported to oversized. fn may return errStopLines to end the read; any
// other error from fn is returned as is. If reading fails part way, the
// lines already delivered stand and the error is returned.
func readLines(path string, oversized func(), fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	var buf []byte
	tooLong := false
	for {
		chunk, rerr := r.ReadSlice('\n')
		if rerr != nil && !errors.Is(rerr, bufio.ErrBufferFull) && !errors.Is(rerr, io.EOF) {
			return fmt.Errorf("read %s: %w", path, rerr)
		}
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineBytes+1 {
				tooLong = true
				buf = buf[:0]
			}
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}

		if tooLong {
			if oversized != nil {
				oversized()
			}
		} else if line := strings.TrimSpace(string(buf)); line != "" {
			if err := fn(line); err != nil {
				if errors.Is(err, errStopLines) {
					return nil
				}
				return err
			}
		}
		buf = buf[:0]
		tooLong = false

		if rerr != nil {
			return nil
		}
	}
}

// writeLinesAtomic replaces path with lines, one per row. The data goes to
// a temp file in the same directory which is then renamed over path.
func writeLinesAtomic(path string, lines []string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return fmt.Errorf("write %s: %w", tmp.Name(), err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write %s: %w", tmp.Name(), err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// appendLine adds one line at the end of path, creating it if needed.
func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	return f.Close()
}
