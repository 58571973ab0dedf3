// Package wal implements a JSON-lines write-ahead log.
package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// FileMode is the permission used when the log file is created.
const FileMode fs.FileMode = 0600

// ErrCorrupt is returned by Replay when a damaged record is followed by
// complete ones, so the damage cannot be a torn final write.
var ErrCorrupt = errors.New("wal: corrupt record")

// logFile is the subset of *os.File the log needs.
type logFile interface {
	io.ReadWriteSeeker
	Truncate(size int64) error
	Sync() error
	Close() error
}

// WAL is an append-only file of JSON records. Every Append is fsynced before it returns.
type WAL struct {
	mu   sync.Mutex
	file logFile
	// size is the length of the log up to its last complete record.
	size int64
	// failed is set when a write could not be undone; later appends are refused.
	failed error
}

// Open opens or creates the log at path.
func Open(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &WAL{file: file, size: info.Size()}, nil
}

// Append encodes v as one line and syncs it to disk. A failed write is cut
// back off the file so that later records are not appended after a fragment.
func (w *WAL) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failed != nil {
		return fmt.Errorf("wal: unusable after earlier failure: %w", w.failed)
	}

	if _, err := w.file.Write(data); err != nil {
		if terr := w.file.Truncate(w.size); terr != nil {
			w.failed = errors.Join(err, terr)
		}
		return err
	}
	if err := w.file.Sync(); err != nil {
		// After a failed fsync the page cache state is unknown.
		w.failed = err
		return err
	}
	w.size += int64(len(data))
	return nil
}

// Replay calls fn for every record in file order. A torn final record, left
// by a crash during Append, is truncated away and the records before it are
// replayed. Damage anywhere else returns ErrCorrupt.
func (w *WAL) Replay(fn func(raw json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	reader := bufio.NewReader(w.file)

	var offset int64
	var torn bool
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if len(line) == 0 {
			break
		}

		complete := line[len(line)-1] == '\n'
		record := bytes.TrimSpace(line)
		if !complete || (len(record) > 0 && !json.Valid(record)) {
			if torn {
				return fmt.Errorf("%w at offset %d", ErrCorrupt, offset)
			}
			// Acceptable only as the last line of the file.
			torn = true
			if errors.Is(err, io.EOF) {
				break
			}
			continue
		}
		if torn {
			return fmt.Errorf("%w at offset %d", ErrCorrupt, offset)
		}

		if len(record) > 0 {
			if err := fn(json.RawMessage(record)); err != nil {
				return err
			}
		}
		offset += int64(len(line))
		if errors.Is(err, io.EOF) {
			break
		}
	}

	if torn {
		if err := w.file.Truncate(offset); err != nil {
			return fmt.Errorf("wal: failed to truncate torn record: %w", err)
		}
		if err := w.file.Sync(); err != nil {
			return err
		}
	}
	w.size = offset
	return nil
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
