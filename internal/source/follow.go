package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/logship/internal/ports"
)

// DefaultPollInterval is how often the follower reads even without a file event.
const DefaultPollInterval = time.Second

// Follower tails a file, handling truncation and rotation by rename or remove.
// Lines written before Follow are skipped unless fromStart is set.
type Follower struct {
	path         string
	logger       ports.Logger
	watcher      *fsnotify.Watcher
	pollInterval time.Duration

	file    *os.File
	reader  *bufio.Reader
	offset  int64
	partial []byte
}

// Follow opens path and starts watching its directory. Call Run to receive lines.
func Follow(path string, fromStart bool, logger ports.Logger) (*Follower, error) {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	f := &Follower{
		path:         path,
		logger:       logger,
		watcher:      watcher,
		pollInterval: DefaultPollInterval,
	}
	if err := f.open(!fromStart); err != nil {
		watcher.Close()
		return nil, err
	}
	return f, nil
}

// Run delivers lines to fn until ctx is done or fn fails. It always closes
// the follower before returning. A trailing line without a newline is held
// back until it is completed.
func (f *Follower) Run(ctx context.Context, fn LineFunc) error {
	defer f.close()

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	// lines appended between Follow and Run
	if err := f.drain(fn); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if err := f.handle(event, fn); err != nil {
				return err
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("file watcher error", ports.String("path", f.path), ports.Err(err))

		case <-ticker.C:
			if err := f.checkTruncated(); err != nil {
				return err
			}
			if err := f.drain(fn); err != nil {
				return err
			}
		}
	}
}

func (f *Follower) handle(event fsnotify.Event, fn LineFunc) error {
	switch {
	case event.Has(fsnotify.Create):
		// rotated: finish the old file, then start the new one from its beginning
		if err := f.drain(fn); err != nil {
			return err
		}
		f.closeFile()
		if err := f.open(false); err != nil {
			f.logger.Warn("reopen followed file", ports.String("path", f.path), ports.Err(err))
			return nil
		}
		f.logger.Info("followed file recreated", ports.String("path", f.path))
		return f.drain(fn)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if err := f.drain(fn); err != nil {
			return err
		}
		f.closeFile()
		f.logger.Info("followed file moved away, waiting for it to reappear", ports.String("path", f.path))
		return nil

	case event.Has(fsnotify.Write):
		if err := f.checkTruncated(); err != nil {
			return err
		}
		return f.drain(fn)
	}
	return nil
}

func (f *Follower) open(seekEnd bool) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	var offset int64
	if seekEnd {
		if offset, err = file.Seek(0, io.SeekEnd); err != nil {
			file.Close()
			return fmt.Errorf("seek %s: %w", f.path, err)
		}
	}
	f.file = file
	f.reader = bufio.NewReader(file)
	f.offset = offset
	f.partial = nil
	return nil
}

func (f *Follower) checkTruncated() error {
	if f.file == nil {
		return nil
	}
	info, err := f.file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}
	if info.Size() >= f.offset {
		return nil
	}
	f.logger.Info("followed file truncated", ports.String("path", f.path))
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", f.path, err)
	}
	f.reader.Reset(f.file)
	f.offset = 0
	f.partial = nil
	return nil
}

// drain reads every complete line currently available.
func (f *Follower) drain(fn LineFunc) error {
	if f.file == nil {
		return nil
	}
	for {
		chunk, err := f.reader.ReadBytes('\n')
		f.offset += int64(len(chunk))

		if len(chunk) > 0 {
			if chunk[len(chunk)-1] != '\n' {
				f.partial = append(f.partial, chunk...)
			} else {
				line := append(f.partial, chunk...)
				f.partial = nil
				line = bytes.TrimRight(line, "\r\n")
				if len(line) > 0 {
					if ferr := fn(line); ferr != nil {
						return ferr
					}
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", f.path, err)
		}
	}
}

func (f *Follower) closeFile() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
		f.reader = nil
		f.partial = nil
	}
}

func (f *Follower) close() {
	f.closeFile()
	f.watcher.Close()
}
