package ednl

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ReadFile reads a record file, one *Map per non-blank line. A missing file
// is not an error: it yields zero records, matching an empty-but-valid store
// on first run.
func ReadFile(path string) ([]*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ednl: open %s: %w", path, err)
	}
	defer f.Close()

	var records []*Map
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("ednl: %s:%d: %w", path, lineNo, err)
		}
		m, ok := v.(*Map)
		if !ok {
			return nil, fmt.Errorf("ednl: %s:%d: top-level record must be a map, got %T", path, lineNo, v)
		}
		records = append(records, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ednl: reading %s: %w", path, err)
	}
	return records, nil
}

// WriteFile atomically replaces path's contents with one line per record:
// write to a sibling temp file, fsync, rename over the original. An
// advisory lock on a sibling .lock file serializes concurrent writers in
// this process and across cooperating processes (the single-writer gate
// applies within one engine; the lock additionally guards against a
// second mcp-tasks process racing the rename). The lock is advisory, so
// tools that do not take it, such as git, are not held off.
func WriteFile(path string, records []*Map) error {
	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("ednl: acquiring lock %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("ednl: timed out acquiring lock %s", lockPath)
	}
	defer lock.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ednl: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("ednl: creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.WriteString(EncodeLine(rec)); err != nil {
			tmp.Close()
			return fmt.Errorf("ednl: writing %s: %w", tmpPath, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			return fmt.Errorf("ednl: writing %s: %w", tmpPath, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("ednl: flushing %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("ednl: fsync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ednl: closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("ednl: renaming %s to %s: %w", tmpPath, path, err)
	}
	success = true
	return nil
}
