// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/queuewatch/internal/models"
)

// FilePersister stores the snapshot as a JSON document. Each save writes a
// temporary file next to the target and renames it over the target, so the
// file on disk is always a complete snapshot.
type FilePersister struct {
	path string
}

// NewFilePersister creates a FilePersister, creating the parent directory.
func NewFilePersister(path string) (*FilePersister, error) {
	if path == "" {
		return nil, errors.New("history: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &FilePersister{path: path}, nil
}

// Name implements Persister.
func (p *FilePersister) Name() string { return "file" }

// Path returns the document path.
func (p *FilePersister) Path() string { return p.path }

// Load implements Persister. A missing file is an empty history.
func (p *FilePersister) Load(_ context.Context) ([]models.CompletedSession, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}
	return decodeDocument(data)
}

// Save implements Persister.
func (p *FilePersister) Save(ctx context.Context, sessions []models.CompletedSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeDocument(sessions)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("replace %s: %w", p.path, err)
	}
	return nil
}

// Quarantine implements Quarantiner by renaming the document to
// <path>.corrupt-<utc timestamp>.
func (p *FilePersister) Quarantine(_ context.Context) (string, error) {
	dst := p.path + ".corrupt-" + time.Now().UTC().Format("20060102T150405.000Z")
	if err := os.Rename(p.path, dst); err != nil {
		return "", fmt.Errorf("move %s aside: %w", p.path, err)
	}
	return dst, nil
}

// Close implements Persister.
func (p *FilePersister) Close() error { return nil }
