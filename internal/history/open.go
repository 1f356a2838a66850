// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package history

import "fmt"

// Backend names accepted by OpenPersister.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// OpenPersister builds the persister for a configured backend. path is the
// JSON document for "file" and the database directory for "badger".
func OpenPersister(backend, path string) (Persister, error) {
	switch backend {
	case BackendFile, "":
		return NewFilePersister(path)
	case BackendBadger:
		return OpenBadgerPersister(path)
	case BackendMemory:
		return NewMemoryPersister(), nil
	default:
		return nil, fmt.Errorf("history: unknown backend %q", backend)
	}
}
