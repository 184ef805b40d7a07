// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON writes a snapshot of the log to path as indented JSON. The
// file is written to a temporary location in the same directory, synced
// for durability, and renamed into place, so readers never see a
// partial trail. The file is created with mode 0600.
func WriteJSON(log *Log, path string) error {
	data, err := json.MarshalIndent(log.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling audit trail: %w", err)
	}
	data = append(data, '\n')

	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary audit trail file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing audit trail: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing audit trail: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing audit trail: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming audit trail into place: %w", err)
	}
	return nil
}
