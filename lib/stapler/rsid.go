// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package stapler

import (
	"strings"

	"github.com/xpii-foundation/xpii/lib/binhash"
)

// DeriveRSID returns the revision marker for a session id: the first 8
// hex characters of SHA256(session_id), uppercased. The derivation is
// pure, so identical session ids always stamp the identical marker.
func DeriveRSID(sessionID string) string {
	return strings.ToUpper(binhash.HashBytes([]byte(sessionID)).String()[:8])
}
