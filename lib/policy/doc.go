// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy provides deterministic, codified policy enforcement
// for governed pipeline actions.
//
// Policies are Go functions, not prose: each receives an action
// [Context] and returns (allowed, reason). The [Engine] evaluates every
// registered policy in registration order, collects formatted failure
// reasons for each denial, and unconditionally records the verdict to
// the audit trail, so even rejected actions leave a forensic record.
//
// Three builtin policies enforce the system invariants: the agent
// identity must be present and verify, the author field must be
// non-empty, and paths must not contain "..". Operators can tighten the
// set further with a JSONC rules file ([LoadRules], [Engine.ApplyRules])
// authored in the same comment-tolerant format as the rest of the
// system's operator-facing files.
package policy
