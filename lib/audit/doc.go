// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit provides the append-only, hash-chained action ledger.
//
// Every governed action in the pipeline records an entry: what was
// done, by which agent, with what context, and with what outcome. Each
// entry's hash is computed over the canonical CBOR serialization of its
// fields and incorporates the previous entry's hash, forming a tamper
// evident chain. Altering a single byte of any historical entry breaks
// the chain from that point forward, which [Log.VerifyChain] detects by
// full recomputation.
//
// The log is in-process and exclusively owns its entries. [Log.Export]
// returns deep copies, never a live view, so callers cannot corrupt the
// chain through the returned value. [WriteJSON] persists a snapshot to
// disk atomically for external forensic analysis.
package audit
