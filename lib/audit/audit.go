// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/xpii-foundation/xpii/lib/binhash"
	"github.com/xpii-foundation/xpii/lib/clock"
	"github.com/xpii-foundation/xpii/lib/codec"
	"github.com/xpii-foundation/xpii/lib/identity"
)

// GenesisHash is the prev_hash sentinel of the first entry in a log.
const GenesisHash = "GENESIS"

// Entry is one immutable record in the audit chain. Once appended it is
// never mutated; the log hands out copies only.
type Entry struct {
	// Seq is the zero-based position of the entry in the log.
	Seq uint64 `json:"seq"`

	// Timestamp is the UTC record time in RFC 3339 format.
	Timestamp string `json:"timestamp"`

	// AgentID is the identity string of the agent the log belongs to.
	AgentID string `json:"agent_id"`

	// Action is a short action label, e.g. "unpack" or
	// "policy_evaluate:staple".
	Action string `json:"action"`

	// Context holds forensic context for the action.
	Context map[string]any `json:"context"`

	// Outcome is "OK" or a failure description.
	Outcome string `json:"outcome"`

	// PrevHash is the EntryHash of the previous entry, or GenesisHash
	// for the first entry.
	PrevHash string `json:"prev_hash"`

	// EntryHash is the SHA-256 hex digest of the canonical CBOR
	// serialization of every field above.
	EntryHash string `json:"entry_hash"`
}

// hashableEntry mirrors Entry without EntryHash. Hashing marshals this
// shadow type so the digest covers every field except the digest
// itself.
type hashableEntry struct {
	Seq       uint64         `json:"seq"`
	Timestamp string         `json:"timestamp"`
	AgentID   string         `json:"agent_id"`
	Action    string         `json:"action"`
	Context   map[string]any `json:"context"`
	Outcome   string         `json:"outcome"`
	PrevHash  string         `json:"prev_hash"`
}

// computeHash returns the hex digest of the entry's canonical
// serialization, excluding EntryHash.
func computeHash(entry Entry) (string, error) {
	canonical, err := codec.Marshal(hashableEntry{
		Seq:       entry.Seq,
		Timestamp: entry.Timestamp,
		AgentID:   entry.AgentID,
		Action:    entry.Action,
		Context:   entry.Context,
		Outcome:   entry.Outcome,
		PrevHash:  entry.PrevHash,
	})
	if err != nil {
		return "", fmt.Errorf("canonicalizing audit entry %d: %w", entry.Seq, err)
	}
	return binhash.HashBytes(canonical).String(), nil
}

// Log is an append-only, hash-chained action ledger. Each entry's hash
// incorporates the previous entry's hash, so any mutation of an
// already-appended entry invalidates every subsequent hash and is
// detectable by VerifyChain.
//
// Log is safe for concurrent use. A single mutex guards the
// append-and-copy path; entries are never mutated after append, so no
// finer-grained locking is needed.
type Log struct {
	agent *identity.AgentIdentity
	clk   clock.Clock

	mu        sync.Mutex
	entries   []Entry
	chainHash string
}

// NewLog creates an empty log owned by the given agent identity.
// Timestamps are read from clk.
func NewLog(agent *identity.AgentIdentity, clk clock.Clock) *Log {
	return &Log{
		agent:     agent,
		clk:       clk,
		chainHash: GenesisHash,
	}
}

// Record appends an entry for the given action and returns a copy of
// it. The context map is deep-copied before storage, so later caller
// mutations cannot reach the chained entry. A nil context is stored as
// an empty map.
func (l *Log) Record(action string, context map[string]any, outcome string) (Entry, error) {
	if context == nil {
		context = map[string]any{}
	}
	storedContext, err := codec.Clone(context)
	if err != nil {
		return Entry{}, fmt.Errorf("copying audit context for %q: %w", action, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Seq:       uint64(len(l.entries)),
		Timestamp: l.clk.Now().UTC().Format(time.RFC3339Nano),
		AgentID:   l.agent.ID(),
		Action:    action,
		Context:   storedContext,
		Outcome:   outcome,
		PrevHash:  l.chainHash,
	}
	entry.EntryHash, err = computeHash(entry)
	if err != nil {
		return Entry{}, err
	}

	l.chainHash = entry.EntryHash
	l.entries = append(l.entries, entry)
	return copyEntry(entry), nil
}

// VerifyChain replays every entry in sequence order, recomputing each
// hash from the stored fields. It returns false on the first entry
// whose recomputed hash disagrees with the stored EntryHash or whose
// PrevHash does not match the previous entry's recomputed hash. An
// empty log verifies as true.
func (l *Log) VerifyChain() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	previousHash := GenesisHash
	for _, entry := range l.entries {
		recomputed, err := computeHash(entry)
		if err != nil {
			return false
		}
		if recomputed != entry.EntryHash {
			return false
		}
		if entry.PrevHash != previousHash {
			return false
		}
		previousHash = recomputed
	}
	return true
}

// Export returns a snapshot copy of all entries in sequence order.
// Mutating the returned entries or their context maps has no effect on
// the log.
func (l *Log) Export() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make([]Entry, len(l.entries))
	for i, entry := range l.entries {
		snapshot[i] = copyEntry(entry)
	}
	return snapshot
}

// Len returns the number of entries in the log.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// copyEntry returns a deep copy of entry. Context maps can nest, so the
// copy goes through the deterministic codec. Entries produced by Record
// always survive the round trip; a failure here would mean the stored
// entry itself was never encodable, which Record rules out.
func copyEntry(entry Entry) Entry {
	copied := entry
	copiedContext, err := codec.Clone(entry.Context)
	if err != nil {
		copiedContext = map[string]any{}
	}
	copied.Context = copiedContext
	return copied
}
