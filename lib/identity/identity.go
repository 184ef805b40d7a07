// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity provides cryptographic agent identities.
//
// Every pipeline session runs under an AgentIdentity: a globally unique
// identifier derived from a random 128-bit seed. Identities carry the
// "AGENT:" prefix so they are always distinguishable from human-user
// identifiers in audit trails. Revocation is one-way; a revoked
// identity never verifies again.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xpii-foundation/xpii/lib/clock"
)

// Prefix marks agent identifiers. It participates in the identity hash
// and in the rendered identity string, so it is a protocol constant.
const Prefix = "AGENT"

// idHashLength is the number of hex characters of the identity hash
// included in the rendered identity string.
const idHashLength = 16

// AgentIdentity is a cryptographic, unique identity for one pipeline
// session. The name and seed are fixed at creation; only the revocation
// flag changes afterwards, and only in one direction.
type AgentIdentity struct {
	name      string
	seed      string
	hash      string
	createdAt time.Time
	revoked   atomic.Bool
}

// New creates an identity for the given agent name, seeding it with a
// fresh random 128-bit value. The creation time is read from clk.
func New(name string, clk clock.Clock) *AgentIdentity {
	seed := uuid.NewString()
	return &AgentIdentity{
		name:      name,
		seed:      seed,
		hash:      identityHash(name, seed),
		createdAt: clk.Now().UTC(),
	}
}

// identityHash computes the SHA-256 hex digest over the canonical
// "PREFIX:name:seed" string.
func identityHash(name, seed string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%s:%s", Prefix, name, seed))
	return hex.EncodeToString(sum[:])
}

// ID returns the globally unique identity string, e.g.
// "AGENT:3fa9c2d07b4e8a11".
func (a *AgentIdentity) ID() string {
	return Prefix + ":" + a.hash[:idHashLength]
}

// Name returns the agent name the identity was created with.
func (a *AgentIdentity) Name() string {
	return a.name
}

// CreatedAt returns the identity's creation time in UTC.
func (a *AgentIdentity) CreatedAt() time.Time {
	return a.createdAt
}

// Revoked reports whether the identity has been revoked.
func (a *AgentIdentity) Revoked() bool {
	return a.revoked.Load()
}

// Revoke revokes the identity. The transition is one-way: there is no
// un-revoke, and every subsequent Verify returns false.
func (a *AgentIdentity) Revoke() {
	a.revoked.Store(true)
}

// Verify recomputes the identity hash from the stored name and seed and
// checks it against the stored hash. Returns false if the identity is
// revoked or if the recomputation disagrees with the stored hash.
func (a *AgentIdentity) Verify() bool {
	if a.revoked.Load() {
		return false
	}
	return a.hash == identityHash(a.name, a.seed)
}
