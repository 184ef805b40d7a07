// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xpii-foundation/xpii/lib/clock"
	"github.com/xpii-foundation/xpii/lib/identity"
)

func newTestLog(t *testing.T) (*Log, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))
	agent := identity.New("xpii-stapler", clk)
	return NewLog(agent, clk), clk
}

func TestRecordAssignsSequenceAndChain(t *testing.T) {
	log, clk := newTestLog(t)

	first, err := log.Record("unpack", map[string]any{"input_path": "a.docx"}, "OK")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	clk.Advance(time.Second)
	second, err := log.Record("pack", nil, "OK")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if first.Seq != 0 || second.Seq != 1 {
		t.Errorf("sequence numbers = %d, %d; want 0, 1", first.Seq, second.Seq)
	}
	if first.PrevHash != GenesisHash {
		t.Errorf("first PrevHash = %q, want %q", first.PrevHash, GenesisHash)
	}
	if second.PrevHash != first.EntryHash {
		t.Errorf("second PrevHash = %q, want first EntryHash %q", second.PrevHash, first.EntryHash)
	}
	if len(first.EntryHash) != 64 {
		t.Errorf("EntryHash length = %d, want 64", len(first.EntryHash))
	}
	if first.Timestamp != "2026-03-10T14:00:00Z" {
		t.Errorf("Timestamp = %q", first.Timestamp)
	}
}

func TestVerifyChain(t *testing.T) {
	log, _ := newTestLog(t)
	if !log.VerifyChain() {
		t.Error("empty log: VerifyChain = false")
	}

	for i := 0; i < 5; i++ {
		if _, err := log.Record("inject_metadata", map[string]any{"round": i}, "OK"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if !log.VerifyChain() {
		t.Error("untampered log: VerifyChain = false")
	}
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	log, _ := newTestLog(t)
	for i := 0; i < 4; i++ {
		if _, err := log.Record("pack", nil, "OK"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	// Reach into the log's storage the way an in-process attacker
	// would and alter one historical outcome.
	log.entries[1].Outcome = "TAMPERED"

	if log.VerifyChain() {
		t.Error("VerifyChain = true after mutating a stored entry")
	}
}

func TestVerifyChainDetectsRelinking(t *testing.T) {
	log, _ := newTestLog(t)
	for i := 0; i < 3; i++ {
		if _, err := log.Record("pack", nil, "OK"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	// Rewrite an entry and fix up its own hash. The successor's
	// PrevHash no longer matches, so the chain still fails.
	log.entries[1].Outcome = "TAMPERED"
	rehashed, err := computeHash(log.entries[1])
	if err != nil {
		t.Fatalf("computeHash: %v", err)
	}
	log.entries[1].EntryHash = rehashed

	if log.VerifyChain() {
		t.Error("VerifyChain = true after relinking a tampered entry")
	}
}

func TestExportIsACopy(t *testing.T) {
	log, _ := newTestLog(t)
	if _, err := log.Record("unpack", map[string]any{"input_path": "a.docx"}, "OK"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	exported := log.Export()
	exported[0].Outcome = "MUTATED"
	exported[0].Context["input_path"] = "evil.docx"

	if !log.VerifyChain() {
		t.Error("mutating an exported entry corrupted the log")
	}
	fresh := log.Export()
	if fresh[0].Outcome != "OK" {
		t.Errorf("stored Outcome = %q after export mutation", fresh[0].Outcome)
	}
	if fresh[0].Context["input_path"] != "a.docx" {
		t.Errorf("stored Context mutated through export: %v", fresh[0].Context)
	}
}

func TestRecordConcurrent(t *testing.T) {
	log, _ := newTestLog(t)

	const writers = 8
	const perWriter = 25

	var group sync.WaitGroup
	for w := 0; w < writers; w++ {
		group.Add(1)
		go func() {
			defer group.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := log.Record("pack", nil, "OK"); err != nil {
					t.Errorf("Record: %v", err)
					return
				}
			}
		}()
	}
	group.Wait()

	if log.Len() != writers*perWriter {
		t.Errorf("Len = %d, want %d", log.Len(), writers*perWriter)
	}
	if !log.VerifyChain() {
		t.Error("VerifyChain = false after concurrent records")
	}

	// Sequence numbers must be a gapless 0..n-1 run.
	for i, entry := range log.Export() {
		if entry.Seq != uint64(i) {
			t.Fatalf("entry %d has Seq %d", i, entry.Seq)
		}
	}
}

func TestRecordRejectsUnencodableContext(t *testing.T) {
	log, _ := newTestLog(t)
	_, err := log.Record("unpack", map[string]any{"bad": make(chan int)}, "OK")
	if err == nil {
		t.Fatal("Record with channel in context: expected error")
	}
	if log.Len() != 0 {
		t.Errorf("failed Record still appended an entry, Len = %d", log.Len())
	}
}

func TestWriteJSON(t *testing.T) {
	log, _ := newTestLog(t)
	if _, err := log.Record("operator_halt", map[string]any{"reason": "drill"}, "HALTED"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	path := filepath.Join(t.TempDir(), "trail.json")
	if err := WriteJSON(log, path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var decoded []Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Action != "operator_halt" {
		t.Errorf("decoded trail = %+v", decoded)
	}
}
