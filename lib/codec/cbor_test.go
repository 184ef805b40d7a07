// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestMarshalDeterministic(t *testing.T) {
	// Maps with identical contents must serialize identically
	// regardless of insertion order. The audit hash chain depends on
	// this property.
	first := map[string]any{"action": "pack", "seq": uint64(3), "outcome": "OK"}
	second := map[string]any{"outcome": "OK", "seq": uint64(3), "action": "pack"}

	firstBytes, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal(first): %v", err)
	}
	secondBytes, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal(second): %v", err)
	}
	if !bytes.Equal(firstBytes, secondBytes) {
		t.Errorf("insertion order changed encoding:\n  %x\n  %x", firstBytes, secondBytes)
	}
}

func TestMarshalRepeatable(t *testing.T) {
	value := map[string]any{
		"nested": map[string]any{"b": "two", "a": "one"},
		"list":   []any{"x", "y"},
	}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("repeated Marshal of same value produced different bytes")
	}
}

func TestUnmarshalAnyMapType(t *testing.T) {
	data, err := Marshal(map[string]any{"key": "value"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	result, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if result["key"] != "value" {
		t.Errorf("decoded[key] = %v", result["key"])
	}
}

func TestClone(t *testing.T) {
	original := map[string]any{
		"failures": []any{"one", "two"},
		"count":    uint64(2),
	}
	copied, err := Clone(original)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	// Mutating the copy must not affect the original.
	copied["count"] = uint64(99)
	copied["failures"].([]any)[0] = "mutated"

	if original["count"] != uint64(2) {
		t.Error("mutating clone changed original count")
	}
	if original["failures"].([]any)[0] != "one" {
		t.Error("mutating clone changed original slice")
	}
}
