// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xpii-foundation/xpii/lib/audit"
	"github.com/xpii-foundation/xpii/lib/clock"
	"github.com/xpii-foundation/xpii/lib/identity"
)

func newTestEngine(t *testing.T) (*Engine, *audit.Log, *identity.AgentIdentity) {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	agent := identity.New("xpii-stapler", clk)
	log := audit.NewLog(agent, clk)
	return NewEngine(log), log, agent
}

func validContext(agent *identity.AgentIdentity) Context {
	return Context{
		"identity":    agent,
		"author":      "Axiom",
		"input_path":  "in/report.docx",
		"output_path": "out/stapled_report.docx",
	}
}

func TestEvaluateAllows(t *testing.T) {
	engine, log, agent := newTestEngine(t)

	allowed, failures, err := engine.Evaluate("staple", validContext(agent))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !allowed {
		t.Errorf("Evaluate denied a valid context: %v", failures)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v, want none", failures)
	}

	entries := log.Export()
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	if entries[0].Action != "policy_evaluate:staple" {
		t.Errorf("audit action = %q", entries[0].Action)
	}
	if entries[0].Outcome != "ALLOWED" {
		t.Errorf("audit outcome = %q, want ALLOWED", entries[0].Outcome)
	}
}

func TestEvaluateDeniesEmptyAuthor(t *testing.T) {
	engine, log, agent := newTestEngine(t)
	ctx := validContext(agent)
	ctx["author"] = "   "

	allowed, failures, err := engine.Evaluate("staple", ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if allowed {
		t.Error("Evaluate allowed an empty author")
	}
	if len(failures) != 1 || !strings.Contains(failures[0], "no_empty_author") {
		t.Errorf("failures = %v, want one mentioning no_empty_author", failures)
	}
	if entries := log.Export(); entries[0].Outcome != "DENIED" {
		t.Errorf("audit outcome = %q, want DENIED", entries[0].Outcome)
	}
}

func TestEvaluateDeniesPathTraversal(t *testing.T) {
	engine, _, agent := newTestEngine(t)
	ctx := validContext(agent)
	ctx["output_path"] = "../../etc/passwd"

	allowed, failures, err := engine.Evaluate("staple", ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if allowed {
		t.Error("Evaluate allowed a traversal path")
	}
	if len(failures) != 1 || !strings.Contains(failures[0], "no_path_traversal") {
		t.Errorf("failures = %v", failures)
	}
}

func TestEvaluateDeniesMissingIdentity(t *testing.T) {
	engine, _, agent := newTestEngine(t)
	ctx := validContext(agent)
	delete(ctx, "identity")

	allowed, failures, err := engine.Evaluate("staple", ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if allowed {
		t.Error("Evaluate allowed a context without identity")
	}
	if len(failures) != 1 || !strings.Contains(failures[0], "identity_must_be_valid") {
		t.Errorf("failures = %v", failures)
	}
}

func TestEvaluateDeniesRevokedIdentity(t *testing.T) {
	engine, _, agent := newTestEngine(t)
	agent.Revoke()

	allowed, failures, err := engine.Evaluate("staple", validContext(agent))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if allowed {
		t.Error("Evaluate allowed a revoked identity")
	}
	if len(failures) != 1 || !strings.Contains(failures[0], "revoked") {
		t.Errorf("failures = %v", failures)
	}
}

func TestRegisterCustomPolicy(t *testing.T) {
	engine, _, agent := newTestEngine(t)
	engine.Register("docx_only", func(ctx Context) (bool, string) {
		if !strings.HasSuffix(ctx.stringField("input_path"), ".docx") {
			return false, "input must be a .docx package"
		}
		return true, "input is a .docx package"
	})

	ctx := validContext(agent)
	ctx["input_path"] = "in/report.pdf"
	allowed, failures, err := engine.Evaluate("staple", ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if allowed {
		t.Error("custom policy did not deny")
	}
	if len(failures) != 1 || !strings.Contains(failures[0], "[POLICY:docx_only]") {
		t.Errorf("failures = %v", failures)
	}
}

func TestRegisterOverwriteKeepsOrder(t *testing.T) {
	engine, _, agent := newTestEngine(t)
	engine.Register("extra_a", func(Context) (bool, string) { return false, "a" })
	engine.Register("extra_b", func(Context) (bool, string) { return false, "b" })
	// Overwrite the first; it must keep its evaluation slot.
	engine.Register("extra_a", func(Context) (bool, string) { return false, "a2" })

	_, failures, err := engine.Evaluate("staple", validContext(agent))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(failures) != 2 {
		t.Fatalf("failures = %v", failures)
	}
	if !strings.Contains(failures[0], "a2") || !strings.Contains(failures[1], "b") {
		t.Errorf("failure order = %v, want extra_a before extra_b", failures)
	}
}

func TestApplyRules(t *testing.T) {
	engine, _, agent := newTestEngine(t)

	rulesSource := `{
		// Operator rules for the staging fleet.
		"denied_path_substrings": ["/etc/", "~"],
		"required_context_keys": ["author"],
	}`
	path := filepath.Join(t.TempDir(), "rules.jsonc")
	if err := os.WriteFile(path, []byte(rulesSource), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	engine.ApplyRules(rules)

	ctx := validContext(agent)
	ctx["output_path"] = "/etc/shadow"
	allowed, failures, err := engine.Evaluate("staple", ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if allowed {
		t.Error("rules did not deny /etc/ output path")
	}
	if len(failures) != 1 || !strings.Contains(failures[0], "denied_paths") {
		t.Errorf("failures = %v", failures)
	}
}

func TestDeniedError(t *testing.T) {
	err := &DeniedError{Action: "staple", Failures: []string{"[POLICY:no_empty_author] author field must not be empty"}}
	if !strings.Contains(err.Error(), "staple") || !strings.Contains(err.Error(), "no_empty_author") {
		t.Errorf("Error() = %q", err.Error())
	}
}
