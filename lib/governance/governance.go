// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package governance wires the identity, audit, policy, and operator
// layers around the pipeline.
//
// A [Stack] owns one agent identity, one hash-chained audit log, one
// policy engine, and one operator kill switch. Its Staple and Verify
// methods are the governed entry points: every invocation checks the
// kill switch, evaluates the registered policies, and records each
// pipeline phase to the audit chain, success and failure alike. Callers
// that want the raw pipeline without governance use package stapler
// directly.
package governance

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xpii-foundation/xpii/lib/audit"
	"github.com/xpii-foundation/xpii/lib/clock"
	"github.com/xpii-foundation/xpii/lib/identity"
	"github.com/xpii-foundation/xpii/lib/operator"
	"github.com/xpii-foundation/xpii/lib/policy"
	"github.com/xpii-foundation/xpii/lib/stapler"
)

// Options configures a Stack. Zero values select a "stapler" agent
// name, the real clock, the default slog logger, and the system
// temporary directory for pipeline workspaces.
type Options struct {
	AgentName string
	WorkDir   string
	Clock     clock.Clock
	Logger    *slog.Logger
}

// Stack is one governed pipeline instance. The exported layers may be
// used directly: register extra policies on Policy, halt via Operator,
// export the chain from Audit. The Stack itself is safe for concurrent
// Staple and Verify calls; each call works in its own workspace.
type Stack struct {
	Agent    *identity.AgentIdentity
	Audit    *audit.Log
	Policy   *policy.Engine
	Operator *operator.Control

	clk     clock.Clock
	logger  *slog.Logger
	workDir string
}

// NewStack creates a governance stack with a fresh agent identity and
// an empty audit chain.
func NewStack(options Options) *Stack {
	if options.AgentName == "" {
		options.AgentName = "stapler"
	}
	if options.WorkDir == "" {
		options.WorkDir = os.TempDir()
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	agent := identity.New(options.AgentName, options.Clock)
	log := audit.NewLog(agent, options.Clock)
	return &Stack{
		Agent:    agent,
		Audit:    log,
		Policy:   policy.NewEngine(log),
		Operator: operator.NewControl(log),
		clk:      options.Clock,
		logger:   options.Logger,
		workDir:  options.WorkDir,
	}
}

// Staple runs the governed Unpack-Edit-Pack pipeline: embed provenance
// for author and sessionID into the package at inputPath and write the
// stapled package to outputPath. An empty sessionID generates one from
// the current time.
//
// The kill switch is checked first; a halted system records a BLOCKED
// entry and returns operator.ErrOperationBlocked without touching the
// input. Policy denial returns a *policy.DeniedError. Each pipeline
// phase records its own audit entry, including on failure.
func (s *Stack) Staple(inputPath, outputPath, author, sessionID string) (stapler.Record, error) {
	actionContext := map[string]any{
		"input_path":  inputPath,
		"output_path": outputPath,
		"author":      author,
	}
	if err := s.gate("staple", actionContext, policy.Context{
		"identity":    s.Agent,
		"author":      author,
		"input_path":  inputPath,
		"output_path": outputPath,
	}); err != nil {
		return stapler.Record{}, err
	}

	workDir, err := os.MkdirTemp(s.workDir, "xpii-staple-*")
	if err != nil {
		return stapler.Record{}, fmt.Errorf("creating pipeline workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	workspace, err := stapler.Unpack(inputPath, filepath.Join(workDir, "package"))
	if err != nil {
		s.recordPhase("unpack", actionContext, err)
		return stapler.Record{}, err
	}
	defer workspace.Destroy()
	s.recordPhase("unpack", map[string]any{
		"input_path":  inputPath,
		"fingerprint": workspace.SourceDigest().String(),
	}, nil)
	s.logger.Info("package unpacked",
		"input", inputPath, "fingerprint", workspace.SourceDigest().String())

	record, err := stapler.Inject(workspace, author, sessionID, s.clk)
	if err != nil {
		s.recordPhase("inject_metadata", actionContext, err)
		return stapler.Record{}, err
	}
	s.recordPhase("inject_metadata", map[string]any{
		"author":      record.Author,
		"session_id":  record.SessionID,
		"fingerprint": record.Fingerprint,
		"modified_at": record.ModifiedAt,
	}, nil)
	s.logger.Info("provenance injected",
		"author", record.Author, "session", record.SessionID)

	if err := workspace.Pack(outputPath); err != nil {
		s.recordPhase("pack", actionContext, err)
		return stapler.Record{}, err
	}
	s.recordPhase("pack", map[string]any{"output_path": outputPath}, nil)
	s.logger.Info("package stapled", "output", outputPath)

	return record, nil
}

// Verify reads back the provenance of the stapled package at path,
// under the same kill switch and policy gate as Staple. The policy
// context carries the agent name as the author, since verification
// authors nothing itself.
func (s *Stack) Verify(path string) (stapler.Verification, error) {
	actionContext := map[string]any{"input_path": path}
	if err := s.gate("verify", actionContext, policy.Context{
		"identity":   s.Agent,
		"author":     s.Agent.Name(),
		"input_path": path,
	}); err != nil {
		return stapler.Verification{}, err
	}

	verification, err := stapler.Verify(path)
	if err != nil {
		s.recordPhase("verify", actionContext, err)
		return stapler.Verification{}, err
	}
	s.recordPhase("verify", map[string]any{
		"input_path":  path,
		"author":      verification.Author,
		"session_id":  verification.SessionID,
		"fingerprint": verification.Fingerprint,
	}, nil)
	s.logger.Info("package verified",
		"input", path, "session", verification.SessionID)
	return verification, nil
}

// gate applies the kill switch and the policy engine to one action.
// Blocked and denied actions are audited before the error returns.
func (s *Stack) gate(action string, actionContext map[string]any, policyContext policy.Context) error {
	if err := s.Operator.AssertActive(); err != nil {
		if _, recordErr := s.Audit.Record(action, actionContext, "BLOCKED"); recordErr != nil {
			return fmt.Errorf("recording blocked %s: %w", action, recordErr)
		}
		s.logger.Warn("action blocked by operator", "action", action)
		return err
	}

	allowed, failures, err := s.Policy.Evaluate(action, policyContext)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.Warn("action denied by policy",
			"action", action, "failures", len(failures))
		return &policy.DeniedError{Action: action, Failures: failures}
	}
	return nil
}

// recordPhase appends one audit entry for a pipeline phase. A nil err
// records outcome "OK"; otherwise the outcome carries the error text.
// Audit failures here are logged, not returned: the phase itself
// already succeeded or failed on its own terms.
func (s *Stack) recordPhase(phase string, context map[string]any, err error) {
	outcome := "OK"
	if err != nil {
		outcome = "FAILED: " + err.Error()
	}
	if _, recordErr := s.Audit.Record(phase, context, outcome); recordErr != nil {
		s.logger.Error("recording audit entry failed",
			"phase", phase, "error", recordErr)
	}
}
