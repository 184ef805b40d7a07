// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"strings"

	"github.com/xpii-foundation/xpii/lib/audit"
	"github.com/xpii-foundation/xpii/lib/identity"
)

// Context carries the fields a policy evaluates: author, input_path,
// output_path, and the agent identity under the "identity" key.
type Context map[string]any

// Identity returns the agent identity from the context, or nil if
// absent or of the wrong type.
func (c Context) Identity() *identity.AgentIdentity {
	agent, _ := c["identity"].(*identity.AgentIdentity)
	return agent
}

// stringField returns the named context field as a string. Absent or
// non-string fields read as "".
func (c Context) stringField(key string) string {
	value, _ := c[key].(string)
	return value
}

// Policy is a pure, deterministic predicate over an action context.
// It returns whether the action is allowed and a human-readable reason.
type Policy func(ctx Context) (allowed bool, reason string)

// Engine evaluates named policies against action contexts and records
// every verdict to the audit log. Policies run in registration order;
// predicates are independent, so the order only affects the ordering of
// failure reasons.
type Engine struct {
	log      *audit.Log
	names    []string
	policies map[string]Policy
}

// NewEngine creates an engine bound to the given audit log with the
// builtin policies registered: the agent identity must be present and
// verify, the author field must be non-empty after trimming, and
// neither input_path nor output_path may contain "..".
func NewEngine(log *audit.Log) *Engine {
	engine := &Engine{
		log:      log,
		policies: make(map[string]Policy),
	}
	engine.Register("identity_must_be_valid", policyIdentityMustBeValid)
	engine.Register("no_empty_author", policyNoEmptyAuthor)
	engine.Register("no_path_traversal", policyNoPathTraversal)
	return engine
}

// Register adds or overwrites a named policy. Overwriting keeps the
// name's original position in the evaluation order. No execution
// happens at registration time.
func (e *Engine) Register(name string, policy Policy) {
	if _, exists := e.policies[name]; !exists {
		e.names = append(e.names, name)
	}
	e.policies[name] = policy
}

// Evaluate runs every registered policy against ctx and collects a
// formatted failure reason for each denial. The action is allowed only
// when no policy denies. One audit entry is recorded unconditionally,
// with action label "policy_evaluate:<action>" and outcome "ALLOWED" or
// "DENIED". The returned error covers audit recording only, never a
// policy verdict.
func (e *Engine) Evaluate(action string, ctx Context) (allowed bool, failures []string, err error) {
	failures = []string{}
	for _, name := range e.names {
		policyAllowed, reason := e.policies[name](ctx)
		if !policyAllowed {
			failures = append(failures, fmt.Sprintf("[POLICY:%s] %s", name, reason))
		}
	}
	allowed = len(failures) == 0

	outcome := "ALLOWED"
	if !allowed {
		outcome = "DENIED"
	}
	failureContext := make([]any, len(failures))
	for i, failure := range failures {
		failureContext[i] = failure
	}
	if _, err := e.log.Record("policy_evaluate:"+action, map[string]any{
		"policy_count": len(e.policies),
		"failures":     failureContext,
	}, outcome); err != nil {
		return allowed, failures, fmt.Errorf("recording policy verdict: %w", err)
	}
	return allowed, failures, nil
}

// DeniedError is returned by governed actions when one or more
// policies deny. It carries the full formatted failure list.
type DeniedError struct {
	Action   string
	Failures []string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("action %q denied by policy: %s", e.Action, strings.Join(e.Failures, "; "))
}

// Builtin policies. Deterministic, no I/O, no shared state.

func policyIdentityMustBeValid(ctx Context) (bool, string) {
	agent := ctx.Identity()
	if agent == nil {
		return false, "no agent identity present in context"
	}
	if !agent.Verify() {
		return false, fmt.Sprintf("agent identity %q is invalid or revoked", agent.ID())
	}
	return true, "identity verified"
}

func policyNoEmptyAuthor(ctx Context) (bool, string) {
	if strings.TrimSpace(ctx.stringField("author")) == "" {
		return false, "author field must not be empty"
	}
	return true, "author field present"
}

func policyNoPathTraversal(ctx Context) (bool, string) {
	for _, key := range []string{"input_path", "output_path"} {
		if path := ctx.stringField(key); strings.Contains(path, "..") {
			return false, fmt.Sprintf("path traversal detected in %q: %q", key, path)
		}
	}
	return true, "no path traversal detected"
}
