// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Rules is an operator-authored extension of the builtin policy set,
// loaded from a JSONC file (JSON extended with // line comments,
// /* block comments */, and trailing commas). Rules add restrictions;
// they cannot relax the builtins.
type Rules struct {
	// DeniedPathSubstrings lists substrings that must not appear in
	// the input_path or output_path context fields, in addition to the
	// builtin ".." traversal guard.
	DeniedPathSubstrings []string `json:"denied_path_substrings"`

	// RequiredContextKeys lists context keys that must be present and
	// non-empty for every governed action.
	RequiredContextKeys []string `json:"required_context_keys"`
}

// ParseRules strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Rules value.
func ParseRules(data []byte) (*Rules, error) {
	stripped := jsonc.ToJSON(data)

	var rules Rules
	if err := json.Unmarshal(stripped, &rules); err != nil {
		return nil, fmt.Errorf("parsing policy rules: %w", err)
	}
	return &rules, nil
}

// LoadRules reads a JSONC rules file from disk and parses it.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// ApplyRules registers the rule-derived policies on the engine. Each
// rules file contributes at most two named policies, "denied_paths" and
// "required_context"; applying a second rules file overwrites them.
func (e *Engine) ApplyRules(rules *Rules) {
	if len(rules.DeniedPathSubstrings) > 0 {
		denied := append([]string(nil), rules.DeniedPathSubstrings...)
		e.Register("denied_paths", func(ctx Context) (bool, string) {
			for _, key := range []string{"input_path", "output_path"} {
				path := ctx.stringField(key)
				for _, substring := range denied {
					if strings.Contains(path, substring) {
						return false, fmt.Sprintf("denied substring %q in %q: %q", substring, key, path)
					}
				}
			}
			return true, "no denied path substrings"
		})
	}
	if len(rules.RequiredContextKeys) > 0 {
		required := append([]string(nil), rules.RequiredContextKeys...)
		e.Register("required_context", func(ctx Context) (bool, string) {
			for _, key := range required {
				if strings.TrimSpace(ctx.stringField(key)) == "" {
					return false, fmt.Sprintf("required context key %q is missing or empty", key)
				}
			}
			return true, "required context keys present"
		})
	}
}
