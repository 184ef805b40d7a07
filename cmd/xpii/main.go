// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// xpii is the command-line front end of the XPII Chain provenance
// stapler. "xpii staple" runs the governed Unpack-Edit-Pack pipeline
// over a .docx package; "xpii verify" reads the embedded provenance
// back out of a stapled package. Both commands can export the full
// hash-chained audit trail of the invocation with --audit-out.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/xpii-foundation/xpii/lib/audit"
	"github.com/xpii-foundation/xpii/lib/config"
	"github.com/xpii-foundation/xpii/lib/governance"
	"github.com/xpii-foundation/xpii/lib/policy"
	"github.com/xpii-foundation/xpii/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("a command is required")
	}

	switch os.Args[1] {
	case "staple":
		return runStaple(os.Args[2:])
	case "verify":
		return runVerify(os.Args[2:])
	case "version", "--version":
		fmt.Printf("xpii %s\n", version.Info())
		return nil
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `xpii - OOXML provenance stapler

Usage:
  xpii staple [flags] <input.docx>   embed provenance into a package
  xpii verify [flags] <input.docx>   read provenance back out
  xpii version                       print version information

Run "xpii staple --help" or "xpii verify --help" for command flags.
`)
}

// loadConfig resolves the effective configuration: an explicit --config
// path wins, then the XPII_CONFIG environment variable, then built-in
// defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("XPII_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// newStack builds a governed pipeline stack from the configuration and
// applies the configured policy rules file, if any.
func newStack(cfg *config.Config, logger *slog.Logger) (*governance.Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	stack := governance.NewStack(governance.Options{
		AgentName: cfg.Staple.AgentName,
		WorkDir:   cfg.Paths.Work,
		Logger:    logger,
	})
	if cfg.Policy.RulesFile != "" {
		rules, err := policy.LoadRules(cfg.Policy.RulesFile)
		if err != nil {
			return nil, err
		}
		stack.Policy.ApplyRules(rules)
	}
	return stack, nil
}

// exportAudit writes the audit trail to path when path is non-empty.
func exportAudit(stack *governance.Stack, path string) error {
	if path == "" {
		return nil
	}
	if err := audit.WriteJSON(stack.Audit, path); err != nil {
		return fmt.Errorf("exporting audit trail: %w", err)
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runStaple(args []string) error {
	var configPath, author, sessionID, outputPath, auditOut string
	var verbose bool

	flagSet := pflag.NewFlagSet("xpii staple", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to xpii.yaml configuration file")
	flagSet.StringVar(&author, "author", "", "dc:creator value to embed (default from configuration)")
	flagSet.StringVar(&sessionID, "session", "", "session identifier (default: derived from the current time)")
	flagSet.StringVarP(&outputPath, "output", "o", "", "output package path (default: stapled_<input> next to the input)")
	flagSet.StringVar(&auditOut, "audit-out", "", "write the audit trail to this JSON file")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log each pipeline phase")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("staple requires exactly one input package, got %d arguments", flagSet.NArg())
	}
	inputPath := flagSet.Arg(0)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if author == "" {
		author = cfg.Staple.DefaultAuthor
	}
	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(inputPath), "stapled_"+filepath.Base(inputPath))
	}

	stack, err := newStack(cfg, newLogger(verbose))
	if err != nil {
		return err
	}

	record, stapleErr := stack.Staple(inputPath, outputPath, author, sessionID)
	if exportErr := exportAudit(stack, auditOut); exportErr != nil && stapleErr == nil {
		stapleErr = exportErr
	}
	if stapleErr != nil {
		return stapleErr
	}

	fmt.Printf("stapled %s -> %s\n", inputPath, outputPath)
	fmt.Printf("  author:      %s\n", record.Author)
	fmt.Printf("  session:     %s\n", record.SessionID)
	fmt.Printf("  fingerprint: %s\n", record.Fingerprint)
	fmt.Printf("  modified:    %s\n", record.ModifiedAt)
	return nil
}

func runVerify(args []string) error {
	var configPath, auditOut string
	var verbose, asJSON bool

	flagSet := pflag.NewFlagSet("xpii verify", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to xpii.yaml configuration file")
	flagSet.StringVar(&auditOut, "audit-out", "", "write the audit trail to this JSON file")
	flagSet.BoolVar(&asJSON, "json", false, "print the verification result as JSON")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log each pipeline phase")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("verify requires exactly one input package, got %d arguments", flagSet.NArg())
	}
	inputPath := flagSet.Arg(0)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	stack, err := newStack(cfg, newLogger(verbose))
	if err != nil {
		return err
	}

	verification, verifyErr := stack.Verify(inputPath)
	if exportErr := exportAudit(stack, auditOut); exportErr != nil && verifyErr == nil {
		verifyErr = exportErr
	}
	if verifyErr != nil {
		return verifyErr
	}

	if asJSON {
		encoded, err := json.MarshalIndent(verification, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding verification result: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	}

	fmt.Printf("provenance of %s\n", inputPath)
	fmt.Printf("  author:      %s\n", verification.Author)
	fmt.Printf("  session:     %s\n", verification.SessionID)
	fmt.Printf("  fingerprint: %s\n", verification.Fingerprint)
	fmt.Printf("  modified:    %s\n", verification.ModifiedAt)
	for key, value := range verification.Extra {
		fmt.Printf("  %s: %s\n", key, value)
	}
	return nil
}
