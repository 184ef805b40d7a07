// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package stapler

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/xpii-foundation/xpii/lib/binhash"
)

// contentTypesPart is the one part every OOXML package must contain.
const contentTypesPart = "[Content_Types].xml"

// Workspace is the ephemeral extraction directory of one pipeline
// invocation. It exclusively owns its directory; Pack and Destroy
// remove it. A Workspace must not be shared across concurrent pipeline
// invocations.
type Workspace struct {
	root         string
	sourceDigest binhash.Digest
}

// Unpack reads the archive at sourcePath, computes the SHA-256 digest
// of its raw bytes, and extracts every member into workDir. Any
// pre-existing directory at workDir is destroyed first; there is no
// stale-state reuse. Returns ErrArchive (wrapped) when the input is not
// a valid zip container or lacks [Content_Types].xml.
func Unpack(sourcePath, workDir string) (*Workspace, error) {
	digest, err := binhash.HashFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting source: %w", err)
	}

	reader, err := zip.OpenReader(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w: %v", sourcePath, ErrArchive, err)
	}
	defer reader.Close()

	hasContentTypes := false
	for _, member := range reader.File {
		if member.Name == contentTypesPart {
			hasContentTypes = true
			break
		}
	}
	if !hasContentTypes {
		return nil, fmt.Errorf("%s: %w: missing %s", sourcePath, ErrArchive, contentTypesPart)
	}

	if err := os.RemoveAll(workDir); err != nil {
		return nil, fmt.Errorf("clearing workspace %s: %w", workDir, err)
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace %s: %w", workDir, err)
	}

	workspace := &Workspace{root: workDir, sourceDigest: digest}
	for _, member := range reader.File {
		if err := extractMember(workDir, member); err != nil {
			workspace.Destroy()
			return nil, err
		}
	}
	return workspace, nil
}

// extractMember writes one archive member into the workspace, rejecting
// member names that would escape it.
func extractMember(root string, member *zip.File) error {
	target := filepath.Join(root, filepath.FromSlash(member.Name))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return fmt.Errorf("%w: member %q escapes the workspace", ErrArchive, member.Name)
	}

	if member.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", member.Name, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", member.Name, err)
	}
	source, err := member.Open()
	if err != nil {
		return fmt.Errorf("opening member %s: %w: %v", member.Name, ErrArchive, err)
	}
	defer source.Close()

	destination, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return fmt.Errorf("extracting member %s: %w", member.Name, err)
	}
	return destination.Close()
}

// Root returns the workspace directory.
func (w *Workspace) Root() string { return w.root }

// SourceDigest returns the SHA-256 digest of the original source
// package bytes, captured at unpack time.
func (w *Workspace) SourceDigest() binhash.Digest { return w.sourceDigest }

// partPath returns the on-disk path of a package part inside the
// workspace, given its slash-separated archive name.
func (w *Workspace) partPath(name string) string {
	return filepath.Join(w.root, filepath.FromSlash(name))
}

// Pack walks the workspace and writes every file into a new
// DEFLATE-compressed zip archive at outputPath. Member order is the
// lexicographic order of the slash-separated relative paths, and member
// timestamps are fixed, so packing byte-identical workspaces yields
// byte-identical archives. The workspace is destroyed when Pack
// returns, on success and on failure alike.
func (w *Workspace) Pack(outputPath string) error {
	defer w.Destroy()

	var members []string
	err := filepath.WalkDir(w.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		members = append(members, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking workspace: %w", err)
	}
	// Directory traversal order is not inherently stable; the total
	// order over member paths is what makes repacking reproducible.
	sort.Strings(members)

	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}

	writer := zip.NewWriter(output)
	writer.RegisterCompressor(zip.Deflate, func(destination io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(destination, flate.DefaultCompression)
	})

	for _, name := range members {
		if err := packMember(writer, w.partPath(name), name); err != nil {
			writer.Close()
			output.Close()
			os.Remove(outputPath)
			return err
		}
	}

	if err := writer.Close(); err != nil {
		output.Close()
		os.Remove(outputPath)
		return fmt.Errorf("finalizing %s: %w", outputPath, err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outputPath, err)
	}
	return nil
}

// packMember writes one workspace file into the archive under its
// relative path. The header leaves the modification time at the zip
// epoch: filesystem mtimes vary between runs and would break archive
// reproducibility.
func packMember(writer *zip.Writer, path, name string) error {
	source, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer source.Close()

	destination, err := writer.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("creating member %s: %w", name, err)
	}
	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("writing member %s: %w", name, err)
	}
	return nil
}

// Destroy removes the workspace directory. Safe to call more than
// once.
func (w *Workspace) Destroy() error {
	if w.root == "" {
		return nil
	}
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("destroying workspace %s: %w", w.root, err)
	}
	return nil
}
