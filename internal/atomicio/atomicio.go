// Package atomicio provides write-temp-then-rename file operations.
//
// Every piece of persistent state in this tool (the live auth file, the
// stored profile files, the profiles index) is replaced atomically so that a
// crash or a concurrent reader never observes a half-written JSON document.
package atomicio

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WriteFile atomically replaces path with contents.
//
// If the target already exists its permissions are preserved; otherwise the
// file is created with mode 0600 (these are credential files).
func WriteFile(path string, contents []byte) error {
	mode := fs.FileMode(0600)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return WriteFileMode(path, contents, mode)
}

// WriteFileMode atomically replaces path with contents using the given mode.
func WriteFileMode(path string, contents []byte, mode fs.FileMode) error {
	parent := filepath.Dir(path)
	if parent == "" || path == "" {
		return fmt.Errorf("cannot resolve parent directory for %q", path)
	}
	if err := os.MkdirAll(parent, 0700); err != nil {
		return fmt.Errorf("create directory %s: %w", parent, err)
	}

	name := filepath.Base(path)
	if name == "" || name == "." || name == string(os.PathSeparator) {
		return fmt.Errorf("invalid file name %q", path)
	}

	tmpPath := filepath.Join(parent, fmt.Sprintf(".%s.tmp-%s", name, uuid.NewString()))
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}

	if _, err := f.Write(contents); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}

	// The open mode is masked by the process umask; re-assert it so a copied
	// profile keeps the source's exact permissions.
	if err := f.Chmod(mode); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("set temp file permissions for %s: %w", path, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file for %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// CopyFile copies source to dest with the same atomic-replace semantics as
// WriteFile, carrying over the source file's permissions.
func CopyFile(source, dest string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("read metadata for %s: %w", source, err)
	}
	contents, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}
	return WriteFileMode(dest, contents, info.Mode().Perm())
}
