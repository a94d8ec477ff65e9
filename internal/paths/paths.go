// Package paths resolves the fixed on-disk layout the tool works against.
//
// Everything lives under the Codex CLI's home directory:
//
//	~/.codex/auth.json              live credential (owned by the Codex CLI)
//	~/.codex/profiles/<id>.json     saved profiles
//	~/.codex/profiles/profiles.json durable index
//	~/.codex/profiles/profiles.lock cross-process advisory lock
//	~/.codex/profiles/update.json   update-checker cache (ignored by scans)
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeOverrideEnv points the whole tool at an alternate home directory.
// Used by tests and by users with relocated Codex installs.
const HomeOverrideEnv = "CODEX_PROFILES_HOME"

// Paths is the bundle of absolute paths every operation works with.
type Paths struct {
	// CodexDir is the Codex CLI home (holds auth.json and config.toml).
	CodexDir string

	// AuthFile is the live credential file the managed CLI reads.
	AuthFile string

	// ProfilesDir holds one <id>.json per saved profile.
	ProfilesDir string

	// IndexFile is the durable profiles index (profiles.json).
	IndexFile string

	// LockFile is the zero-byte advisory lock sentinel.
	LockFile string

	// UpdateCacheFile is the update-checker cache; profile scans skip it.
	UpdateCacheFile string

	// SettingsFile holds tool settings (display preferences). YAML, so
	// profile scans never pick it up.
	SettingsFile string

	// ConfigFile is the Codex CLI's own config.toml, read for the usage
	// base URL and never written.
	ConfigFile string
}

// Resolve builds the path bundle from the user's home directory.
func Resolve() (Paths, error) {
	home, ok := resolveHomeDir()
	if !ok {
		return Paths{}, fmt.Errorf("cannot resolve home directory")
	}
	return ForHome(home), nil
}

// ForHome builds the path bundle rooted at an explicit home directory.
func ForHome(home string) Paths {
	codexDir := filepath.Join(home, ".codex")
	profiles := filepath.Join(codexDir, "profiles")
	return Paths{
		CodexDir:        codexDir,
		AuthFile:        filepath.Join(codexDir, "auth.json"),
		ProfilesDir:     profiles,
		IndexFile:       filepath.Join(profiles, "profiles.json"),
		LockFile:        filepath.Join(profiles, "profiles.lock"),
		UpdateCacheFile: filepath.Join(profiles, "update.json"),
		SettingsFile:    filepath.Join(profiles, "settings.yaml"),
		ConfigFile:      filepath.Join(codexDir, "config.toml"),
	}
}

func resolveHomeDir() (string, bool) {
	if override := os.Getenv(HomeOverrideEnv); override != "" {
		return override, true
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home, true
	}
	// os.UserHomeDir covers HOME/USERPROFILE; HOMEDRIVE+HOMEPATH is the last
	// resort for odd Windows environments.
	if drive, path := os.Getenv("HOMEDRIVE"), os.Getenv("HOMEPATH"); drive != "" && path != "" {
		return drive + path, true
	}
	return "", false
}

// Ensure creates the profiles directory (0700) and the lock sentinel, and
// verifies that none of the fixed paths is shadowed by the wrong kind of
// filesystem entry.
func (p Paths) Ensure() error {
	if info, err := os.Stat(p.ProfilesDir); err == nil && !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", p.ProfilesDir)
	}
	if err := os.MkdirAll(p.ProfilesDir, 0700); err != nil {
		return fmt.Errorf("create profiles directory %s: %w", p.ProfilesDir, err)
	}
	if err := os.Chmod(p.ProfilesDir, 0700); err != nil {
		return fmt.Errorf("set permissions on %s: %w", p.ProfilesDir, err)
	}

	for _, path := range []string{p.IndexFile, p.UpdateCacheFile, p.LockFile} {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return fmt.Errorf("%s exists and is not a file", path)
		}
	}

	f, err := os.OpenFile(p.LockFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("write lock file %s: %w", p.LockFile, err)
	}
	return f.Close()
}
