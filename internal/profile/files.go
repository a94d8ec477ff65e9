package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
)

// isProfileFile keeps *.json files and excludes the store's own metadata.
func isProfileFile(name string) bool {
	if filepath.Ext(name) != ".json" {
		return false
	}
	base := filepath.Base(name)
	return base != "profiles.json" && base != "update.json"
}

// profileFiles lists the profile file paths under profilesDir, sorted by
// name. A missing directory is an empty store, not an error.
func profileFiles(profilesDir string) ([]string, error) {
	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read profiles directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isProfileFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(profilesDir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func profileIDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".json")
}

func profilePathForID(profilesDir, id string) string {
	return filepath.Join(profilesDir, id+".json")
}

func collectProfileIDs(profilesDir string) (map[string]struct{}, error) {
	files, err := profileFiles(profilesDir)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(files))
	for _, path := range files {
		if id := profileIDFromPath(path); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// credResult is a profile file that either parsed into a credential or left
// an error behind when removal of the corrupt file also failed.
type credResult struct {
	Cred auth.Credential
	Err  error
}

// loadCredentialMap reads every profile file. A file that no longer parses
// is removed on the spot (its id also leaves the index) and reported through
// warn; if even the removal fails the id stays in the map carrying the error
// so list/status can surface it.
func loadCredentialMap(p storePaths, warn func(string)) (map[string]credResult, error) {
	files, err := profileFiles(p.profilesDir)
	if err != nil {
		return nil, err
	}
	creds := map[string]credResult{}
	var removed []string
	for _, path := range files {
		id := profileIDFromPath(path)
		if id == "" {
			continue
		}
		cred, err := auth.ReadCredential(path)
		if err == nil {
			creds[id] = credResult{Cred: cred}
			continue
		}
		if removeErr := os.Remove(path); removeErr != nil {
			creds[id] = credResult{Err: fmt.Errorf("failed to remove invalid profile %s: %w", path, removeErr)}
			continue
		}
		removed = append(removed, id)
		if warn != nil {
			warn(fmt.Sprintf("Removed invalid profile %s (%s)", path, normalizeError(err.Error())))
		}
	}
	if len(removed) > 0 {
		idx := readIndexRelaxed(p.indexFile, warn)
		for _, id := range removed {
			delete(idx.Profiles, id)
		}
		_ = writeIndex(p.indexFile, idx)
	}
	return creds, nil
}

// orderedIDs returns the map's ids in sorted order, the canonical listing
// order everywhere.
func orderedIDs(creds map[string]credResult) []string {
	ids := make([]string, 0, len(creds))
	for id := range creds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
