package profile

import (
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
)

// Snapshot is a consistent read of the whole store: every profile file
// parsed (or its error), the reconciled index, and the label map. It is
// taken under the lock and then used lock-free.
type Snapshot struct {
	Labels Labels
	Creds  map[string]credResult
	Index  *Index
}

const unsavedNoMatch = "no saved profile matches auth.json"

// loadSnapshot reads the store. strict controls index handling: strict reads
// fail on a corrupt profiles.json, relaxed ones fall back to an empty index
// with a warning.
func loadSnapshot(p storePaths, strict bool, warn func(string)) (*Snapshot, error) {
	lock, err := AcquireLock(p.lockFile)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	creds, err := loadCredentialMap(p, warn)
	if err != nil {
		return nil, err
	}
	var idx *Index
	if strict {
		idx, err = readIndex(p.indexFile)
		if err != nil {
			return nil, err
		}
	} else {
		idx = readIndexRelaxed(p.indexFile, warn)
	}
	_ = pruneIndex(idx, p.profilesDir)
	for id := range creds {
		idx.entry(id)
	}
	return &Snapshot{
		Labels: labelsFromIndex(idx),
		Creds:  creds,
		Index:  idx,
	}, nil
}

// unsavedReason reports why the live credential counts as unsaved, or ""
// when it is saved (or there is nothing to save).
func unsavedReason(p storePaths, creds map[string]credResult) string {
	cred, ok := auth.ReadCredentialOpt(p.authFile)
	if !ok {
		return ""
	}
	identity, ok := auth.ExtractIdentity(cred)
	if !ok {
		return ""
	}
	if len(cachedProfileIDs(creds, identity)) == 0 {
		return unsavedNoMatch
	}
	return ""
}

// currentSavedID maps the live auth.json onto its primary saved profile id.
func currentSavedID(p storePaths, creds map[string]credResult) (string, bool) {
	cred, ok := auth.ReadCredentialOpt(p.authFile)
	if !ok {
		return "", false
	}
	identity, ok := auth.ExtractIdentity(cred)
	if !ok {
		return "", false
	}
	return pickPrimary(cachedProfileIDs(creds, identity))
}
