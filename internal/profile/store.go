package profile

import (
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/atomicio"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
)

// Store is the mutable view of the profile index held under the profiles
// lock. It exists for the span of one operation: load, mutate, save,
// release.
type Store struct {
	lock   *Lock
	paths  storePaths
	Labels Labels
	Index  *Index
}

// openStore acquires the lock and reads the index leniently, pruning stale
// entries and seeding one for every profile file on disk.
func openStore(p storePaths, warn func(string)) (*Store, error) {
	lock, err := AcquireLock(p.lockFile)
	if err != nil {
		return nil, err
	}
	idx := readIndexRelaxed(p.indexFile, warn)
	_ = pruneIndex(idx, p.profilesDir)
	ids, err := collectProfileIDs(p.profilesDir)
	if err != nil {
		lock.Release()
		return nil, err
	}
	for id := range ids {
		idx.entry(id)
	}
	return &Store{
		lock:   lock,
		paths:  p,
		Labels: labelsFromIndex(idx),
		Index:  idx,
	}, nil
}

// Save writes the index back: labels and entries are pruned against the
// files that still exist, then the label map is folded into the entries.
func (s *Store) Save() error {
	pruneLabels(s.Labels, s.paths.profilesDir)
	if err := pruneIndex(s.Index, s.paths.profilesDir); err != nil {
		return err
	}
	syncIndexLabels(s.Index, s.Labels)
	return writeIndex(s.paths.indexFile, s.Index)
}

// Close releases the profiles lock.
func (s *Store) Close() {
	s.lock.Release()
}

// syncCurrent mirrors a live auth.json back into the saved profile it
// belongs to, returning the synced id. Nothing to do when auth.json is
// absent or its identity resolves to no saved profile.
func syncCurrent(p storePaths, idx *Index) (string, error) {
	cred, ok := auth.ReadCredentialOpt(p.authFile)
	if !ok {
		return "", nil
	}
	id, err := resolveSyncID(p, idx, cred)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", nil
	}
	target := profilePathForID(p.profilesDir, id)
	if err := atomicio.CopyFile(p.authFile, target); err != nil {
		return "", err
	}
	label := labelForID(labelsFromIndex(idx), id)
	updateIndexEntry(idx, id, cred, label)
	return id, nil
}
