package profile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenStoreSeedsEntries(t *testing.T) {
	p := testPaths(t)
	writeProfileFile(t, p, "alice@x.com-plus", tokenSpec{accountID: "ws-a", email: "alice@x.com", plan: "plus"})

	store, err := openStore(newStorePaths(p), nil)
	require.NoError(t, err)
	defer store.Close()
	require.Contains(t, store.Index.Profiles, "alice@x.com-plus")
}

func TestStoreSavePrunes(t *testing.T) {
	p := testPaths(t)
	writeProfileFile(t, p, "kept", tokenSpec{accountID: "ws-a", email: "a@x.com", plan: "plus"})

	store, err := openStore(newStorePaths(p), nil)
	require.NoError(t, err)
	store.Index.entry("phantom")
	store.Labels["ghost"] = "phantom"
	store.Labels["real"] = "kept"
	require.NoError(t, store.Save())
	store.Close()

	idx, err := readIndex(p.IndexFile)
	require.NoError(t, err)
	require.NotContains(t, idx.Profiles, "phantom")
	require.Equal(t, "real", idx.Profiles["kept"].Label)
}

func TestLoadCredentialMapRemovesInvalid(t *testing.T) {
	p := testPaths(t)
	writeProfileFile(t, p, "good", tokenSpec{accountID: "ws-a", email: "a@x.com", plan: "plus"})
	badPath := filepath.Join(p.ProfilesDir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{broken"), 0o600))
	idx := newIndex()
	idx.entry("bad")
	idx.entry("good")
	require.NoError(t, writeIndex(p.IndexFile, idx))

	var warnings []string
	creds, err := loadCredentialMap(newStorePaths(p), func(msg string) { warnings = append(warnings, msg) })
	require.NoError(t, err)
	require.Contains(t, creds, "good")
	require.NotContains(t, creds, "bad")
	require.False(t, fileExists(badPath))
	require.NotEmpty(t, warnings)

	// The removed id also left the index on disk.
	reloaded, err := readIndex(p.IndexFile)
	require.NoError(t, err)
	require.NotContains(t, reloaded.Profiles, "bad")
}

func TestLoadCredentialMapIgnoresMetadataFiles(t *testing.T) {
	p := testPaths(t)
	require.NoError(t, os.WriteFile(p.IndexFile, []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(p.UpdateCacheFile, []byte("{}"), 0o600))
	writeProfileFile(t, p, "only", tokenSpec{accountID: "ws-a", email: "a@x.com", plan: "plus"})

	creds, err := loadCredentialMap(newStorePaths(p), nil)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	require.Contains(t, creds, "only")
	require.True(t, fileExists(p.UpdateCacheFile))
}

func TestLoadSnapshotStrictFailsOnBrokenIndex(t *testing.T) {
	p := testPaths(t)
	require.NoError(t, os.WriteFile(p.IndexFile, []byte("nope"), 0o600))

	_, err := loadSnapshot(newStorePaths(p), true, nil)
	require.ErrorContains(t, err, "not valid JSON")

	var warned bool
	snap, err := loadSnapshot(newStorePaths(p), false, func(string) { warned = true })
	require.NoError(t, err)
	require.True(t, warned)
	require.Empty(t, snap.Creds)
}

func TestUnsavedReasonAndCurrentSavedID(t *testing.T) {
	p := testPaths(t)
	sp := newStorePaths(p)
	spec := tokenSpec{accountID: "ws-a", email: "alice@x.com", plan: "plus", userID: "u-a"}
	writeTokenFile(t, p.AuthFile, spec)

	creds, err := loadCredentialMap(sp, nil)
	require.NoError(t, err)
	require.Equal(t, unsavedNoMatch, unsavedReason(sp, creds))
	_, ok := currentSavedID(sp, creds)
	require.False(t, ok)

	writeProfileFile(t, p, "alice@x.com-plus", spec)
	creds, err = loadCredentialMap(sp, nil)
	require.NoError(t, err)
	require.Empty(t, unsavedReason(sp, creds))
	id, ok := currentSavedID(sp, creds)
	require.True(t, ok)
	require.Equal(t, "alice@x.com-plus", id)
}

func TestSyncCurrentCopiesAndUpdatesIndex(t *testing.T) {
	p := testPaths(t)
	sp := newStorePaths(p)
	stale := tokenSpec{accountID: "ws-a", email: "alice@x.com", plan: "plus", userID: "u-a", access: "old"}
	writeProfileFile(t, p, "alice@x.com-plus", stale)
	fresh := stale
	fresh.access = "new"
	writeTokenFile(t, p.AuthFile, fresh)

	idx := newIndex()
	idx.entry("alice@x.com-plus").Label = "work"
	id, err := syncCurrent(sp, idx)
	require.NoError(t, err)
	require.Equal(t, "alice@x.com-plus", id)

	data, err := os.ReadFile(profilePathForID(p.ProfilesDir, "alice@x.com-plus"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"new"`)
	require.Equal(t, "alice@x.com", idx.Profiles["alice@x.com-plus"].Email)
	require.Equal(t, "work", idx.Profiles["alice@x.com-plus"].Label)
}

func TestSyncCurrentNoAuthIsNoop(t *testing.T) {
	p := testPaths(t)
	id, err := syncCurrent(newStorePaths(p), newIndex())
	require.NoError(t, err)
	require.Empty(t, id)
}

func TestLockIsExclusive(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no flock on windows")
	}
	p := testPaths(t)
	origDelay, origTimeout := lockRetryDelay, lockTimeout
	lockRetryDelay = 10 * time.Millisecond
	lockTimeout = 50 * time.Millisecond
	t.Cleanup(func() { lockRetryDelay, lockTimeout = origDelay, origTimeout })

	first, err := AcquireLock(p.LockFile)
	require.NoError(t, err)
	_, err = AcquireLock(p.LockFile)
	require.ErrorIs(t, err, ErrLockTimeout)

	first.Release()
	second, err := AcquireLock(p.LockFile)
	require.NoError(t, err)
	second.Release()

	// Release twice is safe.
	second.Release()
}
