package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/atomicio"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
)

const indexVersion = 2

// IndexEntry is the cached metadata for one saved profile, keyed by profile
// id in the index. Everything here is derivable from the profile file; the
// index only exists so list/status can describe unreadable profiles.
type IndexEntry struct {
	AccountID        string `json:"account_id,omitempty"`
	Email            string `json:"email,omitempty"`
	Plan             string `json:"plan,omitempty"`
	Label            string `json:"label,omitempty"`
	IsAPIKey         bool   `json:"is_api_key"`
	PrincipalID      string `json:"principal_id,omitempty"`
	WorkspaceOrOrgID string `json:"workspace_or_org_id,omitempty"`
	PlanTypeKey      string `json:"plan_type_key,omitempty"`
}

// Index is the persisted profiles.json document.
type Index struct {
	Version  int                    `json:"version"`
	Profiles map[string]*IndexEntry `json:"profiles"`
}

func newIndex() *Index {
	return &Index{Version: indexVersion, Profiles: map[string]*IndexEntry{}}
}

func (idx *Index) entry(id string) *IndexEntry {
	if idx.Profiles == nil {
		idx.Profiles = map[string]*IndexEntry{}
	}
	entry, ok := idx.Profiles[id]
	if !ok {
		entry = &IndexEntry{}
		idx.Profiles[id] = entry
	}
	return entry
}

func (idx *Index) sortedIDs() []string {
	ids := make([]string, 0, len(idx.Profiles))
	for id := range idx.Profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// readIndex reads profiles.json strictly: a missing file is a fresh empty
// index, a read failure or broken JSON is an error. Files written by the v1
// schema are detected by their retired field names and rewritten in the
// current shape once they parse.
func readIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newIndex(), nil
		}
		return nil, fmt.Errorf("cannot read profiles index %s: %w", path, err)
	}
	contents := string(data)
	hadLegacySchema := strings.Contains(contents, `"last_used"`) ||
		strings.Contains(contents, `"active_profile_id"`) ||
		strings.Contains(contents, `"update_cache"`)
	idx := newIndex()
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("profiles index %s is not valid JSON", path)
	}
	if idx.Profiles == nil {
		idx.Profiles = map[string]*IndexEntry{}
	}
	if idx.Version < indexVersion {
		idx.Version = indexVersion
	}
	if hadLegacySchema {
		// Best effort; the migrated form lands on the next save anyway.
		_ = writeIndex(path, idx)
	}
	return idx, nil
}

// readIndexRelaxed falls back to a fresh index when the stored one cannot be
// used, reporting the reason through warn.
func readIndexRelaxed(path string, warn func(string)) *Index {
	idx, err := readIndex(path)
	if err != nil {
		if warn != nil {
			warn(err.Error())
		}
		return newIndex()
	}
	return idx
}

func writeIndex(path string, idx *Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize profiles index: %w", err)
	}
	if err := atomicio.WriteFile(path, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write profiles index: %w", err)
	}
	return nil
}

// pruneIndex drops entries whose profile file no longer exists.
func pruneIndex(idx *Index, profilesDir string) error {
	ids, err := collectProfileIDs(profilesDir)
	if err != nil {
		return err
	}
	for id := range idx.Profiles {
		if _, ok := ids[id]; !ok {
			delete(idx.Profiles, id)
		}
	}
	return nil
}

// updateIndexEntry refreshes the cached metadata for id from a live
// credential, and assigns a label when one is given.
func updateIndexEntry(idx *Index, id string, cred auth.Credential, label string) {
	entry := idx.entry(id)
	if cred != nil {
		email, plan := auth.EmailAndPlan(cred)
		entry.Email = email
		entry.Plan = plan
		entry.AccountID = cred.AccountID()
		_, entry.IsAPIKey = cred.(auth.APIKey)
		if identity, ok := auth.ExtractIdentity(cred); ok {
			entry.PrincipalID = identity.PrincipalID
			entry.WorkspaceOrOrgID = identity.WorkspaceOrOrgID
			entry.PlanTypeKey = identity.PlanType
		}
	}
	if label != "" {
		entry.Label = label
	}
}
