package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Labels maps a human label to the profile id it names. Every label points
// at exactly one id; an id may carry several labels.
type Labels map[string]string

var errLabelEmpty = fmt.Errorf("label cannot be empty")

func trimLabel(label string) (string, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "", errLabelEmpty
	}
	return trimmed, nil
}

// labelsFromIndex rebuilds the label map from index entries, in id order so
// a duplicated label deterministically keeps its first holder.
func labelsFromIndex(idx *Index) Labels {
	labels := Labels{}
	for _, id := range idx.sortedIDs() {
		label := strings.TrimSpace(idx.Profiles[id].Label)
		if label == "" {
			continue
		}
		if _, taken := labels[label]; taken {
			continue
		}
		labels[label] = id
	}
	return labels
}

// assignLabel binds label to id. Re-binding to the same id is a no-op;
// binding a label held by another profile is an error.
func assignLabel(labels Labels, label, id string) error {
	trimmed, err := trimLabel(label)
	if err != nil {
		return err
	}
	if existing, ok := labels[trimmed]; ok {
		if existing == id {
			return nil
		}
		return fmt.Errorf("label %q already exists; run `cxprof list` to see saved profiles", trimmed)
	}
	labels[trimmed] = id
	return nil
}

func removeLabelsForID(labels Labels, id string) {
	for label, value := range labels {
		if value == id {
			delete(labels, label)
		}
	}
}

// labelForID finds a label naming id; with several, the lexicographically
// smallest wins so output is stable.
func labelForID(labels Labels, id string) string {
	var keys []string
	for label, value := range labels {
		if value == id {
			keys = append(keys, label)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}

// labelsByID inverts the label map, keeping the smallest label per id.
func labelsByID(labels Labels) map[string]string {
	byID := map[string]string{}
	for _, label := range sortedLabelKeys(labels) {
		id := labels[label]
		if _, ok := byID[id]; !ok {
			byID[id] = label
		}
	}
	return byID
}

func sortedLabelKeys(labels Labels) []string {
	keys := make([]string, 0, len(labels))
	for label := range labels {
		keys = append(keys, label)
	}
	sort.Strings(keys)
	return keys
}

// resolveLabelID looks a label up for the --label flag paths.
func resolveLabelID(labels Labels, label string) (string, error) {
	trimmed, err := trimLabel(label)
	if err != nil {
		return "", err
	}
	id, ok := labels[trimmed]
	if !ok {
		return "", fmt.Errorf("label %q was not found; run `cxprof list` to see saved profiles", trimmed)
	}
	return id, nil
}

// pruneLabels drops labels whose profile file is gone.
func pruneLabels(labels Labels, profilesDir string) {
	for label, id := range labels {
		if !fileExists(profilePathForID(profilesDir, id)) {
			delete(labels, label)
		}
	}
}

// syncIndexLabels pushes the label map back into the index entries before a
// write, so profiles.json stays the single persisted source of labels.
func syncIndexLabels(idx *Index, labels Labels) {
	byID := labelsByID(labels)
	for id, entry := range idx.Profiles {
		entry.Label = byID[id]
	}
}
