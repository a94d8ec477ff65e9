package auth

import (
	"fmt"
	"hash/fnv"
	"strings"
)

const (
	apiKeyIDPrefix    = "api-key-"
	apiKeyPlanLabel   = "Key"
	apiKeySeparator   = "~"
	apiKeyPrefixChars = 12
	apiKeySuffixChars = 16
)

// FromAPIKey derives the stable pseudo account id for an API key:
// "api-key-" + sanitized 12-char key prefix + "~" + FNV-1a hash of the full
// key. The prefix keeps the id recognizable, the hash keeps different keys
// with a shared prefix apart.
func FromAPIKey(key string) APIKey {
	h := fnv.New64a()
	h.Write([]byte(key))
	return APIKey{
		ProfileID: fmt.Sprintf("%s%s%s%016x", apiKeyIDPrefix, apiKeyPrefix(key), apiKeySeparator, h.Sum64()),
	}
}

func apiKeyPrefix(key string) string {
	var out strings.Builder
	for i, ch := range key {
		if i >= apiKeyPrefixChars {
			break
		}
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '-', ch == '_', ch == '.':
			out.WriteRune(ch)
		default:
			out.WriteByte('-')
		}
	}
	return out.String()
}

// apiKeyDisplayLabel turns a pseudo id back into a short masked label
// ("~<hash tail>"), or "" when the id is not in the expected shape.
func apiKeyDisplayLabel(profileID string) string {
	rest, ok := strings.CutPrefix(profileID, apiKeyIDPrefix)
	if !ok {
		return ""
	}
	prefix, hash, ok := strings.Cut(rest, apiKeySeparator)
	if !ok || prefix == "" || hash == "" {
		return ""
	}
	if len(hash) > apiKeySuffixChars {
		hash = hash[len(hash)-apiKeySuffixChars:]
	}
	return apiKeySeparator + hash
}
