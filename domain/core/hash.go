package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough to tell runs apart in logs.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// InputHash fingerprints the tables a forecast run was computed from
type InputHash Hash

func (h InputHash) String() string { return Hash(h).String() }

// ComputeInputHash hashes a set of canonical row strings. Rows are sorted
// first so that the fingerprint does not depend on table order.
func ComputeInputHash(sections map[string][]string) InputHash {
	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		rows := append([]string(nil), sections[key]...)
		sort.Strings(rows)
		data.WriteString(fmt.Sprintf("[%s:%d]", key, len(rows)))
		for _, row := range rows {
			data.WriteString(row)
			data.WriteByte('\n')
		}
	}

	return InputHash(NewHash([]byte(data.String())))
}
