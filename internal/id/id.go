// Package id generates prefixed identifiers for batch runs and exports.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// runIDLength keeps run ids short enough to read in log lines.
const runIDLength = 12

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "run-V1StGXR8_Z5j").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New(runIDLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// FromHash derives a stable export id from a content hash,
// e.g. FromHash("auto", "3f1c9a...") -> "auto_3f1c9a04be".
func FromHash(prefix, hash string) string {
	if len(hash) > 10 {
		hash = hash[:10]
	}
	return prefix + "_" + hash
}
